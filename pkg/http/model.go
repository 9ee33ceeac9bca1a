package http

// APIResponse is the envelope used for error and status responses.
// Error duplicates the first message so clients reading a flat {"error": ...}
// body keep working.
type APIResponse struct {
	Status  int         `json:"status" example:"400"`
	Message string      `json:"message" example:"Bad Request"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"currency"`
	Message string                 `json:"message,omitempty" example:"currency is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
