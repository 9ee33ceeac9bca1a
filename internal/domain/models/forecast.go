package models

import "time"

// ForecastPoint is one predicted period with its two-sided interval.
type ForecastPoint struct {
	Date      time.Time
	Predicted float64
	Lower     float64
	Upper     float64
}

// ForecastRequest is the body of POST /forecast.
type ForecastRequest struct {
	Currency  string `json:"currency" default:"USD" validate:"required,max=16"`
	Frequency string `json:"frequency" default:"1"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ForecastResponse is the body returned by POST /forecast.
type ForecastResponse struct {
	Dates         []string     `json:"dates"`
	Forecast      []float64    `json:"forecast"`
	ConfIntervals [][2]float64 `json:"conf_intervals"`
	Type          string       `json:"type"`
}
