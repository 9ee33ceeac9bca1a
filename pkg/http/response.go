package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope with the given status.
func DataResponse(c echo.Context, statusCode int, msg string, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Error:   msg,
		Data:    data,
	})
}

// SuccessResponse writes data as the plain JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// BlobResponse writes a stored JSON document without re-encoding it.
func BlobResponse(c echo.Context, doc []byte) error {
	return c.JSONBlob(http.StatusOK, doc)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	msg := ""
	if len(errs) > 0 {
		msg = errs[0].Message
	}
	return DataResponse(c, http.StatusBadRequest, msg, errs)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong", nil)
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, appErr.Message, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
