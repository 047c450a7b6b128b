// Package response contains response utility functions and types
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response represents the standard API response structure.
// Cause carries the stable cause token rendered by the presentation layer.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Cause   string      `json:"cause,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SuccessResponse sends a successful JSON response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// SuccessCauseResponse sends a successful JSON response with a cause token
func SuccessCauseResponse(c echo.Context, cause string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Cause:  cause,
		Data:   data,
	})
}

// ErrorResponse sends an error JSON response with a cause token
func ErrorResponse(c echo.Context, httpStatus int, cause, message string) error {
	return c.JSON(httpStatus, Response{
		Status:  "error",
		Cause:   cause,
		Message: message,
	})
}
