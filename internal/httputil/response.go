// Package httputil provides shared HTTP response helpers.
package httputil

import (
	"github.com/gin-gonic/gin"

	"github.com/leadbook/leadbook/internal/models"
)

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// Envelope is the body of every successful JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Success   bool                `json:"success"`
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	RequestID string              `json:"request_id,omitempty"`
	Field     string              `json:"field,omitempty"`
	Errors    []models.FieldError `json:"errors,omitempty"`
}

// RespondOK writes a success envelope.
func RespondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	RespondErrorBody(c, status, ErrorBody{Code: code, Message: message})
}

// RespondErrorBody fills in the request ID and writes body, aborting the request.
func RespondErrorBody(c *gin.Context, status int, body ErrorBody) {
	body.Success = false
	body.RequestID = c.GetString(RequestIDKey)

	c.AbortWithStatusJSON(status, body)
}
