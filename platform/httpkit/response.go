// Package httpkit provides shared HTTP helpers and middleware.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"staffhub_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON shape of every error payload.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes a JSON payload with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 JSON payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error writes a JSON error payload with the given status.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// DomainError maps a service error to its HTTP status via apperr and writes it.
// Unknown errors become a 500 with a generic message.
func DomainError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		Error(c, e.HTTPStatus(), e.Message, nil)
		return
	}
	Error(c, http.StatusInternalServerError, "internal error", nil)
}
