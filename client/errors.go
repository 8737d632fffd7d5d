package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the leadbook API.
type APIError struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	RequestID  string       `json:"request_id,omitempty"`
	Field      string       `json:"field,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("leadbook: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("leadbook: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func hasStatus(err error, status int) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.StatusCode == status
	}
	return false
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsForbidden returns true if the error is a 403 (acting user is not the owner).
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsConflict returns true if the error is a 409: a duplicate email or a
// lead that changed since it was read.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// IsValidation returns true if the error carries field validation failures.
func IsValidation(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == "validation_error"
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
