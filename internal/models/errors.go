package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for identity and ownership.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("only the owner can modify this lead")
)

// Sentinel errors for entity lookups.
var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrUserNotFound = errors.New("user not found")
)

// ErrConflict is the parent of every conflict error (maps to HTTP 409).
var ErrConflict = errors.New("conflict")

// Conflict errors.
var (
	ErrDuplicateEmail = fmt.Errorf("%w: a lead with this email already exists", ErrConflict)
	ErrStaleVersion   = fmt.Errorf("%w: record changed since last view, refresh and retry", ErrConflict)
)

// ErrRateLimited is returned when the acting user exceeds the write rate.
var ErrRateLimited = errors.New("too many requests")

// ErrBatchTooLarge is returned for imports with more than MaxImportRows rows.
var ErrBatchTooLarge = fmt.Errorf("import cannot contain more than %d rows", MaxImportRows)

// ErrDuplicateKey indicates a unique constraint violation.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrValidation is the sentinel every *ValidationError unwraps to.
var ErrValidation = errors.New("validation failed")

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field errors in schema order. The first one is the
// primary error reported to callers.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Error returns the message of the first field error.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidation.Error()
	}

	return e.Errors[0].Message
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Field returns the name of the first offending field.
func (e *ValidationError) Field() string {
	if len(e.Errors) == 0 {
		return ""
	}

	return e.Errors[0].Field
}

// Summary joins every field error into one line.
func (e *ValidationError) Summary() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}

	return strings.Join(parts, "; ")
}

// ErrFieldTooLong returns a message for a field exceeding its maximum length.
func ErrFieldTooLong(field string, maxLen int) string {
	return fmt.Sprintf("%s exceeds maximum length of %d", field, maxLen)
}
