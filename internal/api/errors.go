package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/metrics"
	"github.com/leadbook/leadbook/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeForbidden       = "forbidden"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
	ErrCodeDuplicateEmail  = "duplicate_email"
	ErrCodeConflict        = "conflict"
	ErrCodeBatchTooLarge   = "batch_too_large"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps an error returned by a service to its HTTP status
// and error code. Unrecognized errors are logged and reported as 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, op string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		metrics.ErrorsTotal.WithLabelValues(ErrCodeValidationError).Inc()
		httputil.RespondErrorBody(c, http.StatusBadRequest, httputil.ErrorBody{
			Code:    ErrCodeValidationError,
			Message: ve.Error(),
			Field:   ve.Field(),
			Errors:  ve.Errors,
		})

		return
	}

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthenticated, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, models.ErrLeadNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, ErrCodeDuplicateEmail, err.Error())
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, models.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
	case errors.Is(err, models.ErrBatchTooLarge):
		respondError(c, http.StatusBadRequest, ErrCodeBatchTooLarge, err.Error())
	default:
		log.WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
