package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/metrics"
)

// respondError aborts with the shared error envelope and counts the code.
func respondError(c *gin.Context, code int, errCode, message string) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondError(c, code, errCode, message)
}
