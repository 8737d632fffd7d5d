package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadbook/leadbook/internal/metrics"
)

// streamRoute is excluded from the duration histogram; a websocket request
// lasts as long as the connection.
const streamRoute = "/api/v1/ws"

// PrometheusMiddleware counts requests by route pattern and observes their
// duration.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()

		if route != streamRoute {
			metrics.RequestDuration.WithLabelValues(c.Request.Method, route, status).
				Observe(time.Since(start).Seconds())
		}
	}
}
