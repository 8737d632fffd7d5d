package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/metrics"
)

// UserIDKey is the gin context key holding the authenticated user ID.
const UserIDKey = "user_id"

// authTimingFloor is the minimum response time for rejected requests so
// valid and invalid API keys cannot be told apart by latency.
const authTimingFloor = 50 * time.Millisecond

// UserLookup resolves an API key to the ID of the user holding it.
type UserLookup interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (string, error)
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via Bearer token
// and stores the acting user's ID under UserIDKey.
// If a BruteForceGuard is provided, failed attempts are tracked per key hash.
func AuthMiddleware(lookup UserLookup, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization header")
			return
		}

		userID, err := lookup.GetUserByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logAuthFailure(log, c, apiKey, err)
			metrics.AuthFailuresTotal.WithLabelValues("invalid_key").Inc()

			if guard != nil {
				guard.RecordFailure(apiKey)
			}

			respondError(c, http.StatusUnauthorized, "unauthenticated", "invalid api key")
			return
		}

		if guard != nil {
			guard.ResetKey(apiKey)
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string, err error) {
	log.WithError(err).WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": truncateKey(apiKey),
	}).Warn("authentication failed")
}
