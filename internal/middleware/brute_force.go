package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/metrics"
)

const (
	bruteForceMaxAttempts = 5
	bruteForceWindow      = 15 * time.Minute
	bruteForceLockout     = 5 * time.Minute
	bruteForceCleanup     = 60 * time.Second
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// stale reports whether the record no longer affects decisions at now.
func (r *failureRecord) stale(now time.Time) bool {
	if !r.lockedAt.IsZero() {
		return now.Sub(r.lockedAt) >= bruteForceLockout
	}

	return now.Sub(r.firstFail) >= bruteForceWindow
}

// BruteForceGuard tracks per-key-hash authentication failures and blocks
// keys that exceed the failure threshold within the tracking window.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	now     func() time.Time
	log     *logrus.Logger
}

// NewBruteForceGuard creates a new guard and starts a background cleanup goroutine
// that stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*failureRecord),
		now:     time.Now,
		log:     log,
	}
	go g.cleanupLoop(ctx)
	return g
}

// keyHash returns the hex SHA-256 of an API key. Auth state is keyed by hash
// so raw keys are never held in memory.
func keyHash(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// IsBlocked reports whether apiKey is currently locked out.
func (g *BruteForceGuard) IsBlocked(apiKey string) bool {
	kh := keyHash(apiKey)
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok {
		return false
	}

	return !rec.lockedAt.IsZero() && g.now().Sub(rec.lockedAt) < bruteForceLockout
}

// RecordFailure records a failed authentication attempt for apiKey.
func (g *BruteForceGuard) RecordFailure(apiKey string) {
	kh := keyHash(apiKey)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok || rec.stale(now) {
		g.records[kh] = &failureRecord{attempts: 1, firstFail: now}
		return
	}

	rec.attempts++
	if rec.attempts >= bruteForceMaxAttempts && rec.lockedAt.IsZero() {
		rec.lockedAt = now
		g.log.WithField("key_hash", kh[:16]+"...").Warn("api key locked out after repeated auth failures")
	}
}

// ResetKey clears failure tracking for a key after a successful auth.
func (g *BruteForceGuard) ResetKey(apiKey string) {
	kh := keyHash(apiKey)
	g.mu.Lock()
	delete(g.records, kh)
	g.mu.Unlock()
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep drops stale records and trims the table to bruteForceMaxRecords,
// oldest first failure first.
func (g *BruteForceGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for k, rec := range g.records {
		if rec.stale(now) {
			delete(g.records, k)
		}
	}

	for len(g.records) > bruteForceMaxRecords {
		var oldestKey string
		var oldest time.Time

		for k, rec := range g.records {
			if oldestKey == "" || rec.firstFail.Before(oldest) {
				oldestKey, oldest = k, rec.firstFail
			}
		}

		delete(g.records, oldestKey)
	}
}

// BruteForceMiddleware returns middleware that rejects requests carrying a
// locked-out API key before any lookup happens.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			c.Next()
			return
		}

		if guard.IsBlocked(apiKey) {
			metrics.AuthFailuresTotal.WithLabelValues("locked_out").Inc()
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed authentication attempts")
			return
		}

		c.Next()
	}
}
