// Package middleware provides HTTP middleware for leadbook.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the number of tracked IPs.
const maxBuckets = 100_000

// bucketIdleTTL is how long an untouched bucket is kept.
const bucketIdleTTL = 10 * time.Minute

// RateLimiter is a per-client-IP token bucket applied to every request.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second up
// to burst. Stale buckets are evicted by a goroutine that stops with ctx.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
		now:     time.Now,
	}
	go rl.cleanupLoop(ctx)

	return rl
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bucketIdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := rl.now()

			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.lastSeen) > bucketIdleTTL {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow takes one token from key's bucket. full is set when a new bucket
// was needed but the table is at capacity.
func (rl *RateLimiter) allow(key string) (ok, full bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		if len(rl.buckets) >= maxBuckets {
			return false, true
		}

		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false, false
	}

	b.tokens--

	return true, false
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP ignores forwarding headers because the router trusts no proxies.
		ok, full := rl.allow(c.ClientIP())

		switch {
		case full:
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")
		case !ok:
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		default:
			c.Next()
		}
	}
}
