// Package ratelimit provides the per-user write limiter used by the lead
// pipeline.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// maxKeys bounds the number of tracked keys. New keys are refused once the
// table is full until cleanup frees space.
const maxKeys = 100_000

type window struct {
	start time.Time
	count int
}

// FixedWindow allows at most limit calls per key in each window.
// It is safe for concurrent use.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// NewFixedWindow creates a FixedWindow limiter. A background goroutine
// evicts expired windows until ctx is cancelled.
func NewFixedWindow(ctx context.Context, limit int, period time.Duration) *FixedWindow {
	fw := newFixedWindow(limit, period, time.Now)
	go fw.cleanupLoop(ctx)

	return fw
}

func newFixedWindow(limit int, period time.Duration, now func() time.Time) *FixedWindow {
	return &FixedWindow{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     now,
	}
}

// Allow records a call for key and reports whether it is within the limit.
func (fw *FixedWindow) Allow(key string) bool {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	w, ok := fw.windows[key]
	if !ok || now.Sub(w.start) >= fw.period {
		if !ok && len(fw.windows) >= maxKeys {
			return false
		}

		fw.windows[key] = &window{start: now, count: 1}

		return fw.limit > 0
	}

	if w.count >= fw.limit {
		return false
	}

	w.count++

	return true
}

// Len returns the number of tracked keys.
func (fw *FixedWindow) Len() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	return len(fw.windows)
}

func (fw *FixedWindow) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(fw.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fw.evictExpired()
		}
	}
}

// evictExpired drops windows that have ended.
func (fw *FixedWindow) evictExpired() {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	for k, w := range fw.windows {
		if now.Sub(w.start) >= fw.period {
			delete(fw.windows, k)
		}
	}
}
