package middleware

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	userCacheTTL       = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("user not found (cached)")

// cachedUser is one cache entry. An empty userID marks a failed lookup.
type cachedUser struct {
	userID    string
	fetchedAt time.Time
}

func (cu cachedUser) negative() bool {
	return cu.userID == ""
}

func (cu cachedUser) expired(now time.Time) bool {
	ttl := userCacheTTL
	if cu.negative() {
		ttl = negativeCacheTTL
	}

	return now.Sub(cu.fetchedAt) >= ttl
}

// CachedUserLookup wraps a UserLookup with a bounded in-memory cache keyed by
// API key hash, so raw keys are never held in memory.
type CachedUserLookup struct {
	inner UserLookup
	now   func() time.Time
	mu    sync.RWMutex
	cache map[string]cachedUser
}

// NewCachedUserLookup creates a caching wrapper around inner.
// ctx controls the lifetime of the background eviction goroutine.
func NewCachedUserLookup(ctx context.Context, inner UserLookup) *CachedUserLookup {
	c := &CachedUserLookup{
		inner: inner,
		now:   time.Now,
		cache: make(map[string]cachedUser),
	}
	go c.evictLoop(ctx)
	return c
}

func (c *CachedUserLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpired(c.now())
			c.mu.Unlock()
		}
	}
}

// evictExpired drops expired entries. Caller must hold c.mu.
func (c *CachedUserLookup) evictExpired(now time.Time) {
	for k, v := range c.cache {
		if v.expired(now) {
			delete(c.cache, k)
		}
	}
}

// GetUserByAPIKey returns a cached user ID or delegates to the inner lookup.
// Failed lookups are cached briefly so repeated bad keys do not reach the database.
func (c *CachedUserLookup) GetUserByAPIKey(ctx context.Context, apiKey string) (string, error) {
	hk := keyHash(apiKey)

	c.mu.RLock()
	entry, ok := c.cache[hk]
	c.mu.RUnlock()

	if ok && !entry.expired(c.now()) {
		if entry.negative() {
			return "", errCachedNotFound
		}
		return entry.userID, nil
	}

	userID, err := c.inner.GetUserByAPIKey(ctx, apiKey)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= maxCacheEntries {
		c.evictExpired(c.now())
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}

	if err != nil {
		c.cache[hk] = cachedUser{fetchedAt: c.now()}
		return "", err
	}

	c.cache[hk] = cachedUser{userID: userID, fetchedAt: c.now()}

	return userID, nil
}
