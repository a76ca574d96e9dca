package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lcw/v2"
)

// Cached wraps a store Interface with a loading cache and satisfies the Interface itself.
// Cache is populated on reads via loader function, invalidated on writes and expired after ttl,
// the underlying store may be changed by other writers.
type Cached struct {
	store Interface
	cache lcw.LoadingCache[string]
}

// NewCached creates a new cached store wrapper.
// maxKeys sets the maximum number of entries in the cache, ttl how long an entry lives.
func NewCached(store Interface, maxKeys int, ttl time.Duration) (*Cached, error) {
	o := lcw.NewOpts[string]()
	cache, err := lcw.NewExpirableCache(o.MaxKeys(maxKeys), o.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cached{store: store, cache: cache}, nil
}

// Get retrieves the value for a key, using cache with load-through.
// Missing keys are not cached, ErrNotFound passes through unwrapped.
func (c *Cached) Get(ctx context.Context, key string) (string, error) {
	val, err := c.cache.Get(key, func() (string, error) {
		return c.store.Get(ctx, key)
	})
	if err != nil {
		return "", err //nolint:wrapcheck // callers check ErrNotFound
	}
	return val, nil
}

// GetFresh reads the key from the underlying store, bypassing the cache, and refreshes the cached copy.
func (c *Cached) GetFresh(ctx context.Context, key string) (string, error) {
	c.cache.Delete(key)
	return c.Get(ctx, key)
}

// Set stores a value and invalidates the cache entry.
func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	c.cache.Invalidate(func(k string) bool { return k == key })
	return nil
}

// Close closes the cache and underlying store.
func (c *Cached) Close() error {
	_ = c.cache.Close()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
func (c *Cached) Stats() lcw.CacheStat {
	return c.cache.Stat()
}
