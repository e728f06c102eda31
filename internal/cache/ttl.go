// Package cache provides a generic in-memory TTL memoizing cache.
// Instances are injected through constructors so tests can substitute a
// fresh store; there are no package-level singletons.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache memoizes values under comparable keys with a fixed TTL.
// Concurrent fetches for the same key are not coalesced: a stampede issues
// duplicate upstream calls, which is an efficiency loss, not a correctness
// bug. Errors from the fetch function are never cached.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[K]entry[V]
	clock   func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New creates a cache with the given TTL.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return NewWithClock[K, V](ttl, time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock[K comparable, V any](ttl time.Duration, clock func() time.Time) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		clock:   clock,
	}
}

// Get returns the live value stored under key, if any.
// Expired entries are evicted lazily.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if c.clock().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key with expiry now+TTL. Last write wins.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrFetch returns the live value under key, or invokes fetch, stores the
// result and returns it. A failed fetch caches nothing and the error
// propagates to the caller.
func (c *Cache[K, V]) GetOrFetch(ctx context.Context, key K, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, v)
	return v, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes all entries.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// sweep removes expired entries.
func (c *Cache[K, V]) sweep() {
	now := c.clock()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// StartSweeper launches a background goroutine that removes expired entries
// at the given interval until the context is cancelled. Sweeping is an
// optimization on top of lazy eviction; cadence is not a correctness
// contract.
func (c *Cache[K, V]) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}
