// Package cache provides a simple in-memory TTL cache used to avoid
// re-materializing DFC trees on every chat turn. It is per-process: two
// horizontally scaled instances each hold their own copy, which is fine
// because the cache exists for latency, never for correctness.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value      T
	insertedAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
// The clock is injectable so expiry is testable without sleeping.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	now   func() time.Time
}

// Option customizes the cache.
type Option[T any] func(*InMemory[T])

// WithClock injects the time source. Defaults to time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *InMemory[T]) { c.now = now }
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration, opts ...Option[T]) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.now().Sub(e.insertedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:      value,
		insertedAt: c.now(),
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Flush drops every entry. Called when the nightly sync finishes and all
// cached trees are known stale.
func (c *InMemory[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry[T])
}
