// Package cache provides a small TTL cache with an injected clock, so expiry
// policy is testable rather than ambient global state.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TTL caches a single value for a fixed duration.
type TTL[T any] struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	value   T
	ok      bool
	expires time.Time
}

// NewTTL creates a TTL cache backed by the real clock.
func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return NewTTLWithClock[T](ttl, clockwork.NewRealClock())
}

// NewTTLWithClock creates a TTL cache with an injected clock.
func NewTTLWithClock[T any](ttl time.Duration, clock clockwork.Clock) *TTL[T] {
	return &TTL[T]{clock: clock, ttl: ttl}
}

// Get returns the cached value, refreshing it through fetch when missing or
// expired. A fetch error is returned without caching.
func (c *TTL[T]) Get(fetch func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.ok && now.Before(c.expires) {
		return c.value, nil
	}

	value, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	c.value = value
	c.ok = true
	c.expires = now.Add(c.ttl)
	return value, nil
}

// Invalidate drops the cached value.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ok = false
}
