// Package cache provides a small in-memory TTL cache, used to memoize
// category suggestions by statement description. Eviction is lazy:
// expired entries are dropped on read and swept by Purge.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

// TTL is a thread-safe in-memory cache whose entries expire after a
// fixed duration.
type TTL[T any] struct {
	mu      sync.Mutex
	entries map[string]item[T]
	ttl     time.Duration
	nowFn   func() time.Time
}

// New creates a TTL cache. Entries live for ttl after each Set.
func New[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		entries: make(map[string]item[T]),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

// Get returns the value for key, or false if absent or expired.
// Expired entries are removed on the spot.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if c.nowFn().After(it.deadline) {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key with a fresh deadline.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = item[T]{value: value, deadline: c.nowFn().Add(c.ttl)}
}

// Delete removes key if present.
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Purge drops every expired entry and reports how many were removed.
func (c *TTL[T]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	removed := 0
	for k, it := range c.entries {
		if now.After(it.deadline) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports how many entries are stored, expired ones included.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
