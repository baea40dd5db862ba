// Package cache provides a small in-memory TTL cache used to keep recently loaded
// documents close to the storage adapters.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with its expiry.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// IsExpired reports whether now is past the entry's deadline.
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is a keyed store whose values expire.
type Cache[V any] interface {
	// Get retrieves a value; found is false on a miss or after expiry.
	Get(key string) (V, bool)

	// Set stores a value for ttl.
	Set(key string, value V, ttl time.Duration)

	// Invalidate drops key.
	Invalidate(key string)

	// InvalidateAll drops every key.
	InvalidateAll()
}

// MemoryCache is a map-backed Cache swept by a background goroutine.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[V]
	now     func() time.Time

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its sweep goroutine.
// Call Stop to release the goroutine.
func NewMemoryCache[V any]() *MemoryCache[V] {
	c := &MemoryCache[V]{
		entries:    make(map[string]*Entry[V]),
		now:        time.Now,
		sweepEvery: time.Minute,
		stop:       make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the value for key. An expired entry is dropped and reported as a miss.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}
	if entry.IsExpired(c.now()) {
		c.Invalidate(key)
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key until ttl elapses.
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	entry := &Entry[V]{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Invalidate drops key.
func (c *MemoryCache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll drops every key.
func (c *MemoryCache[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry[V])
	c.mu.Unlock()
}

func (c *MemoryCache[V]) sweep() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, key)
		}
	}
}

// Stop ends the sweep goroutine. Further calls do nothing.
func (c *MemoryCache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Len counts stored entries, expired or not.
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
