// Package cache provides a small generic TTL cache used to memoize
// expensive read-side aggregations. Expired entries are dropped lazily
// on access and swept by a background janitor.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EvictCallback is invoked after an entry is removed by expiry.
type EvictCallback[V any] func(key string, value V)

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired() bool {
	return time.Now().After(e.expiresAt)
}

// TTL is a thread-safe cache whose entries expire after a fixed
// duration. The zero value is not usable; construct with NewTTL.
type TTL[V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]entry[V]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	evictFn EvictCallback[V]
}

// Option configures a TTL cache.
type Option[V any] func(*TTL[V])

// WithEvictionCallback sets a callback invoked for entries removed by
// expiry, either lazily on Get or by the janitor.
func WithEvictionCallback[V any](fn EvictCallback[V]) Option[V] {
	return func(c *TTL[V]) {
		c.evictFn = fn
	}
}

// NewTTL creates a TTL cache. A janitor goroutine sweeps expired
// entries every cleanupInterval until ctx is canceled; pass a
// non-positive interval to disable it and rely on lazy expiry.
func NewTTL[V any](ctx context.Context, ttl, cleanupInterval time.Duration, opts ...Option[V]) *TTL[V] {
	c := &TTL[V]{
		ttl:   ttl,
		items: make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.janitor(ctx, cleanupInterval)
	}
	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		c.misses.Add(1)
		return zero, false
	}
	if e.expired() {
		c.removeExpired(key)
		var zero V
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key with the cache's TTL, replacing any
// existing entry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key. It reports whether an entry was present.
func (c *TTL[V]) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()
	return ok
}

// Clear drops every entry.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.mu.Unlock()
}

// Size returns the number of stored entries, expired or not.
func (c *TTL[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns a snapshot of hit, miss, and eviction counters.
func (c *TTL[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Size(),
	}
}

// removeExpired deletes key if it is still present and still expired.
func (c *TTL[V]) removeExpired(key string) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok && e.expired() {
		delete(c.items, key)
		c.evictions.Add(1)
		if c.evictFn != nil {
			defer c.evictFn(key, e.value)
		}
	}
	c.mu.Unlock()
}

func (c *TTL[V]) janitor(ctx context.Context, interval time.Duration) {
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
}

func (c *TTL[V]) sweep() {
	type evicted struct {
		key   string
		value V
	}
	var removed []evicted

	c.mu.Lock()
	for key, e := range c.items {
		if e.expired() {
			delete(c.items, key)
			c.evictions.Add(1)
			if c.evictFn != nil {
				removed = append(removed, evicted{key, e.value})
			}
		}
	}
	c.mu.Unlock()

	for _, r := range removed {
		c.evictFn(r.key, r.value)
	}
}
