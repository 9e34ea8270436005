package secretstore

import (
	"sync"
	"time"
)

type ttlItem[T any] struct {
	v   T
	exp int64
}

// TTLCache is a tiny, goroutine-safe in-memory key/value cache with a fixed
// capacity and a time-to-live applied to each entry.
//
//   - Expiration: entries expire lazily on Get when their exp < now.
//   - Eviction: when capacity is reached, the oldest inserted key is evicted
//     (simple FIFO), so duplicate keys may be evicted earlier than an LRU
//     would.
//   - Time resolution: expiration is tracked at 1-second granularity.
//   - Zero value: not ready for use; call NewTTLCache.
type TTLCache[T any] struct {
	mu   sync.Mutex
	ttl  time.Duration
	size int
	data map[string]ttlItem[T]
	keys []string // FIFO eviction queue (by insertion occurrences)
}

// NewTTLCache constructs a TTLCache with the given maximum size and TTL per
// entry. A non-positive ttl effectively disables caching.
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, size: size, data: make(map[string]ttlItem[T])}
}

// Get returns the cached value for key k if present and not expired. Expired
// entries are removed lazily during this call.
func (c *TTLCache[T]) Get(k string) (T, bool) {
	var zero T
	now := time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.data[k]
	if !ok || it.exp < now {
		if ok {
			delete(c.data, k)
		}
		return zero, false
	}
	return it.v, true
}

// Set inserts or replaces the value for key k with an expiration time of
// now + cache TTL, evicting the oldest inserted key when at capacity.
func (c *TTLCache[T]) Set(k string, v T) {
	now := time.Now().Add(c.ttl).Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.data) >= c.size {
		if len(c.keys) > 0 {
			old := c.keys[0]
			c.keys = c.keys[1:]
			delete(c.data, old)
		}
	}
	c.data[k] = ttlItem[T]{v: v, exp: now}
	c.keys = append(c.keys, k)
}

// Clear removes the entry for key k, if any, including its queue slots, so
// a later re-Set of the same key is not evicted off a stale front entry.
func (c *TTLCache[T]) Clear(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, k)
	keep := c.keys[:0]
	for _, key := range c.keys {
		if key != k {
			keep = append(keep, key)
		}
	}
	c.keys = keep
}
