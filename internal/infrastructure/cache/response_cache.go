package cache

import (
	"sync"
	"time"
)

// entry is one cached value with its expiry instant
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// ResponseCache is a mutex-guarded TTL key/value store memoizing normalized
// provider responses. Entries past expiry are invisible; nothing stale is
// ever served. Duplicate fetch-then-populate races are last-write-wins.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   func() time.Time
}

// NewResponseCache creates an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
}

// Get returns the value for key when present and unexpired
func (c *ResponseCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.clock().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for the given TTL. A non-positive TTL removes
// the entry.
func (c *ResponseCache) Put(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = entry{value: value, expiresAt: c.clock().Add(ttl)}
}

// Len returns the number of stored entries, expired ones included until the
// next Purge.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops expired entries and returns how many were removed. Expiry is
// already enforced on read; this only reclaims memory on long-lived caches.
func (c *ResponseCache) Purge() int {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
