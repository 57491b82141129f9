// Package cache provides a read-through lookup cache with per-entry TTLs.
//
// The cache stores successful lookup results, including "not found"
// results, so repeated misses don't hammer the remote API. Failed
// lookups are never cached.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTTL is how long lookup results stay fresh unless the caller
// overrides it.
const DefaultTTL = 15 * time.Minute

const defaultCapacity = 4096

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a bounded, thread-safe read-through cache.
type Cache struct {
	mu    sync.Mutex
	items *lru.Cache[string, entry]
	now   func() time.Time
}

// New creates a cache with the default capacity.
func New() *Cache {
	return NewWithCapacity(defaultCapacity)
}

// NewWithCapacity creates a cache holding at most capacity entries.
// Least-recently-used entries are evicted beyond that.
func NewWithCapacity(capacity int) *Cache {
	items, err := lru.New[string, entry](capacity)
	if err != nil {
		// lru.New only fails on capacity <= 0
		panic(fmt.Sprintf("cache: invalid capacity %d", capacity))
	}
	return &Cache{items: items, now: time.Now}
}

// Remember returns the cached value for key if present and unexpired.
// Otherwise it calls produce, caches the result (nil included) for ttl,
// and returns it. Errors from produce are returned without caching.
func (c *Cache) Remember(key string, ttl time.Duration, produce func() (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.items.Get(key); ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			return e.value, nil
		}
		c.items.Remove(key)
	}
	c.mu.Unlock()

	value, err := produce()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
	c.mu.Unlock()

	return value, nil
}

// Forget removes key from the cache.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	c.items.Remove(key)
	c.mu.Unlock()
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.items.Purge()
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Key builds a stable cache key from an operation name and its lookup
// attributes. Attribute maps with the same contents always produce the
// same key: map keys are sorted during JSON encoding.
func Key(op string, attrs map[string]any) string {
	encoded, err := json.Marshal(attrs)
	if err != nil {
		// Lookup attrs are scalars; this cannot fail for our callers.
		return fmt.Sprintf("%s:%v", op, attrs)
	}
	return op + ":" + string(encoded)
}
