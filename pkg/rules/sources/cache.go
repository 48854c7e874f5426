package sources

import (
	"sync"
	"time"
)

// lookupCache memoizes cross-reference lookups, including failures, so one
// evaluation run asks an external system about each title at most once.
type lookupCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]cacheEntry[V]
	now     func() time.Time
}

type cacheEntry[V any] struct {
	value   V
	err     error
	expires time.Time
}

func newLookupCache[K comparable, V any](ttl time.Duration) *lookupCache[K, V] {
	return &lookupCache[K, V]{
		ttl:     ttl,
		entries: make(map[K]cacheEntry[V]),
		now:     time.Now,
	}
}

// get returns the cached result for key, calling fetch on a miss.
// Concurrent misses for the same key may both fetch.
func (c *lookupCache[K, V]) get(key K, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.value, e.err
	}
	c.mu.Unlock()

	v, err := fetch()

	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: v, err: err, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return v, err
}

func (c *lookupCache[K, V]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]cacheEntry[V])
}
