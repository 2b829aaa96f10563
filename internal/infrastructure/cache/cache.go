package cache

import (
	"sync"
	"time"
)

// TTLCache is a bounded time-based cache injected into adapters for
// short-lived lookups (fetched method lists, OAuth clients). It is an
// optimization only: callers always fall back to a live fetch on a miss.
type TTLCache[K comparable, V any] struct {
	mu 	 sync.Mutex
	ttl  time.Duration
	data map[K]entry[V]
}

type entry[V any] struct {
	value 	  V
	expiresAt time.Time
}

func New[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl: ttl,
		data: make(map[K]entry[V]),
	}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok || time.Now().After(e.expiresAt) {
		delete(c.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// GetOrLoad returns the cached value or runs loader and caches its result.
// Loader errors are never cached.
func (c *TTLCache[K, V]) GetOrLoad(key K, loader func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := loader()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}
