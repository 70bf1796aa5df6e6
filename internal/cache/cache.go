// Package cache is a small generic TTL cache used for profile lookups and the
// per-actor session registry.
package cache

import (
	"sync"
	"time"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

// TTLCache is a map-backed cache guarded by a RWMutex. Expired entries are
// treated as misses and removed lazily or by PurgeExpired.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	ttl   time.Duration
}

// New builds a cache whose entries live for ttl. ttl <= 0 disables expiry.
func New[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{items: make(map[K]entry[V]), ttl: ttl}
}

// now is a small indirection to allow test stubbing.
var now = time.Now

func (c *TTLCache[K, V]) expired(e entry[V], at time.Time) bool {
	return !e.expiresAt.IsZero() && at.After(e.expiresAt)
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || c.expired(e, now()) {
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

func (c *TTLCache[K, V]) setLocked(key K, value V) {
	var exp time.Time
	if c.ttl > 0 {
		exp = now().Add(c.ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: exp}
}

// GetOrLoad returns the cached value or stores the result of load. load runs
// under the write lock, so at most one value is ever created per key.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok && !c.expired(e, now()) {
		return e.value, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.setLocked(key, v)
	return v, nil
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len counts only non-expired entries.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at := now()
	count := 0
	for _, e := range c.items {
		if !c.expired(e, at) {
			count++
		}
	}
	return count
}

func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// PurgeExpired removes expired entries and returns their values so callers
// can release anything they hold.
func (c *TTLCache[K, V]) PurgeExpired() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []V
	at := now()
	for k, e := range c.items {
		if c.expired(e, at) {
			out = append(out, e.value)
			delete(c.items, k)
		}
	}
	return out
}
