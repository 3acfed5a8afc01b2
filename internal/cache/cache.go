// Package cache provides a small TTL cache used for entitlement lookups.
// It is injected as a dependency rather than held in package state so tests
// and multi-instance deployments can control it.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	expiry time.Time
}

type TTL[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]entry[V]

	// now is swapped in tests
	now func() time.Time
}

func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || c.now().After(e.expiry) {
		delete(c.m, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry[V]{value: value, expiry: c.now().Add(c.ttl)}
}

// Invalidate drops a key; called when a membership row is mutated so the
// next tier resolution sees fresh state.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}
