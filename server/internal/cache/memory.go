package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory is a process-local Cache backed by go-cache. Items never expire on
// their own; the freshness window is applied lazily on Get.
type Memory[V any] struct {
	items *gocache.Cache
	now   func() time.Time // injectable for deterministic tests
}

// NewMemory returns an empty in-process cache.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{
		items: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

// Get returns the value for key if it was stored less than maxAge ago.
func (m *Memory[V]) Get(_ context.Context, key string, maxAge time.Duration) (V, bool) {
	var zero V
	raw, ok := m.items.Get(key)
	if !ok {
		return zero, false
	}
	e, ok := raw.(entry[V])
	if !ok || !fresh(e.storedAt, m.now(), maxAge) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (m *Memory[V]) Set(_ context.Context, key string, value V) {
	m.items.Set(key, entry[V]{value: value, storedAt: m.now()}, gocache.NoExpiration)
}

// Len returns the number of entries held, fresh or stale.
func (m *Memory[V]) Len() int { return m.items.ItemCount() }
