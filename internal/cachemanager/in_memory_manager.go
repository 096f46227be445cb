package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/clsforge/internal/log"
)

// NoExpiration keeps entries until they are deleted or the cache is flushed.
const NoExpiration = gocache.NoExpiration

// Memory is a go-cache backed CacheManager. It is safe for concurrent use.
type Memory[K ~string, V any] struct {
	name  string
	store *gocache.Cache
}

var _ CacheManager[string, bool] = (*Memory[string, bool])(nil)

// NewMemory creates a cache whose entries live for ttl by default. Expired
// entries are swept every 2*ttl; a ttl <= 0 disables expiry and sweeping.
func NewMemory[K ~string, V any](name string, ttl time.Duration) *Memory[K, V] {
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl, cleanup = NoExpiration, 0
	}
	store := gocache.New(ttl, cleanup)
	store.OnEvicted(func(key string, _ any) {
		log.Debug(log.CatCache, "evicted", "cache", name, "key", key)
	})
	return &Memory[K, V]{name: name, store: store}
}

// Name identifies the cache in log output.
func (m *Memory[K, V]) Name() string { return m.name }

func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, found := m.store.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "cached value has unexpected type", "cache", m.name, "key", key)
		return zero, false
	}
	return v, true
}

func (m *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(string(key), value, ttl)
}

func (m *Memory[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, k := range keys {
		m.store.Delete(string(k))
	}
	return nil
}

func (m *Memory[K, V]) Flush(_ context.Context) error {
	log.Debug(log.CatCache, "flushing", "cache", m.name, "items", m.store.ItemCount())
	m.store.Flush()
	return nil
}

// Len counts held entries, expired ones included until the next sweep.
func (m *Memory[K, V]) Len() int {
	return m.store.ItemCount()
}
