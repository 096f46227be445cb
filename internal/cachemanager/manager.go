// Package cachemanager provides small typed caches used to memoise pure
// computations such as subtype decisions.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value store with per-entry expiry.
// A ttl of 0 passed to Set means the store's default lifetime.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
	Len() int
}
