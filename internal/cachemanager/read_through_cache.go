package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts read-through lookups.
type Stats struct {
	Hits   int64
	Misses int64
}

// HitRatio returns hits over all lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ReadThroughCache memoises fn: a miss computes the value from input and
// stores it under key for ttl. Errors from fn are returned as-is and never
// cached. With bypass set every lookup computes and nothing is stored.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache  CacheManager[K, V]
	fn     func(ctx context.Context, input I) (V, error)
	bypass bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewReadThroughCache wraps cache around fn. A nil cache behaves like bypass.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:  cache,
		fn:     fn,
		bypass: bypass || cache == nil,
	}
}

// Get returns the cached value for key or computes it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if !r.bypass {
		if value, ok := r.cache.Get(ctx, key); ok {
			r.hits.Add(1)
			return value, nil
		}
	}
	r.misses.Add(1)

	value, err := r.fn(ctx, input)
	if err != nil || r.bypass {
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Stats returns the lookup counters since creation.
func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}
