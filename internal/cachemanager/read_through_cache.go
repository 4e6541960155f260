package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache serves Get from cache and falls back to fn on a miss.
// Errors are never cached.
type ReadThroughCache[K ~string, V any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
}

func NewReadThroughCache[K ~string, V any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, key K) (V, error),
	ttl time.Duration,
) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{cache: cache, fn: fn, ttl: ttl}
}

func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}
	return r.Refresh(ctx, key)
}

// Refresh bypasses the cache and stores the fresh value.
func (r *ReadThroughCache[K, V]) Refresh(ctx context.Context, key K) (V, error) {
	value, err := r.fn(ctx, key)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}

// Put replaces the cached value, e.g. after an optimistic local edit.
func (r *ReadThroughCache[K, V]) Put(ctx context.Context, key K, value V) {
	r.cache.Set(ctx, key, value, r.ttl)
}

// Invalidate drops key so the next Get goes to fn.
func (r *ReadThroughCache[K, V]) Invalidate(ctx context.Context, key K) {
	r.cache.Delete(ctx, key)
}
