// Copyright (c) 2026 PMDCollab. All rights reserved.

/*
Package cache implements the read-through cache for derived assets.

Producers declare per-value whether the result is worth keeping: a Keep
result is stored best-effort under its fingerprint key, a Skip result is
returned without touching the store. Lookup hits skip the producer entirely.

Keys are opaque fingerprints, by convention "kind|monster_idx/<form_path>"
(or "kind|<query>" for search). The whole keyspace is flushed whenever a new
snapshot is published, so entries never need a TTL.

Two concurrent misses on the same key may both run the producer; producers
must be idempotent. There is deliberately no single-flight coordination.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal key-value surface the cache needs. *redis.Client
// satisfies it through [RedisStore]; tests substitute an in-memory map.
type Store interface {
	// Get returns the serialized value, or ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores the serialized value under key, without expiry.
	Set(ctx context.Context, key, value string) error
	// FlushAll wipes the entire keyspace.
	FlushAll(ctx context.Context) error
}

// Behaviour tells the cache what to do with a freshly produced value.
type Behaviour[T any] struct {
	value T
	store bool
}

// Keep marks the value for caching.
func Keep[T any](value T) Behaviour[T] { return Behaviour[T]{value: value, store: true} }

// Skip returns the value without caching it.
func Skip[T any](value T) Behaviour[T] { return Behaviour[T]{value: value} }

// Value returns the produced value regardless of the caching decision.
func (b Behaviour[T]) Value() T { return b.value }

// Stored reports whether the value was marked for caching.
func (b Behaviour[T]) Stored() bool { return b.store }

// Cache is the read-through cache handle shared across the server.
type Cache struct {
	store Store
	log   *slog.Logger
}

// New creates a cache on top of the given store.
func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{store: store, log: logger}
}

// Clear wipes every cached entry. Called when a new snapshot is published.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.FlushAll(ctx)
}

// Cached looks key up and, on a miss, runs the infallible producer. A Keep
// result is stored best-effort: store failures are logged and otherwise
// ignored.
func Cached[T any](ctx context.Context, c *Cache, key string, produce func() Behaviour[T]) (T, error) {
	return CachedMayFail(ctx, c, key, func() (Behaviour[T], error) {
		return produce(), nil
	})
}

// CachedMayFail is [Cached] for producers that can fail. A producer error is
// returned as-is and nothing is stored.
func CachedMayFail[T any](ctx context.Context, c *Cache, key string, produce func() (Behaviour[T], error)) (T, error) {
	var zero T

	serialized, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("cache lookup for %q: %w", key, err)
	}
	if ok {
		var value T
		if err := json.Unmarshal([]byte(serialized), &value); err != nil {
			return zero, fmt.Errorf("cache entry for %q is corrupt: %w", key, err)
		}
		return value, nil
	}

	behaviour, err := produce()
	if err != nil {
		return zero, err
	}

	if behaviour.store {
		payload, err := json.Marshal(behaviour.value)
		if err != nil {
			c.log.Warn("cache_entry_marshal_failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
			return behaviour.value, nil
		}
		if err := c.store.Set(ctx, key, string(payload)); err != nil {
			c.log.Warn("cache_entry_store_failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}

	return behaviour.value, nil
}

// # Redis Backing

// RedisStore adapts *redis.Client to the [Store] interface.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}
