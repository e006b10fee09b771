package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// NullCacheValue marks a cached miss so repeated lookups of absent keys skip the store.
const NullCacheValue = "$NULL$"

// GetWithCached reads key through the cache. On a miss fn is called and its
// result stored for ttl; empty results are stored as NullCacheValue for emptyTTL.
// Cache failures fall through to fn and are never returned.
func GetWithCached[T any](
	ctx context.Context,
	cache BasicOps,
	key string,
	ttl time.Duration,
	emptyTTL time.Duration,
	isEmpty func(T) bool,
	marshal func(T) (string, error),
	unmarshal func(string) (T, error),
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
		if cached == NullCacheValue {
			return zero, nil
		}
		if result, err := unmarshal(cached); err == nil {
			return result, nil
		}
	}

	data, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	if isEmpty(data) {
		_ = cache.Set(ctx, key, NullCacheValue, emptyTTL)
		return zero, nil
	}

	if payload, err := marshal(data); err == nil {
		_ = cache.Set(ctx, key, payload, ttl)
	}
	return data, nil
}

// UpdateCached runs fn and drops keys once it succeeds.
func UpdateCached(ctx context.Context, cache BasicOps, fn func(context.Context) error, keys ...string) error {
	if err := fn(ctx); err != nil {
		return err
	}
	_ = cache.Del(ctx, keys...)
	return nil
}

// JitterTTL shortens ttl by up to 10% so entries written together expire apart.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(ttl / 10)
	if maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
