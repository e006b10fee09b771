package cache

import (
	"context"
	"time"
)

// BasicOps is the key-value surface the problem cache and the rate limiter need.
// Get returns "" with a nil error for a missing key.
type BasicOps interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; a zero ttl keeps the key forever.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// SetNX reports whether the key was created.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL follows Redis: -1 for a key without expiry, -2 for a missing key.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache is a BasicOps backed by a connection that can be checked and released.
type Cache interface {
	BasicOps
	Ping(ctx context.Context) error
	Close() error
}
