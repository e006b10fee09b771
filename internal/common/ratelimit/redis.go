package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/cache"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
)

const defaultRedisTimeout = 200 * time.Millisecond

// RedisLimiter enforces a fixed window shared by every instance through Redis.
type RedisLimiter struct {
	cache   cache.BasicOps
	prefix  string
	max     int
	window  time.Duration
	timeout time.Duration
}

// NewRedisLimiter allows max requests per key in each window.
func NewRedisLimiter(cacheClient cache.BasicOps, prefix string, max int, window, timeout time.Duration) *RedisLimiter {
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{cache: cacheClient, prefix: prefix, max: max, window: window, timeout: timeout}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.cache == nil {
		return Result{}, pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	if l.max <= 0 {
		return Result{Allowed: true}, nil
	}

	ctxCache, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	fullKey := fmt.Sprintf("%s:%s", l.prefix, key)
	acquired, err := l.cache.SetNX(ctxCache, fullKey, 1, l.window)
	if err != nil {
		return Result{}, pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	count := int64(1)
	ttl := l.window
	if !acquired {
		count, err = l.cache.Incr(ctxCache, fullKey)
		if err != nil {
			return Result{}, pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
		}
		current, ttlErr := l.cache.TTL(ctxCache, fullKey)
		switch {
		case ttlErr == nil && current <= 0:
			// a key left without expiry would block the client forever
			_ = l.cache.Expire(ctxCache, fullKey, l.window)
		case ttlErr == nil:
			ttl = current
		}
	}
	return Result{
		Allowed:    count <= int64(l.max),
		Limit:      l.max,
		Remaining:  remaining(l.max, count),
		ResetAfter: ttl,
	}, nil
}

var _ Limiter = (*RedisLimiter)(nil)
