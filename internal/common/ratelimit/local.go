package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepThreshold = 10000

// LocalLimiter keeps one token bucket per key in process memory.
// The bucket refills max tokens per window and starts full.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows max requests per key in each window.
func NewLocalLimiter(max int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*bucket),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l.max <= 0 || l.window <= 0 {
		return Result{Allowed: true}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= sweepThreshold {
			l.sweep(now)
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.max)), l.max)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	return Result{
		Allowed:    allowed,
		Limit:      l.max,
		Remaining:  int(b.limiter.TokensAt(now)),
		ResetAfter: l.window,
	}, nil
}

// sweep drops buckets idle for a whole window; they would be full again anyway.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.window {
			delete(l.buckets, key)
		}
	}
}

var _ Limiter = (*LocalLimiter)(nil)
