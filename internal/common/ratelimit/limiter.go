package ratelimit

import (
	"context"
	"time"
)

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time until the current window ends.
	ResetAfter time.Duration
}

// Limiter admits or rejects one request for key.
// An error means the decision could not be made, not that the request was rejected.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func remaining(limit int, count int64) int {
	left := int64(limit) - count
	if left < 0 {
		return 0
	}
	return int(left)
}
