package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface. A nil Limiter
// never blocks.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter of r tokens per second with burst b.
// A non-positive rate yields nil (unlimited).
func NewLimiter(r float64, b int) *Limiter {
	if r <= 0 {
		return nil
	}
	if b < 1 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil {
		return ctx.Err()
	}
	return l.inner.WaitN(ctx, n)
}
