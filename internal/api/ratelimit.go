package api

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between upstream requests.
// Callers block in Wait until their slot comes up; a nil interval
// disables pacing entirely.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a limiter that releases one request per interval.
// Non-positive intervals disable pacing.
func NewLimiter(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		return &Limiter{}
	}
	return &Limiter{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the caller may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.lim == nil {
		return ctx.Err()
	}
	return l.lim.Wait(ctx)
}
