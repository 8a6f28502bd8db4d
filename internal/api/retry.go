package api

import (
	"context"
	"math"
	"time"

	"github.com/pryvon/mailtm-go/internal/apierrors"
)

// RetryPolicy configures retry behavior for failed HTTP requests.
// It is immutable after construction.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay grows per attempt.
	Multiplier float64
	// RetryableOn determines whether a status code is transient.
	RetryableOn func(statusCode int) bool
}

// DefaultRetryPolicy returns the default retry configuration.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		RetryableOn: apierrors.Retryable,
	}
}

// ShouldRetry reports whether another attempt may follow the given
// 1-indexed attempt for the given status code.
func (p *RetryPolicy) ShouldRetry(attempt int, statusCode int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return p.RetryableOn(statusCode)
}

// Delay returns the backoff before attempt n+1, where attempt is the
// 1-indexed attempt that just failed: BaseDelay * Multiplier^(n-1),
// capped at MaxDelay.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// Wait sleeps for the backoff delay, honoring context cancellation so a
// caller can abandon a retry sequence.
func (p *RetryPolicy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
