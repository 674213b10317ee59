package domain

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry schedule for transient failures.
// It is passed into the ingestion pipeline explicitly rather than
// being embedded in call sites.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// Multiplier scales the backoff after each failed attempt.
	Multiplier float64
}

// DefaultRetryPolicy retries transient embedding failures three times
// with doubling backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
	}
}

// Backoff returns the delay to wait after the given zero-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Wait sleeps for the backoff of the given attempt, honouring context
// cancellation.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Backoff(attempt)):
		return nil
	}
}
