package orchestrator

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a worker re-attempts a failing capability
// call. The delay is linear: the same pause between every attempt.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// DefaultRetryPolicy is the concrete bound for capability retries: one
// initial attempt plus two retries, half a second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond}
}

// Do runs fn until it succeeds, the attempt bound is exhausted, or ctx ends.
// The last error is returned; ctx errors win over attempt errors so timeouts
// surface as timeouts.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
