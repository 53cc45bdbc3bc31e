package service

import (
	"context"
	"time"
)

// withRetry runs op up to attempts times, doubling the delay between
// attempts starting from baseDelay. The wait respects context cancellation.
// The last error is returned once attempts are exhausted.
func withRetry(ctx context.Context, attempts int, baseDelay time.Duration, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := baseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		if err = op(ctx); err == nil {
			return nil
		}
	}
	return err
}
