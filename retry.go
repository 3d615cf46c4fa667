package slotfeed

import (
	"context"
	"time"
)

// retry runs op until it succeeds or the budget is spent: maxRetries
// retries on top of the first attempt. Intermediate failures are
// discarded; when the budget runs out the last failure comes back wrapped
// in a *RetryExhaustedError carrying the stage and the attempt count.
//
// backoff is slept between attempts. A cancelled context ends the loop
// between attempts regardless of remaining budget; op is expected to honor
// the context itself while running.
func retry[T any](ctx context.Context, stage Stage, maxRetries int, backoff time.Duration, onRetry func(), op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempts := maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if onRetry != nil {
				onRetry()
			}
			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, &RetryExhaustedError{Stage: stage, Attempts: attempts, Err: lastErr}
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
