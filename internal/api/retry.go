package api

import (
	"context"
	"errors"
	"time"
)

// attemptFunc runs one attempt of a request and returns a classified error.
type attemptFunc[T any] func(ctx context.Context) (T, error)

// doWithRetry executes attempts under the given retry policy. Every
// failure is retryable except caller cancellation; the last error is
// surfaced once attempts are exhausted.
func doWithRetry[T any](ctx context.Context, retry *RetryConfig, fn attemptFunc[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, errors.Join(ErrCancelled, err)
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if retry == nil || attempt >= retry.MaxRetries || errors.Is(err, ErrCancelled) {
			return zero, lastErr
		}

		if sleepErr := sleep(ctx, retry.Backoff); sleepErr != nil {
			return zero, lastErr
		}
	}
}

// sleep waits for the backoff duration, respecting context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
