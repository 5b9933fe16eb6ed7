package util

import (
	"context"
	"errors"
	"time"
)

// Backoff returns the pause before retry n, starting at 1.
type Backoff func(n int) time.Duration

func NoBackoff(int) time.Duration { return 0 }

// ExponentialBackoff doubles base on every retry up to max.
func ExponentialBackoff(base, max time.Duration) Backoff {
	return func(n int) time.Duration {
		d := base
		for i := 1; i < n && d < max; i++ {
			d *= 2
		}
		if d > max {
			d = max
		}
		return d
	}
}

// RetryErr calls fn up to maxTries times until it returns nil, or until ctx
// is done. If maxTries <= 0, it defaults to 1. Context errors returned by fn
// stop the loop immediately.
func RetryErr(ctx context.Context, maxTries int, backoff Backoff, fn func(context.Context) error) error {
	_, err := Retry(ctx, maxTries, backoff, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry calls fn up to maxTries times until it returns a nil error, or until
// ctx is done. Returns ctx.Err() if the context is canceled, otherwise the
// last error.
func Retry[T any](ctx context.Context, maxTries int, backoff Backoff, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	if backoff == nil {
		backoff = NoBackoff
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if i > 0 {
			if err := sleep(ctx, backoff(i)); err != nil {
				return zero, err
			}
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
