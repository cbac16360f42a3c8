// Package retry provides a bounded fixed-delay retry combinator for calls
// against eventually-consistent external APIs.
package retry

import (
	"context"
	"time"
)

// Do invokes fn up to attempts times, sleeping delay between failed
// attempts. It returns the first successful result or the last error once
// the attempts are exhausted. Cancelling the context aborts the wait.
func Do[T any](ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var err error
	for i := 0; i < attempts; i++ {
		var out T
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, err
}
