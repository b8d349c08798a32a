package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrStageTimeout = errors.New("stage timed out")

type TimeoutError struct {
	Label string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Label, e.After)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrStageTimeout, context.DeadlineExceeded}
}

// withTimeout races fn against a deadline. fn receives a context that is
// cancelled on expiry, so well-behaved operations abort in flight; the
// caller is released at the deadline either way.
func withTimeout[T any](ctx context.Context, label string, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{Label: label, After: d}
		}
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{Label: label, After: d}
		}
		return zero, fmt.Errorf("%s: %w", label, ctx.Err())
	}
}
