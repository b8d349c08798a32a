package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoAttempts = errors.New("no attempts configured")

// attempt is one rung of a degradation ladder: try run, on failure move on
// to the next rung.
type attempt[T any] struct {
	name string
	run  func(context.Context) (T, error)
}

type attemptFailure struct {
	Name string
	Err  error
}

type chainError struct {
	failures []attemptFailure
}

func (e *chainError) Error() string {
	parts := make([]string, 0, len(e.failures))
	for _, f := range e.failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, f.Err))
	}
	return strings.Join(parts, "; ")
}

func (e *chainError) Unwrap() []error {
	errs := make([]error, 0, len(e.failures))
	for _, f := range e.failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// runChain returns the first successful rung's value and name. failures
// lists every rung that was tried and failed, in order, even on success.
func runChain[T any](ctx context.Context, attempts []attempt[T]) (value T, used string, failures []attemptFailure, err error) {
	tried := 0
	for _, a := range attempts {
		if a.run == nil {
			continue
		}
		tried++

		v, runErr := a.run(ctx)
		if runErr == nil {
			return v, a.name, failures, nil
		}
		failures = append(failures, attemptFailure{Name: a.name, Err: runErr})
	}

	var zero T
	if tried == 0 {
		return zero, "", nil, ErrNoAttempts
	}
	return zero, "", failures, &chainError{failures: failures}
}
