package retry

import (
	"context"
	"errors"
	"time"
)

// Policy is a bounded retry with linear back-off: after the i-th failed
// attempt the caller waits i*BaseDelay before trying again.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Default matches what most provider calls need.
var Default = Policy{Attempts: 3, BaseDelay: 500 * time.Millisecond}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the inner error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// used up, or ctx is done. The last error from fn is returned, joined with
// ctx.Err() when ctx ended the loop.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var err error
	for i := 1; i <= attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, errors.Join(err, ctxErr)
		}

		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if i == attempts {
			break
		}

		select {
		case <-time.After(time.Duration(i) * p.BaseDelay):
		case <-ctx.Done():
			return zero, errors.Join(err, ctx.Err())
		}
	}
	return zero, err
}
