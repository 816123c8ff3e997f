package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// RetryableError marks a transient failure (network error, 5xx, 429) that
// [Retry] should attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. A nil error stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped by [Retryable].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy controls [Retry].
type Policy struct {
	// Attempts is the total number of calls, at least 1.
	Attempts int

	// Delay is the wait before the first retry; it doubles after each
	// further failure.
	Delay time.Duration

	// Clock times the waits; nil means the real clock.
	Clock clockwork.Clock
}

// DefaultPolicy makes 3 attempts, waiting 1s then 2s.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Retry calls fn until it succeeds, returns an error not wrapped by
// [Retryable], or the attempts run out. It returns the last error, or
// ctx.Err() when cancelled while waiting.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is [Retry] with [DefaultPolicy].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultPolicy, fn)
}
