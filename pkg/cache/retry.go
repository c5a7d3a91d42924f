package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for remote backends.
var (
	// ErrNetwork is returned when a remote cache or store cannot be reached.
	ErrNetwork = errors.New("network error")

	// ErrClosed is returned when a backend is used after Close.
	ErrClosed = errors.New("backend closed")
)

// RetryableError marks a failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable marks err as retryable. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is a retry policy: up to Attempts calls, sleeping Delay before
// the second and doubling the sleep after each further failure, capped at
// Max.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	Max      time.Duration
}

// DefaultBackoff is used by [RetryWithBackoff], and so by the Redis cache
// and the Mongo library store.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 250 * time.Millisecond, Max: 2 * time.Second}

// Do calls fn until it succeeds, returns an error not marked retryable, or
// the attempts run out. Waiting stops early when ctx is done.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt >= b.Attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if delay *= 2; b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
}

// RetryWithBackoff runs fn under [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}
