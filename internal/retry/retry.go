// apps/go-server/internal/retry/retry.go
//
// Bounded retry policy used for upstream imagery lookups and round starts.
//
//   - Attempts caps how many times fn runs.
//   - Backoff decides the pause after a failed attempt (nil means no pause).
//   - Sleep is injectable so tests never wait on the wall clock.
//   - Permanent(err) stops the loop early; context cancellation always does.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped into the error returned once every attempt failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy describes a bounded retry loop.
type Policy struct {
	Attempts int
	Backoff  func(attempt int) time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
}

// Constant returns a backoff that always waits d.
func Constant(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err}
}

// Do runs fn until it succeeds, returns a permanent error, the context ends,
// or Attempts runs have failed. attempt is 1-based.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	n := p.Attempts
	if n < 1 {
		n = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last error
	for attempt := 1; attempt <= n; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		last = err
		if attempt < n && p.Backoff != nil {
			if d := p.Backoff(attempt); d > 0 {
				if err := sleep(ctx, d); err != nil {
					return err
				}
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, n, last)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
