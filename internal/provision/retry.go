package provision

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetryExhausted is returned when every attempt failed with a retryable error.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Backoff yields the pause before the next attempt, given the number of the
// attempt that just failed (starting at 1).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// FixedBackoff waits the same interval after every failure.
type FixedBackoff struct {
	Interval time.Duration
}

func (b FixedBackoff) Delay(int) time.Duration { return b.Interval }

// ExponentialBackoff doubles Base after each failure, capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Retrier runs an operation up to MaxAttempts times, sleeping between
// attempts only when the failure is classified as retryable.
//
// The bound does not distinguish "propagation still pending" from
// "propagation will never succeed"; both end in ErrRetryExhausted.
type Retrier struct {
	MaxAttempts int
	Backoff     Backoff
	// Sleep defaults to a context-aware timer. Tests substitute a recorder.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetrier is the workspace-creation policy: 10 attempts, 2s apart.
func DefaultRetrier() Retrier {
	return Retrier{
		MaxAttempts: 10,
		Backoff:     FixedBackoff{Interval: 2 * time.Second},
	}
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempt budget runs out.
func (r Retrier) Do(ctx context.Context, retryable func(error) bool, op func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if r.Backoff != nil {
			delay = r.Backoff.Delay(attempt)
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
