// Package retry re-runs idempotent operations that failed transiently,
// with capped exponential backoff and full jitter.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"
)

// ErrUnavailable marks a failure the remote side reported as temporary,
// such as an HTTP 502, 503 or 504.
var ErrUnavailable = errors.New("service temporarily unavailable")

// Predicate determines whether an error should be retried.
type Predicate func(error) bool

// Policy controls retry behavior.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy returns three attempts starting at 200ms.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  2 * time.Second,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. A nil predicate uses IsTransient.
func Do(ctx context.Context, p Policy, shouldRetry Predicate, fn func(ctx context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == p.Attempts || !shouldRetry(err) {
			return err
		}

		if !sleep(ctx, backoffDelay(p.BaseDelay, p.MaxDelay, attempt)) {
			return ctx.Err()
		}
	}

	return err
}

// IsTransient reports whether err is likely to go away on its own: network
// timeouts, refused or reset connections, and ErrUnavailable. A cancelled
// context is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base << (attempt - 1)
	if max > 0 && delay > max {
		delay = max
	}
	return rand.N(delay + 1)
}

func sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
