// Package backoff computes capped exponential retry delays for consumer
// redelivery and outbox relay attempts.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

const maxShift = 62

// Policy describes a capped exponential schedule.
// Attempt 1 waits Base, attempt 2 waits 2*Base, and so on up to Max.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool
}

// Delay returns the wait before retrying after the given 1-based attempt.
// With Jitter the result is drawn from [d/2, d).
func (p Policy) Delay(attempt int) time.Duration {
	delay := Exponential(p.Base, attempt-1)
	if p.Max > 0 && delay > p.Max {
		delay = p.Max
	}
	if p.Jitter && delay > 1 {
		half := delay / 2
		delay = half + time.Duration(rand.Int64N(int64(delay-half)))
	}
	return delay
}

// Exponential returns base * 2^shift, saturating instead of overflowing.
func Exponential(base time.Duration, shift int) time.Duration {
	if base <= 0 {
		return 0
	}
	if shift < 0 {
		shift = 0
	} else if shift > maxShift {
		shift = maxShift
	}

	multiplier := int64(1) << shift
	if int64(base) > math.MaxInt64/multiplier {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(int64(base) * multiplier)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
