// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes how often and how long to retry.
type Policy struct {
	Attempts int           // total tries including the first
	Initial  time.Duration // delay before the first retry
	Max      time.Duration // delay ceiling
	Jitter   float64       // +/- fraction applied to each delay
}

// Default is suitable for short lock-conflict retries.
var Default = Policy{
	Attempts: 3,
	Initial:  25 * time.Millisecond,
	Max:      250 * time.Millisecond,
	Jitter:   0.2,
}

// Do invokes fn until it succeeds, the attempt budget is spent, or ctx
// is cancelled. The last error is returned. If retryable is non-nil,
// an error it rejects stops the loop immediately.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.Initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.jittered(delay)):
			}
			delay *= 2
			if p.Max > 0 && delay > p.Max {
				delay = p.Max
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
	}
	return err
}

func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 {
		return d
	}
	f := (rand.Float64()*2 - 1) * p.Jitter
	out := time.Duration(float64(d) * (1 + f))
	if out < 0 {
		return 0
	}
	return out
}
