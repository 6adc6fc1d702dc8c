package marketdata

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most budget calls per rolling window. All upstream
// provider calls are serialized through one Limiter so the whole
// process respects the provider's request budget.
type Limiter struct {
	mu     sync.Mutex
	budget int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter admitting budget calls per window.
func NewLimiter(budget int, window time.Duration) *Limiter {
	return &Limiter{
		budget: budget,
		window: window,
		now:    time.Now,
	}
}

// Acquire blocks until a slot frees up or ctx is done. Callers bound
// the wait with a context deadline; a blocked caller never hangs past
// it.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	_, ok := l.tryAcquire()
	return ok
}

// tryAcquire takes a slot if one is free, otherwise returns how long
// until the oldest in-window call expires.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	live := l.stamps[:0]
	for _, s := range l.stamps {
		if s.After(cutoff) {
			live = append(live, s)
		}
	}
	l.stamps = live

	if len(l.stamps) < l.budget {
		l.stamps = append(l.stamps, now)
		return 0, true
	}
	return l.stamps[0].Sub(cutoff), false
}
