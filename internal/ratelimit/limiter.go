// Package ratelimit enforces the catalog provider's request budget.
package ratelimit

import (
	"context"
	"time"
)

// safetyMargin is added when sleeping until the oldest request exits the
// window, so a wakeup at the exact boundary never lands one tick early.
const safetyMargin = 50 * time.Millisecond

// Limiter enforces a sliding request-count window plus a minimum delay
// between consecutive requests. It is meant for a single sequential job
// loop, not for unbounded concurrent callers.
type Limiter struct {
	maxRequests int
	window      time.Duration
	minDelay    time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	history []time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets a custom time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleep sets a custom sleep function (for testing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// New creates a limiter allowing maxRequests per window with at least
// minDelay between consecutive requests.
func New(maxRequests int, window, minDelay time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		minDelay:    minDelay,
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until one more request may be issued, then records it.
// The new timestamp is recorded only after any sleep completes, so the
// window accounting always reflects actual send times.
func (l *Limiter) Acquire(ctx context.Context) error {
	now := l.now()

	// Drop timestamps that have left the window.
	cutoff := now.Add(-l.window)
	kept := l.history[:0]
	for _, t := range l.history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.history = kept

	// At capacity: wait for the oldest request to exit the window.
	if len(l.history) >= l.maxRequests {
		oldest := l.history[0]
		wait := oldest.Add(l.window).Sub(now) + safetyMargin
		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		now = l.now()
	}

	// Enforce minimum spacing from the previous request.
	if n := len(l.history); n > 0 && l.minDelay > 0 {
		elapsed := now.Sub(l.history[n-1])
		if elapsed < l.minDelay {
			if err := l.sleep(ctx, l.minDelay-elapsed); err != nil {
				return err
			}
			now = l.now()
		}
	}

	l.history = append(l.history, now)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
