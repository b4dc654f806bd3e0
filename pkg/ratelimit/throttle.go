package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so the throttle can be tested without real sleeps
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error { return sleep(ctx, d) }

// Throttle enforces a minimum spacing between consecutive video downloads.
//
// The spacing is measured from the end of the previous successful download
// (Mark) to the start of the next one (Wait). A zero delay disables it.
type Throttle struct {
	mu       sync.Mutex
	minDelay time.Duration
	previous time.Time
	clock    Clock
}

// NewThrottle creates a throttle with the given minimum delay
func NewThrottle(minDelay time.Duration) *Throttle {
	return NewThrottleWithClock(minDelay, realClock{})
}

// NewThrottleWithClock creates a throttle driven by clock
func NewThrottleWithClock(minDelay time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = realClock{}
	}
	return &Throttle{minDelay: minDelay, clock: clock}
}

// Remaining returns how long the next download still has to wait
func (t *Throttle) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining()
}

func (t *Throttle) remaining() time.Duration {
	if t.minDelay <= 0 || t.previous.IsZero() {
		return 0
	}
	gap := t.clock.Now().Sub(t.previous)
	if gap < 0 || gap >= t.minDelay {
		return 0
	}
	return t.minDelay - gap
}

// Wait sleeps for whatever is left of the minimum delay.
// The lock is held while sleeping so concurrent callers queue up behind each other.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d := t.remaining(); d > 0 {
		return t.clock.Sleep(ctx, d)
	}
	return nil
}

// Mark records that a download has just finished
func (t *Throttle) Mark() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.previous = t.clock.Now()
}
