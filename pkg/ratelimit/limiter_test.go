package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d should be available", i+1)
	}
	assert.False(t, tb.Allow(), "bucket should be exhausted")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, tb.Allow(), "bucket should refill")

	tb.tokens = 0
	tb.Reset()
	assert.Equal(t, tb.capacity, tb.tokens)
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	assert.True(t, l.Allow())
	assert.NoError(t, l.Wait(context.Background()))
}

// fakeClock advances its time whenever Sleep is called
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestThrottleFirstDownloadDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	throttle := NewThrottleWithClock(5*time.Second, clock)

	require.NoError(t, throttle.Wait(context.Background()))
	assert.Empty(t, clock.sleeps)
	assert.Zero(t, throttle.Remaining())
}

func TestThrottleBackToBackDownloadsAreSpaced(t *testing.T) {
	clock := newFakeClock()
	throttle := NewThrottleWithClock(5*time.Second, clock)

	throttle.Mark()
	end := clock.Now()

	clock.Advance(1 * time.Second)
	assert.Equal(t, 4*time.Second, throttle.Remaining())

	require.NoError(t, throttle.Wait(context.Background()))
	start := clock.Now()

	assert.Equal(t, []time.Duration{4 * time.Second}, clock.sleeps)
	assert.GreaterOrEqual(t, start.Sub(end), 5*time.Second)
}

func TestThrottleNoDelayWhenGapAlreadyElapsed(t *testing.T) {
	clock := newFakeClock()
	throttle := NewThrottleWithClock(5*time.Second, clock)

	throttle.Mark()
	clock.Advance(10 * time.Second)

	require.NoError(t, throttle.Wait(context.Background()))
	assert.Empty(t, clock.sleeps)
}

func TestThrottleZeroDelayDisabled(t *testing.T) {
	clock := newFakeClock()
	throttle := NewThrottleWithClock(0, clock)

	throttle.Mark()
	require.NoError(t, throttle.Wait(context.Background()))
	assert.Empty(t, clock.sleeps)
}

func TestThrottleRealClock(t *testing.T) {
	throttle := NewThrottle(50 * time.Millisecond)
	throttle.Mark()

	start := time.Now()
	require.NoError(t, throttle.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestThrottleWaitCancelled(t *testing.T) {
	throttle := NewThrottle(time.Hour)
	throttle.Mark()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, throttle.Wait(ctx), context.Canceled)
}
