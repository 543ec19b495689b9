package ai

import (
	"context"
	"sync"
	"time"
)

// TokenBucket bounds outbound AI calls to capacity requests per rolling
// window. It is shared across every call site (generation, modification and
// chat), so a burst in one path throttles the others. Callers block rather
// than fail when the bucket is drained.
//
// The clock and sleep functions are injectable so tests can drive the bucket
// with a fake clock.
type TokenBucket struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	stamps   []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTokenBucket creates a limiter allowing capacity acquisitions per rolling
// window.
func NewTokenBucket(capacity int, window time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity: capacity,
		window:   window,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Acquire blocks until a token is available or ctx is done. It returns
// ctx.Err() when cancelled while waiting.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		wait, ok := b.tryAcquire()
		if ok {
			return nil
		}
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire records an acquisition if the window has room, otherwise
// returns how long until the oldest stamp leaves the window.
func (b *TokenBucket) tryAcquire() (wait time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	cutoff := now.Add(-b.window)

	// Drop stamps that have left the rolling window.
	kept := b.stamps[:0]
	for _, s := range b.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	b.stamps = kept

	if len(b.stamps) < b.capacity {
		b.stamps = append(b.stamps, now)
		return 0, true
	}
	return b.stamps[0].Sub(cutoff), false
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
