package ai

import (
	"context"
	"testing"
	"time"
)

// fakeClockBucket rigs a bucket with a manual clock; sleeping advances the
// clock instead of blocking.
func fakeClockBucket(capacity int, window time.Duration) (*TokenBucket, *int) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sleeps := 0
	b := NewTokenBucket(capacity, window)
	b.now = func() time.Time { return now }
	b.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		now = now.Add(d)
		return nil
	}
	return b, &sleeps
}

func TestTokenBucket_AllowsCapacityWithoutBlocking(t *testing.T) {
	b, sleeps := fakeClockBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire(%d) error = %v", i, err)
		}
	}
	if *sleeps != 0 {
		t.Errorf("slept %d times within capacity, want 0", *sleeps)
	}
}

func TestTokenBucket_BlocksWhenDrained(t *testing.T) {
	b, sleeps := fakeClockBucket(2, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire(%d) error = %v", i, err)
		}
	}
	// Third acquisition must wait for the window to roll, not fail.
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after drain error = %v", err)
	}
	if *sleeps == 0 {
		t.Error("expected the drained bucket to block until a token freed up")
	}
}

func TestTokenBucket_RefillsAfterWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b := NewTokenBucket(1, time.Minute)
	b.now = func() time.Time { return now }
	b.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatal("should not block after the window has rolled")
		return nil
	}

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after window error = %v", err)
	}
}

func TestTokenBucket_CancelledWhileWaiting(t *testing.T) {
	b := NewTokenBucket(1, time.Minute)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	b.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	if err := b.Acquire(context.Background()); err != context.Canceled {
		t.Fatalf("Acquire() while waiting = %v, want context.Canceled", err)
	}
}
