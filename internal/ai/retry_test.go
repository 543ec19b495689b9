package ai

import (
	"context"
	"testing"
	"time"

	"fitweek/planner/internal/apperrors"
)

func recordingPolicy(maxAttempts int, base time.Duration) (retryPolicy, *[]time.Duration) {
	delays := []time.Duration{}
	p := newRetryPolicy(maxAttempts, base)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return p, &delays
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	p, delays := recordingPolicy(3, 2*time.Second)

	attempts := 0
	err := p.do(context.Background(), "generate", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return apperrors.New(apperrors.KindTimeout, "slow")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Errorf("delays = %v, want %v", *delays, want)
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	p, delays := recordingPolicy(3, 2*time.Second)

	tests := []struct {
		name string
		kind apperrors.Kind
	}{
		{"invalid api key", apperrors.KindInvalidAPIKey},
		{"invalid response", apperrors.KindInvalidResponse},
		{"parse error", apperrors.KindParseError},
		{"content filtered", apperrors.KindContentFiltered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := p.do(context.Background(), "generate", func(ctx context.Context) error {
				attempts++
				return apperrors.New(tt.kind, "nope")
			})
			if apperrors.KindOf(err) != tt.kind {
				t.Errorf("kind = %q, want %q", apperrors.KindOf(err), tt.kind)
			}
			if attempts != 1 {
				t.Errorf("attempts = %d, want 1", attempts)
			}
		})
	}
	if len(*delays) != 0 {
		t.Errorf("slept %d times for non-retryable errors, want 0", len(*delays))
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	p, _ := recordingPolicy(3, time.Second)

	attempts := 0
	err := p.do(context.Background(), "generate", func(ctx context.Context) error {
		attempts++
		return apperrors.New(apperrors.KindRateLimited, "throttled")
	})
	if apperrors.KindOf(err) != apperrors.KindRateLimited {
		t.Errorf("kind = %q, want rate_limited", apperrors.KindOf(err))
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
