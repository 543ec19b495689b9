package ai

import (
	"context"
	"log/slog"
	"time"

	"fitweek/planner/internal/apperrors"
)

// retryPolicy wraps a single AI call with bounded exponential backoff.
// Only transient failure kinds (timeout, rate limited, network) are retried;
// schema violations, auth failures and filtered content fail immediately.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryPolicy(maxAttempts int, baseDelay time.Duration) retryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

// do runs fn up to maxAttempts times. Delays double after each failed
// attempt: 0s before the first, then baseDelay, 2*baseDelay, ...
func (p retryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.baseDelay

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			slog.Warn("retrying AI call",
				"operation", op,
				"attempt", attempt,
				"delay", delay.String(),
				"error", lastErr.Error(),
			)
			if err := p.sleep(ctx, delay); err != nil {
				return apperrors.Wrap(err, apperrors.KindTimeout, "The request was cancelled while waiting to retry.")
			}
			delay *= 2
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperrors.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
