package retry

import (
	"context"
	"time"
)

const defaultMaxDelay = 2 * time.Second

// Config bounds a retry loop. Attempts run sequentially, never in parallel,
// with a linear backoff: delay before attempt n+1 = min(InitialDelay*n, MaxDelay).
// The loop gives up once MaxElapsed wall-clock time has passed; a started
// attempt is allowed to finish, so total time is bounded by MaxElapsed plus
// one attempt's duration.
type Config struct {
	MaxElapsed   time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// ShouldRetry decides whether an attempt error is retryable.
	// nil means every error is retried until the budget runs out.
	ShouldRetry func(error) bool
}

// Do runs op until it succeeds or the budget is exhausted. On exhaustion the
// last observed error is returned. A non-retryable error aborts immediately.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	var zero T

	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	start := time.Now()

	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return zero, err
		}

		delay := time.Duration(attempt) * cfg.InitialDelay
		if delay > maxDelay {
			delay = maxDelay
		}
		if time.Since(start)+delay >= cfg.MaxElapsed {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
