package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Config{
		MaxElapsed:   time.Second,
		InitialDelay: time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls, "no further attempt after success")
}

func TestDoStopsRetryingOnceSuccessful(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Config{
		MaxElapsed:   time.Second,
		InitialDelay: time.Millisecond,
	}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorOnExhaustion(t *testing.T) {
	attempt := 0
	start := time.Now()
	_, err := Do(context.Background(), Config{
		MaxElapsed:   50 * time.Millisecond,
		InitialDelay: 5 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		attempt++
		return 0, errors.New("boom " + string(rune('0'+attempt)))
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	// Wall clock stays within budget plus slack for the final attempt
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.GreaterOrEqual(t, attempt, 2)
}

func TestDoNonRetryableErrorAbortsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, err := Do(context.Background(), Config{
		MaxElapsed:   time.Second,
		InitialDelay: time.Millisecond,
		ShouldRetry:  func(err error) bool { return !errors.Is(err, fatal) },
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoLinearBackoffIsCapped(t *testing.T) {
	var gaps []time.Duration
	last := time.Now()
	calls := 0
	_, err := Do(context.Background(), Config{
		MaxElapsed:   250 * time.Millisecond,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		now := time.Now()
		if calls > 0 {
			gaps = append(gaps, now.Sub(last))
		}
		last = now
		calls++
		return 0, errors.New("nope")
	})

	assert.Error(t, err)
	// delay schedule: 20ms, 40ms, 40ms, ... (capped at MaxDelay)
	if assert.GreaterOrEqual(t, len(gaps), 2) {
		assert.GreaterOrEqual(t, gaps[0], 20*time.Millisecond)
		for _, g := range gaps {
			assert.Less(t, g, 80*time.Millisecond)
		}
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, Config{
		MaxElapsed:   5 * time.Second,
		InitialDelay: 100 * time.Millisecond,
	}, func(ctx context.Context) (int, error) {
		return 0, errors.New("still failing")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
