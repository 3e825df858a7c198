package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rdtagger/pkg/errors"
	"rdtagger/pkg/logger"
)

// recordSleep returns a SleepFunc that records requested waits without sleeping
func recordSleep(waits *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var waits []time.Duration
	attempts := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(error) bool { return true },
		Sleep:       recordSleep(&waits),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, waits)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	authErr := errs.FromResponse(401, "bad token")

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return authErr
	}, &Config{MaxAttempts: 5, Backoff: &ConstantBackoff{}, RetryIf: DefaultRetryIf})

	assert.Equal(t, 1, attempts)
	assert.Same(t, authErr, err)
}

func TestThrottleConfigWaitSequence(t *testing.T) {
	var waits []time.Duration
	log := logger.NewTestLogger()
	cfg := ThrottleConfig(3, 10*time.Second, log)
	cfg.Sleep = recordSleep(&waits)

	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errs.FromResponse(429, "slow down")
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}, waits)
	assert.True(t, errs.IsThrottling(err), "exhaustion error should still expose the 429")
	assert.Equal(t, 429, errs.StatusCode(err))
	assert.True(t, log.HasMessage("max retry attempts exceeded"))
}

func TestThrottleConfigRecoversAfterTwoThrottles(t *testing.T) {
	var waits []time.Duration
	cfg := ThrottleConfig(3, 10*time.Second, nil)
	cfg.Sleep = recordSleep(&waits)

	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return errs.FromResponse(429, "")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, waits)
}

func TestThrottleConfigDoesNotRetryServerErrors(t *testing.T) {
	cfg := ThrottleConfig(3, time.Second, nil)
	cfg.Sleep = func(context.Context, time.Duration) error {
		t.Fatal("should not wait")
		return nil
	}

	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errs.FromResponse(503, "")
	}, cfg)

	assert.Equal(t, 1, attempts)
	assert.Equal(t, 503, errs.StatusCode(err))
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(ctx context.Context) error {
		return errs.FromResponse(429, "")
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		RetryIf:     errs.IsThrottling,
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errs.FromResponse(429, "")
		}
		return "ok", nil
	}, &Config{
		MaxAttempts: 2,
		Backoff:     &ConstantBackoff{},
		RetryIf:     errs.IsThrottling,
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestWaitRespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Wait(ctx, time.Minute)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, Wait(context.Background(), 0))
}
