package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdtagger/pkg/logger"
)

// fakeClock advances only when told to, or when Sleep is called
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGovernor(clock *fakeClock) *Governor {
	return NewGovernor(DefaultConfig(), WithClock(clock), WithLogger(logger.NewNopLogger()))
}

func TestGovernorRecordsWithoutWaitingUnderLimit(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	for i := 0; i < 100; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 100, gov.State().InWindow)
}

func TestGovernorWaitsWhenWindowFull(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	// all 100 requests land on the same instant
	for i := 0; i < 100; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
	}

	require.NoError(t, gov.WaitIfNeeded(context.Background()))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 61*time.Second, clock.sleeps[0])
	assert.Equal(t, 1, gov.State().InWindow, "window is cleared then the new request recorded")
}

func TestGovernorWaitAccountsForAgeOfOldest(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	require.NoError(t, gov.WaitIfNeeded(context.Background()))
	clock.Advance(15 * time.Second)
	for i := 0; i < 99; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
	}
	clock.Advance(5 * time.Second)

	require.NoError(t, gov.WaitIfNeeded(context.Background()))

	// oldest is 20s old: 60 - 20 + 1
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 41*time.Second, clock.sleeps[0])
}

func TestGovernorPrunesAgedEntries(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	for i := 0; i < 100; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
	}
	clock.Advance(60 * time.Second)

	require.NoError(t, gov.WaitIfNeeded(context.Background()))

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 1, gov.State().InWindow)
}

func TestGovernorNeverExceedsWindow(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	var issued []time.Time
	for i := 0; i < 350; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
		issued = append(issued, clock.Now())
		clock.Advance(100 * time.Millisecond)
	}

	for i := range issued {
		inWindow := 0
		for j := i; j < len(issued) && issued[j].Sub(issued[i]) < 60*time.Second; j++ {
			inWindow++
		}
		assert.LessOrEqual(t, inWindow, 100, "window starting at request %d", i)
	}
}

func TestGovernorLowRemainingPause(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		wantPause bool
	}{
		{"below threshold", "5", true},
		{"one left", "1", true},
		{"at threshold", "10", false},
		{"exhausted", "0", false},
		{"plenty", "90", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			gov := newTestGovernor(clock)

			h := http.Header{}
			h.Set("X-RateLimit-Remaining", tt.remaining)
			gov.UpdateFromResponse(h)

			require.NoError(t, gov.WaitIfNeeded(context.Background()))

			if tt.wantPause {
				assert.Equal(t, []time.Duration{2 * time.Second}, clock.sleeps)
			} else {
				assert.Empty(t, clock.sleeps)
			}
			assert.Equal(t, 1, gov.State().InWindow)
		})
	}
}

func TestUpdateFromResponse(t *testing.T) {
	gov := newTestGovernor(newFakeClock())

	assert.Equal(t, 120, gov.State().Limit)
	assert.Equal(t, 120, gov.State().Remaining)

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "120")
	h.Set("X-RateLimit-Remaining", "42")
	h.Set("X-RateLimit-Reset", "1700000000")
	gov.UpdateFromResponse(h)

	state := gov.State()
	assert.Equal(t, 120, state.Limit)
	assert.Equal(t, 42, state.Remaining)
	assert.Equal(t, time.Unix(1700000000, 0), state.Reset)
}

func TestUpdateFromResponseAlternateSpelling(t *testing.T) {
	gov := newTestGovernor(newFakeClock())

	h := http.Header{}
	h.Set("RateLimit-Remaining", "7")
	gov.UpdateFromResponse(h)

	assert.Equal(t, 7, gov.State().Remaining)
}

func TestUpdateFromResponseIgnoresMalformed(t *testing.T) {
	gov := newTestGovernor(newFakeClock())

	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "50")
	gov.UpdateFromResponse(h)

	bad := http.Header{}
	bad.Set("X-RateLimit-Limit", "lots")
	bad.Set("X-RateLimit-Remaining", "")
	bad.Set("X-RateLimit-Reset", "soon")
	gov.UpdateFromResponse(bad)
	gov.UpdateFromResponse(nil)

	state := gov.State()
	assert.Equal(t, 120, state.Limit)
	assert.Equal(t, 50, state.Remaining)
	assert.True(t, state.Reset.IsZero())
}

func TestGovernorCancelledWait(t *testing.T) {
	clock := newFakeClock()
	gov := newTestGovernor(clock)

	for i := 0; i < 100; i++ {
		require.NoError(t, gov.WaitIfNeeded(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gov.WaitIfNeeded(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, gov.State().InWindow)
}

func TestRealClockSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, RealClock().Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, RealClock().Sleep(context.Background(), 0))
}
