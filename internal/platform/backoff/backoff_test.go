package backoff

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelay(t *testing.T) {
	policy := Policy{Base: 100 * time.Millisecond, Max: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 100 * time.Millisecond},
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: time.Second},
		{attempt: 60, want: time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestPolicyDelayWithJitterStaysInRange(t *testing.T) {
	policy := Policy{Base: 100 * time.Millisecond, Max: time.Second, Jitter: true}

	for i := 0; i < 100; i++ {
		got := policy.Delay(3)
		assert.GreaterOrEqual(t, got, 200*time.Millisecond)
		assert.Less(t, got, 400*time.Millisecond)
	}
}

func TestExponentialSaturates(t *testing.T) {
	assert.Equal(t, time.Duration(0), Exponential(0, 3))
	assert.Equal(t, time.Duration(math.MaxInt64), Exponential(time.Hour, 62))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, Sleep(context.Background(), 0))
}
