package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
)

func testPolicy(delays *[]time.Duration) *Policy {
	return &Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxJitter:   200 * time.Millisecond,
		sleep: func(ctx context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		},
		rand: func() float64 { return 0.5 },
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	// Arrange
	var delays []time.Duration
	policy := testPolicy(&delays)
	calls := 0

	// Act
	err := policy.Do(context.Background(), "send_message", func(ctx context.Context) error {
		calls++
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	// Arrange
	var delays []time.Duration
	policy := testPolicy(&delays)
	calls := 0

	// Act
	err := policy.Do(context.Background(), "send_message", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.FromBackendStatus("send_message", 503, "unavailable")
		}
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, delays, 2)

	// base 500ms then 1000ms, each plus half the 200ms jitter window
	assert.Equal(t, 600*time.Millisecond, delays[0])
	assert.Equal(t, 1100*time.Millisecond, delays[1])
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	// Arrange
	var delays []time.Duration
	policy := testPolicy(&delays)
	calls := 0

	// Act
	err := policy.Do(context.Background(), "create_conversation", func(ctx context.Context) error {
		calls++
		return errors.FromBackendStatus("create_conversation", 400, "bad request")
	})

	// Assert
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	// Arrange
	var delays []time.Duration
	policy := testPolicy(&delays)
	calls := 0

	// Act
	err := policy.Do(context.Background(), "send_message", func(ctx context.Context) error {
		calls++
		return errors.FromBackendStatus("send_message", 429, fmt.Sprintf("attempt %d", calls))
	})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
	assert.Contains(t, err.Error(), "attempt 3")
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	// Arrange
	policy := &Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}
	calls := 0

	// Act
	err := policy.Do(context.Background(), "send_message", func(ctx context.Context) error {
		calls++
		return errors.FromBackendStatus("send_message", 503, "unavailable")
	})

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	// Arrange
	policy := &Policy{}
	calls := 0

	// Act
	err := policy.Do(context.Background(), "send_message", func(ctx context.Context) error {
		calls++
		return nil
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
