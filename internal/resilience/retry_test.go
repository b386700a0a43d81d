package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps test backoffs negligible.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Microsecond,
		MaxBackoff:     time.Millisecond,
	}
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

func TestClassifyDeadline(t *testing.T) {
	err := Classify(context.DeadlineExceeded)
	assert.True(t, errors.Is(err, ErrCollaboratorTimeout))
	assert.True(t, IsCollaborator(err))
}

func TestClassifyPassthrough(t *testing.T) {
	wrapped := eris.Wrap(ErrCollaboratorTimeout, "already classified")
	assert.Equal(t, wrapped, Classify(wrapped))
}

func TestClassifyDefaultsToUnavailable(t *testing.T) {
	err := Classify(errors.New("connection refused"))
	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	assert.True(t, IsCollaborator(err))
}

func TestIsCollaboratorRejectsOtherErrors(t *testing.T) {
	assert.False(t, IsCollaborator(errors.New("bad insert")))
	assert.False(t, IsCollaborator(nil))
	assert.True(t, IsCollaborator(ErrCollaboratorUnavailable))
}

func TestCallSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Call(context.Background(), fastRetry(3), "test", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestCallRetriesThenSucceeds(t *testing.T) {
	calls := 0
	got, err := Call(context.Background(), fastRetry(3), "test", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("flaky upstream")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestCallExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Call(context.Background(), fastRetry(3), "test", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("always down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
}

func TestCallStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Call(ctx, fastRetry(5), "test", func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("interrupted")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallClassifiesLastError(t *testing.T) {
	_, err := Call(context.Background(), fastRetry(2), "test", func(ctx context.Context) (int, error) {
		return 0, context.DeadlineExceeded
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCollaboratorTimeout))
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 300*time.Millisecond, backoff(2, cfg))
	assert.Equal(t, 300*time.Millisecond, backoff(5, cfg))
}

func TestBackoffJitterStaysInBand(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, JitterFraction: 0.25}
	for i := 0; i < 50; i++ {
		d := backoff(0, cfg)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}
