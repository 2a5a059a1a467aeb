package retryexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipanai/jobpipeline/internal/domain"
)

func fastConfig() domain.RetryConfig {
	return domain.RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Jitter:      0.1,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e := New(fastConfig(), func(error) bool { return true })
	calls := 0
	v, err := Do(context.Background(), e, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	e := New(fastConfig(), func(error) bool { return true })
	calls := 0
	v, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestDoAbortsOnNonRetryable(t *testing.T) {
	e := New(fastConfig(), func(error) bool { return false })
	calls := 0
	_, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		calls++
		return 0, domain.ErrInvalidArgument
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDoSurfacesLastFailureAfterMaxAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	e := New(cfg, func(error) bool { return true })
	calls := 0
	_, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestClassifyRetryableAndNot(t *testing.T) {
	assert.True(t, Classify(domain.ErrUpstreamTimeout))
	assert.True(t, Classify(domain.ErrRateLimited))
	assert.False(t, Classify(domain.ErrInvalidArgument))
	assert.False(t, Classify(domain.ErrNotFound))
	assert.False(t, Classify(nil))
}

func TestOnRetryCallback(t *testing.T) {
	e := New(fastConfig(), func(error) bool { return true })
	var attempts []int
	e.OnRetry(func(attempt int, err error, delay float64) {
		attempts = append(attempts, attempt)
	})
	calls := 0
	_, err := Do(context.Background(), e, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("retry me")
		}
		return 1, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, attempts)
}
