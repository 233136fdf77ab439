package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(408))
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(400))
	assert.False(t, IsRetryableStatus(404))
	assert.False(t, IsRetryableStatus(200))
}

func TestBackoffIsQuadratic(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, backoff(0))
	assert.Equal(t, 1200*time.Millisecond, backoff(1))
}

func TestWithRetrySucceedsWithoutRetryingOnFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsAfterNonRetryableError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := withRetry(context.Background(), func(error) bool { return false }, func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustsAllAttemptsOnPersistentRetryableError(t *testing.T) {
	calls := 0
	boom := errors.New("still failing")
	err := withRetry(context.Background(), func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, maxRetries+1, calls)
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("retryable")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
