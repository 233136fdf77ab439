package provider

import (
	"context"
	"fmt"
	"time"
)

const (
	callTimeout = 30 * time.Second
	maxRetries  = 2
)

// IsRetryableStatus reports whether an HTTP status code should be retried:
// request timeout, rate limiting, or any server error.
func IsRetryableStatus(statusCode int) bool {
	return statusCode == 408 || statusCode == 429 || statusCode >= 500
}

// backoff is the quadratic retry delay for the (n+1)th retry attempt,
// 0-indexed: 300ms, 1200ms for n = 0, 1.
func backoff(n int) time.Duration {
	return time.Duration(300*(n+1)*(n+1)) * time.Millisecond
}

// withRetry wraps call with a 30s per-attempt timeout and up to maxRetries
// additional attempts (all sharing the same request body) whenever
// isRetryable classifies the failure as transient. ctx cancellation aborts
// immediately, including mid-backoff.
func withRetry(ctx context.Context, isRetryable func(error) bool, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err := call(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxRetries || !isRetryable(err) {
			return fmt.Errorf("provider call failed after %d attempt(s): %w", attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return lastErr
}
