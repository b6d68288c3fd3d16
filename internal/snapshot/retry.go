package snapshot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/subgraph"
)

// retryable reports whether another attempt can succeed. Query errors,
// client-side HTTP statuses and undecodable records repeat on every attempt.
func retryable(err error) bool {
	if errors.Is(err, subgraph.ErrNotConfigured) {
		return false
	}
	var gqlErr *subgraph.GraphQLError
	if errors.As(err, &gqlErr) {
		return false
	}
	var decodeErr *model.DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var statusErr *subgraph.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// withRetry runs fn until it succeeds, fails with a permanent error or has
// been retried maxRetries times. The delay doubles after every attempt.
func withRetry(ctx context.Context, logger *zap.Logger, op string, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			logger.Warn(op+" failed permanently", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		if attempt > maxRetries {
			logger.Warn(op+" retries exhausted", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		logger.Warn(op+" failed, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
