package errors

import (
	"context"
	"math"
	"math/rand"
	"time"

	"tinygpt/internal/logging"
)

// RetryConfig configures retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts  int           // retries after the first attempt
	BaseDelay    time.Duration // base delay for exponential backoff
	MaxDelay     time.Duration // ceiling for a single backoff sleep
	JitterFactor float64       // randomization factor, 0.25 = ±25%
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		JitterFactor: 0.25,
	}
}

// Retry executes fn with exponential backoff, stopping early on permanent
// errors and on context cancellation.
func Retry(ctx context.Context, config RetryConfig, logger logging.Logger, fn func(ctx context.Context) error) error {
	logger = logging.OrNop(logger)

	var lastErr error
	for attempt := 0; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("retry succeeded on attempt %d", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			logger.Warn("retries exhausted after %d attempts: %v", attempt+1, err)
			break
		}

		delay := backoffDelay(attempt, config)
		logger.Debug("attempt %d failed (%v), retrying in %v", attempt+1, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func backoffDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(2, float64(attempt))
	if config.JitterFactor > 0 {
		jitter := delay * config.JitterFactor * (2*rand.Float64() - 1)
		delay += jitter
	}
	if max := float64(config.MaxDelay); config.MaxDelay > 0 && delay > max {
		delay = max
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
