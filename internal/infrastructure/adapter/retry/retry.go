// Package retry reruns whole operations that failed with a transient storage error.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	errs "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
)

// Config holds configuration for retry operations
type Config struct {
	MaxAttempts   int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // 0.0-1.0
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   5,
		RetryInterval: 50 * time.Millisecond,
		MaxInterval:   time.Second,
		JitterFactor:  0.2,
	}
}

// Do runs operation until it succeeds, fails with a non-transient error, the
// attempts run out or ctx is done. Each attempt must be a complete transaction.
func Do(ctx context.Context, cfg Config, operation func(ctx context.Context) error, logger coreport.Logger) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err = operation(ctx)
		if err == nil || !errs.IsTransientStorageError(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		backoff := Backoff(attempt, cfg)
		logger.Warn("Transient storage error, retrying operation", map[string]any{
			"attempt":      attempt + 1,
			"max_attempts": cfg.MaxAttempts,
			"error":        err.Error(),
			"retry_after":  backoff.String(),
		})

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("Retry canceled by context", map[string]any{
				"attempts": attempt + 1,
				"error":    ctx.Err().Error(),
			})
			return err
		}
	}

	logger.Error("All retry attempts failed", map[string]any{
		"attempts": cfg.MaxAttempts,
		"error":    err.Error(),
	})
	return err
}

// Backoff computes the delay before the next attempt: exponential, capped, with jitter
func Backoff(attempt int, cfg Config) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	backoff := cfg.RetryInterval * time.Duration(1<<uint(attempt))
	if cfg.MaxInterval > 0 && backoff > cfg.MaxInterval {
		backoff = cfg.MaxInterval
	}

	if cfg.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * cfg.JitterFactor * rand.Float64())
	}
	return backoff
}
