// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

type Operation func(ctx context.Context) error

type Config struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxJitter    time.Duration

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxJitter:    250 * time.Millisecond,
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or runs out of
// attempts. Only errors wrapped with Retryable are retried.
func Do(ctx context.Context, op Operation, cfg Config) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delayFor(attempt, cfg))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("operation cancelled during backoff: %w", ctx.Err())
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt+1 < attempts && cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

func delayFor(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.MaxJitter > 0 {
		delay += float64(cfg.MaxJitter) * rand.Float64()
	}
	return time.Duration(delay)
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}
