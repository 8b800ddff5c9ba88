package errors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// RetryLogger receives one line per retry decision
type RetryLogger interface {
	Printf(format string, v ...interface{})
}

// RetryConfig controls attempts and backoff
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Jitter          bool // adds up to 25% of the delay
	RetryableErrors []ErrorCode
}

// RetryableOperation is one attempt of a retried call
type RetryableOperation func() error

var retryLogger RetryLogger

// SetRetryLogger installs the logger used by every retry loop; nil silences it
func SetRetryLogger(logger RetryLogger) {
	retryLogger = logger
}

func retryLogf(format string, v ...interface{}) {
	if retryLogger != nil {
		retryLogger.Printf(format, v...)
	}
}

// DefaultRetryConfig is used for upstream HTTP calls
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeNetwork,
			ErrCodeTimeout,
			ErrCodeConnection,
			ErrCodeBusy,
		},
	}
}

// quickRetryConfig suits local storage calls: one extra attempt on lock contention
func quickRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     2,
		InitialDelay:    50 * time.Millisecond,
		MaxDelay:        500 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: []ErrorCode{ErrCodeBusy, ErrCodeTimeout},
	}
}

// WithRetry runs operation until it succeeds, fails permanently or attempts run out
func WithRetry(ctx context.Context, config *RetryConfig, operation RetryableOperation) error {
	return WithRetryContext(ctx, config, operation, "")
}

// WithRetryContext is WithRetry with an operation name for log lines and errors
func WithRetryContext(ctx context.Context, config *RetryConfig, operation RetryableOperation, name string) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if name == "" {
		name = "anonymous"
	}
	attempts := max(config.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("operation '%s' cancelled: %w", name, err)
		}

		lastErr = operation()
		switch {
		case lastErr == nil:
			if attempt > 1 {
				retryLogf("operation '%s' succeeded on attempt %d", name, attempt)
			}
			return nil
		case !config.allows(lastErr):
			return lastErr
		case attempt == attempts:
			continue
		}

		wait := config.backoff(attempt - 1)
		retryLogf("operation '%s' attempt %d/%d failed, next in %v: %v", name, attempt, attempts, wait, lastErr)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("operation '%s' cancelled during backoff: %w", name, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", name, attempts, lastErr)
}

// RetryQuick retries busy or timed-out storage calls once
func RetryQuick(ctx context.Context, operation RetryableOperation) error {
	return WithRetry(ctx, quickRetryConfig(), operation)
}

// allows reports whether err is an AppError whose code the config retries
func (c *RetryConfig) allows(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) || !appErr.IsRetryable() {
		return false
	}
	return slices.Contains(c.RetryableErrors, appErr.Code)
}

// backoff is InitialDelay * BackoffFactor^n, optionally jittered, capped at MaxDelay
func (c *RetryConfig) backoff(n int) time.Duration {
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(n)))
	if c.Jitter && delay >= 4 {
		delay += rand.N(delay / 4)
	}
	return min(delay, c.MaxDelay)
}
