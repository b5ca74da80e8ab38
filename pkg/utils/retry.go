package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 1.5,
	}
}

// permanentError stops Retry immediately
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs operation until it succeeds, returns a Permanent error, the
// retries run out or ctx is done. Delays grow by cfg.Multiplier per attempt.
func Retry(ctx context.Context, cfg RetryConfig, logger *logrus.Logger, name string, operation func() error) error {
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1.5
	}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt == cfg.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", name, cfg.MaxRetries, err)
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"operation": name,
				"attempt":   attempt + 1,
				"delay":     delay,
				"error":     err.Error(),
			}).Warn("Retrying operation")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil
}
