// Package retry runs idempotent operations with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Config struct {
	// MaxRetries is the number of attempts after the first one. Zero disables retrying.
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
	// JitterFraction spreads each delay by +/- this fraction of itself.
	JitterFraction float64 `yaml:"jitter" json:"jitter"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("retry.max_retries must be >= 0")
	case c.MaxRetries > 0 && c.InitialBackoff <= 0:
		return fmt.Errorf("retry.initial_backoff must be > 0")
	case c.MaxBackoff < c.InitialBackoff:
		return fmt.Errorf("retry.max_backoff must be >= retry.initial_backoff")
	case c.Multiplier < 1:
		return fmt.Errorf("retry.multiplier must be >= 1")
	case c.JitterFraction < 0 || c.JitterFraction > 1:
		return fmt.Errorf("retry.jitter must be within [0, 1]")
	}
	return nil
}

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// Permanent marks err as not retryable for the default classifier.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// IsRetryable is the default classifier. Context errors and errors wrapped with
// Permanent are final; everything else is retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p *permanentError
	return !errors.As(err, &p)
}

// Do calls fn until it succeeds, fails permanently, ctx ends, or cfg.MaxRetries is used up.
// onRetry, when non-nil, is told about each failed attempt before the backoff sleep.
func Do(ctx context.Context, cfg Config, classify Classifier, onRetry func(attempt int, wait time.Duration, err error), fn func(context.Context) error) error {
	if classify == nil {
		classify = IsRetryable
	}

	var lastErr error
	backoff := cfg.InitialBackoff
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classify(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		wait := backoff + jitter(backoff, cfg.JitterFraction)
		if cfg.MaxBackoff > 0 && wait > cfg.MaxBackoff {
			wait = cfg.MaxBackoff
		}
		if onRetry != nil {
			onRetry(attempt+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	if cfg.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", cfg.MaxRetries, lastErr)
}

func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return 0
	}
	span := float64(d) * fraction
	return time.Duration((rand.Float64() - 0.5) * 2 * span)
}
