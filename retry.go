package transcache

import (
	"context"
	"errors"
	"time"
)

// WordTranslator is the upstream translation provider contract: given a
// batch of words, return their translations in the same order.
type WordTranslator interface {
	Translate(ctx context.Context, words []string, sourceLang, targetLang string) ([]string, error)
}

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// Check context before each attempt
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return false
}

// RetryableTranslator wraps a WordTranslator with retry logic.
type RetryableTranslator struct {
	translator WordTranslator
	config     RetryConfig
}

// NewRetryableTranslator creates a translator with retry logic.
func NewRetryableTranslator(translator WordTranslator, cfg RetryConfig) *RetryableTranslator {
	return &RetryableTranslator{
		translator: translator,
		config:     cfg,
	}
}

// Translate implements WordTranslator with retry logic.
func (t *RetryableTranslator) Translate(ctx context.Context, words []string, sourceLang, targetLang string) ([]string, error) {
	return WithRetry(ctx, t.config, func() ([]string, error) {
		return t.translator.Translate(ctx, words, sourceLang, targetLang)
	})
}
