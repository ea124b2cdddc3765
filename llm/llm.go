// Package llm wraps the completion providers behind a single JSON-object
// contract: a call either yields a parsed JSON mapping or an error, never a
// raw string. Retry/backoff lives here so callers stay retry-free.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidJSON indicates the provider returned no usable completion text.
	ErrInvalidJSON = errors.New("invalid json from LLM")

	// ErrNotObject indicates the completion parsed but its top level is not a
	// JSON object. Shape failures on the top level fail the call; they are not
	// silently coerced to empty.
	ErrNotObject = errors.New("LLM completion is not a JSON object")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Client is the completion service consumed by the workflow. Implementations
// own their retry policy; callers treat a returned error as final.
type Client interface {
	// CompleteJSON sends one system+user prompt pair and returns the parsed
	// JSON object the model produced.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error)
}

// RetryConfig bounds the retry loop shared by the provider clients.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig allows three attempts with exponential backoff between
// one and eight seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
	}
}

// withRetry runs fn up to cfg.MaxAttempts times, backing off exponentially.
// A PermanentError short-circuits the loop.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var permanent *PermanentError
		if errors.As(lastErr, &permanent) {
			return lastErr
		}
	}

	return fmt.Errorf("llm call failed after %d attempts: %w", attempts, lastErr)
}

// parseObject enforces the JSON-object contract on raw completion text.
func parseObject(raw []byte) (map[string]any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, NewPermanentError(ErrNotObject)
	}
	return object, nil
}
