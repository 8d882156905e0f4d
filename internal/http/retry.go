package http

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lise-project/lise-desktop/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates authentication failure (401, 407, proxy auth)
	ErrorTypeCredential
	// ErrorTypeNetwork indicates network/connection issues (timeouts, connection refused, etc.)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors that can be retried (500, 502, 503, throttling)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that should not be retried (400, 404, invalid request)
	ErrorTypeFatal
)

// Config holds retry parameters for ExecuteWithRetry
type Config struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// OnRetry is an optional callback invoked before each retry attempt
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxRetries:   constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
	}
}

// ClassifyError determines the error type for retry strategy
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	errStr := strings.ToLower(err.Error())

	// Credential errors - retrying won't help until the user fixes proxy
	// auth, but a brief pause covers transient negotiation failures
	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "407") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "proxy authentication") {
		return ErrorTypeCredential
	}

	// Network errors - retryable with backoff
	if strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	// Server errors and rate limiting - retryable
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "server busy") ||
		strings.Contains(errStr, "service unavailable") {
		return ErrorTypeRetryable
	}

	// Client errors - don't retry (bad request, not found, conflict, etc.)
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "409") ||
		strings.Contains(errStr, "invalid") {
		return ErrorTypeFatal
	}

	// Unknown errors - treat as fatal to avoid infinite retries on unexpected errors
	return ErrorTypeFatal
}

// CalculateBackoff returns exponential backoff duration with full jitter
// Full jitter prevents thundering herd problem when many clients retry simultaneously
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	// Exponential: 2^attempt * initialDelay
	base := time.Duration(1<<uint(attempt)) * initialDelay

	// Cap at maxDelay
	if base > maxDelay {
		base = maxDelay
	}

	// Full jitter: random value between 0 and base
	return time.Duration(rand.Int63n(int64(base)))
}

// sleepCtx pauses for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExecuteWithRetry runs an operation with intelligent retry logic
//
// Retry strategy:
//   - Credential errors: Brief pause, then retry
//   - Network/Retryable errors: Exponential backoff with full jitter
//   - Fatal errors: Return immediately without retry
//   - Context cancellation: Return immediately, including mid-backoff
//
// The function will make up to config.MaxRetries attempts. If all attempts fail,
// it returns an error wrapping the last failure.
func ExecuteWithRetry(ctx context.Context, config Config, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		// Check context cancellation before each attempt
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Execute the operation
		err := operation()
		if err == nil {
			return nil // Success!
		}

		lastErr = err

		// Classify the error to determine retry strategy
		errType := ClassifyError(err)

		switch errType {
		case ErrorTypeSuccess:
			return nil

		case ErrorTypeFatal:
			// Don't retry fatal errors (bad request, not found, etc.)
			return err

		case ErrorTypeCredential:
			if attempt < config.MaxRetries-1 {
				if config.OnRetry != nil {
					config.OnRetry(attempt+1, err, errType)
				}
				if serr := sleepCtx(ctx, 1*time.Second); serr != nil {
					return serr
				}
				continue
			}
			return fmt.Errorf("credential error after %d attempts: %w", config.MaxRetries, err)

		case ErrorTypeNetwork, ErrorTypeRetryable:
			// Network or server errors - use exponential backoff
			if attempt < config.MaxRetries-1 {
				backoff := CalculateBackoff(attempt, config.InitialDelay, config.MaxDelay)
				if config.OnRetry != nil {
					config.OnRetry(attempt+1, err, errType)
				}
				if serr := sleepCtx(ctx, backoff); serr != nil {
					return serr
				}
				continue
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries, lastErr)
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
