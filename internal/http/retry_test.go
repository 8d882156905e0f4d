package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestExecuteWithRetry_Success verifies basic success case returns nil on first attempt.
func TestExecuteWithRetry_Success(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_FatalError verifies no retry on fatal errors.
func TestExecuteWithRetry_FatalError(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("400 bad request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on fatal), got %d", calls)
	}
}

// TestExecuteWithRetry_NetworkThenSuccess verifies network errors are retried
// until the operation recovers.
func TestExecuteWithRetry_NetworkThenSuccess(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
	}

	calls := 0
	var retries []int
	cfg.OnRetry = func(attempt int, err error, errType ErrorType) {
		retries = append(retries, attempt)
		if errType != ErrorTypeNetwork {
			t.Errorf("OnRetry errType = %v, want ErrorTypeNetwork", errType)
		}
	}

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial tcp 127.0.0.1:8000: connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error after recovery, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retries) != 2 {
		t.Errorf("expected 2 OnRetry callbacks, got %d", len(retries))
	}
}

// TestExecuteWithRetry_ContextCancelledDuringSleep verifies retry returns quickly when context cancelled.
func TestExecuteWithRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second, // Long backoff to ensure we'd be sleeping
		MaxDelay:     30 * time.Second,
	}

	calls := 0
	start := time.Now()

	// Cancel context after a short delay (while retry is sleeping)
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("connection reset") // Network error, triggers backoff
	})

	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Should return quickly (within ~200ms), not wait for full backoff
	if elapsed > 1*time.Second {
		t.Errorf("expected quick return after context cancel, but took %v", elapsed)
	}

	// Should have attempted at least once
	if calls < 1 {
		t.Errorf("expected at least 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_InsufficientDeadline verifies early exit when deadline < backoff.
func TestExecuteWithRetry_InsufficientDeadline(t *testing.T) {
	// Set a deadline that's shorter than any reasonable backoff
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 5 * time.Second, // Backoff will exceed deadline
		MaxDelay:     30 * time.Second,
	}

	calls := 0
	start := time.Now()

	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("timeout") // Network error, triggers backoff
	})

	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// Should return quickly, not wait for full backoff
	if elapsed > 1*time.Second {
		t.Errorf("expected quick return due to insufficient deadline, but took %v", elapsed)
	}

	// Should have attempted at least once
	if calls < 1 {
		t.Errorf("expected at least 1 call, got %d", calls)
	}
}

// TestClassifyError verifies error strings map to the right retry class.
func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"), ErrorTypeNetwork},
		{"io timeout", errors.New("read tcp: i/o timeout"), ErrorTypeNetwork},
		{"no such host", errors.New("dial tcp: lookup orch.lab: no such host"), ErrorTypeNetwork},
		{"bad gateway", errors.New("unexpected status 502 Bad Gateway"), ErrorTypeRetryable},
		{"too many requests", errors.New("429 too many requests"), ErrorTypeRetryable},
		{"proxy auth", errors.New("407 Proxy Authentication Required"), ErrorTypeCredential},
		{"unauthorized", errors.New("registration rejected: unauthorized"), ErrorTypeCredential},
		{"conflict", errors.New("unexpected status 409 Conflict"), ErrorTypeFatal},
		{"not found", errors.New("unexpected status 404 Not Found"), ErrorTypeFatal},
		{"unknown", errors.New("something odd happened"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, ErrorTypeName(got), ErrorTypeName(tt.want))
			}
		})
	}
}

// TestCalculateBackoff verifies jittered backoff stays within bounds.
func TestCalculateBackoff(t *testing.T) {
	if got := CalculateBackoff(0, time.Second, time.Minute); got != 0 {
		t.Errorf("CalculateBackoff(0) = %v, want 0", got)
	}

	for attempt := 1; attempt <= 8; attempt++ {
		got := CalculateBackoff(attempt, 200*time.Millisecond, 15*time.Second)
		if got < 0 || got >= 15*time.Second {
			t.Errorf("CalculateBackoff(%d) = %v, want in [0, 15s)", attempt, got)
		}
	}
}
