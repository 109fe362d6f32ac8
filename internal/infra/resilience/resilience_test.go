package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/infra/resilience"
)

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return errors.New("permanent")
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 { // initial + 2 retries
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Millisecond}
	attempts := 0
	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		attempts++
		return errors.New("should not run")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected 0 attempts with pre-cancelled context, got %d", attempts)
	}
}

func TestRetryWithBackoff_PermanentErrorNotRetried(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Millisecond}

	rejected := errors.New("invalid api key")
	attempts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		attempts++
		return resilience.Permanent(rejected)
	})

	if attempts != 1 {
		t.Errorf("expected a single attempt for a permanent error, got %d", attempts)
	}
	if !errors.Is(err, rejected) {
		t.Fatalf("expected the underlying error back, got %v", err)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")

	fail := func() (any, error) { return nil, errors.New("boom") }
	for i := 0; i < 6; i++ {
		cb.Execute(fail)
	}

	_, err := cb.Execute(func() (any, error) { return "ok", nil })
	if err == nil {
		t.Fatal("expected circuit to be open after repeated failures")
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := resilience.NewBulkhead(1)

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.Acquire(ctx); err == nil {
		t.Fatal("expected second acquire to block until timeout")
	}

	b.Release()
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}
