// Package resilience wraps the outbound calls of the assistant: LLM
// completions, the cases webhook and database reads. The call profile here
// is few, slow, expensive requests, so the defaults lean toward waiting
// out a flaky upstream rather than hammering it.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// maxBackoff caps the exponential growth. A chat request is user-facing;
// waiting longer than this between attempts is worse than failing.
const maxBackoff = 5 * time.Second

// PermanentError marks a failure that retrying cannot fix, such as a
// rejected API key or an over-long prompt. RetryWithBackoff returns the
// wrapped error immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the retry loop gives up on it.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// RetryWithBackoff runs fn up to 1+MaxRetries times with exponential
// backoff and jitter. It stops early on context cancellation and on
// permanent errors.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var permanent *PermanentError
		if errors.As(lastErr, &permanent) {
			return permanent.Err
		}

		if attempt == cfg.MaxRetries {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)+1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a breaker tuned for the slow outbound calls:
// it trips on a run of consecutive failures rather than a failure ratio
// (one user retrying a broken request must not hold the circuit open),
// and the open interval is long enough for an LLM provider incident to
// pass before the single half-open probe goes out.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Bulkhead bounds how many requests may be inside an outbound call at
// once, so a slow upstream queues callers instead of exhausting sockets.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or the context ends.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}
