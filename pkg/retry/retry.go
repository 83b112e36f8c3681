// Package retry provides the single shared retry/backoff helper used by
// every task that calls a remote service (storage, ASR, LLM, chat, webhook).
// Grounded in the teacher's jittered-backoff style (pkg/queue/worker.go,
// pkg/mcp/recovery.go) but built on cenkalti/backoff/v4, already present in
// the teacher's dependency graph (pulled in indirectly by testcontainers),
// rather than hand-rolling the exponential/jitter math again.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures a bounded retry loop.
type Policy struct {
	MaxAttempts     int           // total attempts including the first, 0 = use default of 3
	InitialInterval time.Duration // first backoff delay
	MaxInterval     time.Duration // backoff ceiling
	MaxElapsed      time.Duration // 0 = no overall deadline beyond ctx
}

// DefaultPolicy mirrors the "Retries: 3" default used throughout spec.md §4.11.
var DefaultPolicy = Policy{
	MaxAttempts:     3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     10 * time.Second,
}

// PermanentError wraps an error that must never be retried (spec.md §7
// "Permanent remote" error kind): 4xx responses other than 408 and 429, malformed
// containers, data-integrity violations.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or any error in its chain) is marked
// non-retryable.
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// ClassifyHTTPStatus returns a permanent error for any 4xx status except
// 408 (request timeout) and 429 (rate limited), which are treated as
// transient. Mirrors the ASR/webhook retry rules in spec.md §4.5 and §4.10.
func ClassifyHTTPStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return Permanent(err)
	}
	return err
}

// Do runs fn under the given policy, retrying transient failures with
// jittered exponential backoff. It stops immediately on a PermanentError,
// context cancellation, or once attempts/elapsed time are exhausted.
func Do(ctx context.Context, policy Policy, label string, fn func(ctx context.Context) error) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultPolicy.MaxAttempts
	}

	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	if policy.MaxElapsed > 0 {
		b.MaxElapsedTime = policy.MaxElapsed
	} else {
		b.MaxElapsedTime = 0 // rely on attempt count + ctx deadline
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		slog.Warn("retrying after transient failure",
			"task", label, "attempt", attempt, "max_attempts", maxAttempts, "wait", wait, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("%s: exhausted %d attempts: %w", label, maxAttempts, lastErr)
}
