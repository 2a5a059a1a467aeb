// Package retryexec implements the Retry Executor: it wraps any external
// call with exponential backoff and jitter over a classified retryable
// error set, built on cenkalti/backoff/v4.
package retryexec

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// Classifier reports whether err belongs to the retryable set. The default
// Classify function implements the contract documented on Classify; callers
// with a richer error taxonomy (HTTP status codes, etc.) may supply their
// own.
type Classifier func(err error) bool

// Executor wraps calls with retry-with-backoff semantics.
type Executor struct {
	cfg       domain.RetryConfig
	classify  Classifier
	onRetry   func(attempt int, err error, delay float64)
}

// New builds an Executor from cfg. A nil classifier uses Classify.
func New(cfg domain.RetryConfig, classify Classifier) *Executor {
	if classify == nil {
		classify = Classify
	}
	return &Executor{cfg: cfg, classify: classify}
}

// OnRetry registers a callback invoked before each retry sleep, useful for
// metrics/logging at the call site.
func (e *Executor) OnRetry(fn func(attempt int, err error, delaySeconds float64)) {
	e.onRetry = fn
}

// newBackOff builds the cenkalti/backoff policy for this executor's config.
// Attempt 1 is immediate; cenkalti/backoff's WithMaxRetries bounds the total
// number of retries to cfg.MaxAttempts-1, matching "after max_attempts,
// surface the last failure."
func (e *Executor) newBackOff(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.cfg.BaseDelay
	expo.MaxInterval = e.cfg.MaxDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = e.cfg.Jitter
	expo.MaxElapsedTime = 0 // bounded by attempt count, not elapsed wall time

	maxAttempts := e.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	bounded := backoff.WithMaxRetries(expo, uint64(maxAttempts-1))
	return backoff.WithContext(bounded, ctx)
}

// Do runs fn, retrying on retryable failures per the configured policy.
// Non-retryable failures (per the classifier) abort immediately without
// consuming further attempts.
func Do[T any](ctx context.Context, e *Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		attempt int
	)

	bo := e.newBackOff(ctx)
	op := func() error {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !e.classify(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if e.onRetry != nil {
		notify = func(err error, delay time.Duration) {
			e.onRetry(attempt, err, delay.Seconds())
		}
	}

	var err error
	if notify != nil {
		err = backoff.RetryNotify(op, bo, notify)
	} else {
		err = backoff.Retry(op, bo)
	}
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return result, perm.Err
		}
		return result, err
	}
	return result, nil
}

// Classify implements the Retry Executor's default retryable-set contract:
// transport-level errors, idempotent timeouts, 5xx responses, and rate
// limit signals (429 or equivalent) are retryable; other 4xx, not-found,
// conflict, schema, and auth/validation failures are not. An error that
// matches none of these is treated as retryable.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout),
		errors.Is(err, domain.ErrUpstreamRateLimit),
		errors.Is(err, domain.ErrRateLimited):
		return true
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrSchemaInvalid):
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "tls handshake", "dns", "timeout", "econnreset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	for _, s := range []string{"status 5", "5xx", " 500", " 502", " 503", " 504", "429", "too many requests"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	for _, s := range []string{"400", "401", "403", "404", "unauthorized", "forbidden", "invalid", "bad request"} {
		if strings.Contains(msg, s) {
			return false
		}
	}
	return true
}
