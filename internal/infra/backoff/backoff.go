// Package backoff wraps remote calls with retry and exponential backoff.
//
// A call either succeeds, fails with a non-retryable error surfaced
// unchanged, or exhausts its retry budget and fails with *ExhaustedError
// wrapping the last underlying failure. Retryable-status responses are
// never returned to the caller as successes.
package backoff

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Policy defines retry behavior for one call site. Immutable once a
// call starts; different endpoints may carry different policies.
type Policy struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64

	// RetryOn lists the transport failure kinds worth retrying.
	// Empty means DefaultRetryKinds. Anything outside the list
	// propagates on first occurrence.
	RetryOn []FailureKind

	// OnRetry, when set, is invoked once per retry, before the wait.
	// Used for retry accounting; must not block.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy provides sensible defaults for API calls.
var DefaultPolicy = Policy{
	MaxRetries:      3,
	BaseDelay:       1 * time.Second,
	MaxDelay:        60 * time.Second,
	ExponentialBase: 2.0,
}

// RateLimitPolicy returns a more patient policy for endpoints that
// throttle aggressively: more attempts, longer ceiling.
func RateLimitPolicy() Policy {
	return Policy{
		MaxRetries:      5,
		BaseDelay:       2 * time.Second,
		MaxDelay:        120 * time.Second,
		ExponentialBase: 2.0,
	}
}

// retryableStatus lists HTTP status codes that should trigger a retry
// before any response classification happens.
var retryableStatus = map[int]struct{}{
	408: {},
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

// RetryableStatus reports whether a status code belongs to the
// retryable set.
func RetryableStatus(code int) bool {
	_, ok := retryableStatus[code]
	return ok
}

// HTTPResult is implemented by results carrying an HTTP status code.
// Do inspects it to catch exchanges that completed at the transport
// level but returned a retryable status. Results that also implement
// HTTPBody() []byte get their payload carried into the synthesized
// *StatusError.
type HTTPResult interface {
	HTTPStatus() int
}

func statusFailure(r HTTPResult) *StatusError {
	se := &StatusError{Code: r.HTTPStatus()}
	if b, ok := r.(interface{ HTTPBody() []byte }); ok {
		se.Body = b.HTTPBody()
	}
	return se
}

// Delay computes the wait before attempt i+1:
// min(BaseDelay * ExponentialBase^i, MaxDelay).
func Delay(p Policy, attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.ExponentialBase, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// Do executes op up to p.MaxRetries+1 times.
//
// An attempt is retried when op returns an error whose failure kind is
// in p.RetryOn, or when it returns without error but the result's HTTP
// status is retryable (a *StatusError is synthesized for that case).
// Any other error propagates immediately, unwrapped and unretried.
// After the last attempt the triggering failure is wrapped in
// *ExhaustedError.
//
// The inter-attempt wait is a real timer wait; ctx cancellation cuts
// it short.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var zero T
	var last error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			r, ok := any(result).(HTTPResult)
			if !ok || !RetryableStatus(r.HTTPStatus()) {
				return result, nil
			}
			// The exchange completed but carries a retryable status;
			// treat it as a failure so it is never surfaced as success.
			err = statusFailure(r)
		} else if !p.retryable(err) {
			return zero, err
		}

		last = err

		if attempt == p.MaxRetries {
			slog.Error("retries exhausted",
				"attempts", attempt+1,
				"error", err)
			return zero, &ExhaustedError{Attempts: attempt + 1, Last: err}
		}

		delay := Delay(p, attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		slog.Warn("retrying after failure",
			"attempt", attempt+1,
			"max_attempts", p.MaxRetries+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	// Unreachable: the loop always returns. Kept so an impossible exit
	// still reports exhaustion instead of a zero value.
	return zero, &ExhaustedError{Attempts: p.MaxRetries + 1, Last: last}
}

func (p Policy) retryable(err error) bool {
	kind := Classify(err)
	if kind == KindUnknown {
		return false
	}
	retryOn := p.RetryOn
	if len(retryOn) == 0 {
		retryOn = DefaultRetryKinds
	}
	for _, k := range retryOn {
		if k == kind {
			return true
		}
	}
	return false
}
