package backoff

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// FailureKind categorizes transport-level failures for retry decisions.
type FailureKind int

const (
	// KindUnknown marks errors outside the transport taxonomy, e.g.
	// programming errors. These are never retried.
	KindUnknown FailureKind = iota
	KindTimeout
	KindConnection
	KindTransport
	// KindStatus marks a synthesized failure for a retryable HTTP
	// status on an otherwise successful exchange.
	KindStatus
)

func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// DefaultRetryKinds mirrors the default transport exception set: all
// recognized transport failures are retryable.
var DefaultRetryKinds = []FailureKind{KindTimeout, KindConnection, KindTransport, KindStatus}

// StatusError is synthesized by Do when a completed exchange carries a
// retryable HTTP status code. Body holds the response payload so the
// terminal error keeps what the server last said.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("retryable status code: %d", e.Code)
	}
	return fmt.Sprintf("retryable status code: %d: %s", e.Code, e.Body)
}

// ExhaustedError is returned once the retry budget is spent. It wraps
// the failure observed on the last attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// TransportError tags an underlying transport failure with its kind.
// Adapters wrap raw client errors in it so retry filtering works by
// kind rather than by string matching.
type TransportError struct {
	Kind FailureKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// WrapTransport classifies a raw transport error and tags it. A nil
// error returns nil.
func WrapTransport(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Kind: classifyRaw(err), Err: err}
}

// Classify returns the failure kind of err, unwrapping TransportError
// and StatusError tags first.
func Classify(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	var se *StatusError
	if errors.As(err, &se) {
		return KindStatus
	}

	return classifyRaw(err)
}

func classifyRaw(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return KindConnection
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	// http.Client wraps everything in *url.Error; anything that got
	// this far without a more specific match is a generic transport
	// failure.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindTransport
	}

	return KindUnknown
}
