package openaq

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for API failures; match with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("resource not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrAPI            = errors.New("api request failed")
)

// APIError carries the status code and raw body of a failed API
// response. The body is kept verbatim for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", e.kind, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// classify maps a non-retried response to a typed failure, or returns
// the body for 2xx. Checked in priority order; first match wins.
func classify(resp *Response) ([]byte, error) {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return resp.Body, nil
	}

	var kind error
	switch {
	case code == 401 || code == 403:
		kind = ErrAuthentication
	case code == 404:
		kind = ErrNotFound
	case code == 429:
		kind = ErrRateLimited
	default:
		kind = ErrAPI
	}

	return nil, &APIError{StatusCode: code, Body: string(resp.Body), kind: kind}
}
