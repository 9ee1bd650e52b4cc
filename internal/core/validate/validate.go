// Package validate holds the domain validation rules applied to
// measurements before they are persisted.
package validate

import (
	"fmt"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
)

// Error describes a measurement that failed validation.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid measurement: %s %s", e.Field, e.Reason)
}

// Measurement checks a single reading against the domain rules.
// Returns nil when the measurement is storable.
func Measurement(m domain.Measurement) error {
	if m.City == "" {
		return &Error{Field: "city", Reason: "is required"}
	}
	if m.Location == "" {
		return &Error{Field: "location", Reason: "is required"}
	}
	if m.Parameter == "" {
		return &Error{Field: "parameter", Reason: "is required"}
	}
	if _, ok := domain.ParseParameter(string(m.Parameter)); !ok {
		return &Error{Field: "parameter", Reason: fmt.Sprintf("%q is not recognized", m.Parameter)}
	}
	if m.Value < 0 {
		return &Error{Field: "value", Reason: "cannot be negative"}
	}
	if m.Unit == "" {
		return &Error{Field: "unit", Reason: "is required"}
	}
	if m.Timestamp.IsZero() {
		return &Error{Field: "timestamp", Reason: "is required"}
	}
	if m.Timestamp.After(time.Now().UTC()) {
		return &Error{Field: "timestamp", Reason: "cannot be in the future"}
	}
	return nil
}
