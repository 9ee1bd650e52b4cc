package validate

import (
	"testing"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
)

func valid() domain.Measurement {
	return domain.Measurement{
		City:      "Warszawa",
		Location:  "Warszawa-Centrum",
		Parameter: domain.ParameterPM25,
		Value:     12.5,
		Unit:      "µg/m³",
		Timestamp: time.Now().UTC().Add(-time.Hour),
	}
}

func TestMeasurement_Valid(t *testing.T) {
	if err := Measurement(valid()); err != nil {
		t.Errorf("valid measurement rejected: %v", err)
	}

	zero := valid()
	zero.Value = 0
	if err := Measurement(zero); err != nil {
		t.Errorf("zero value must be accepted: %v", err)
	}
}

func TestMeasurement_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.Measurement)
		wantField string
	}{
		{"missing city", func(m *domain.Measurement) { m.City = "" }, "city"},
		{"missing location", func(m *domain.Measurement) { m.Location = "" }, "location"},
		{"missing parameter", func(m *domain.Measurement) { m.Parameter = "" }, "parameter"},
		{"unknown parameter", func(m *domain.Measurement) { m.Parameter = "co2" }, "parameter"},
		{"negative value", func(m *domain.Measurement) { m.Value = -0.1 }, "value"},
		{"missing unit", func(m *domain.Measurement) { m.Unit = "" }, "unit"},
		{"zero timestamp", func(m *domain.Measurement) { m.Timestamp = time.Time{} }, "timestamp"},
		{"future timestamp", func(m *domain.Measurement) { m.Timestamp = time.Now().Add(time.Hour) }, "timestamp"},
	}

	for _, tt := range tests {
		m := valid()
		tt.mutate(&m)

		err := Measurement(m)
		if err == nil {
			t.Errorf("%s: accepted, want error", tt.name)
			continue
		}
		verr, ok := err.(*Error)
		if !ok {
			t.Errorf("%s: got %T, want *Error", tt.name, err)
			continue
		}
		if verr.Field != tt.wantField {
			t.Errorf("%s: field = %q, want %q", tt.name, verr.Field, tt.wantField)
		}
	}
}
