package postgres

import (
	"testing"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
)

func TestToRows(t *testing.T) {
	warsaw, _ := time.LoadLocation("Europe/Warsaw")
	measurements := []domain.Measurement{{
		City:      "Warszawa",
		Location:  "Warszawa-Centrum",
		Parameter: domain.ParameterPM25,
		Value:     12.5,
		Unit:      "µg/m³",
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, warsaw),
	}}

	rows := toRows(measurements, "run-1")
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.Parameter != "pm25" || row.City != "Warszawa" || row.LoadID != "run-1" {
		t.Errorf("row = %+v", row)
	}
	// Timestamps are normalized to UTC before loading.
	if row.TS.Location() != time.UTC {
		t.Errorf("TS location = %v, want UTC", row.TS.Location())
	}
	if !row.TS.Equal(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("TS = %v", row.TS)
	}
}
