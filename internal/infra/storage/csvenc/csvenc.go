// Package csvenc serializes measurements to CSV.
package csvenc

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
)

// Headers is the CSV column order; the warehouse schema mirrors it.
var Headers = []string{"city", "location", "parameter", "value", "unit", "timestamp"}

// Delimiter is a semicolon for spreadsheet compatibility.
const Delimiter = ';'

// Filename returns the artifact name for a run started at the given
// time.
func Filename(now time.Time) string {
	return fmt.Sprintf("air_quality_%s.csv", now.UTC().Format(time.RFC3339))
}

// Encode renders measurements as semicolon-delimited UTF-8 CSV with a
// header row.
func Encode(measurements []domain.Measurement) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = Delimiter

	if err := w.Write(Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, m := range measurements {
		record := []string{
			m.City,
			m.Location,
			string(m.Parameter),
			strconv.FormatFloat(m.Value, 'f', -1, 64),
			m.Unit,
			m.Timestamp.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses CSV produced by Encode back into measurements; used by
// the warehouse loader when loading a stored artifact.
func Decode(data []byte) ([]domain.Measurement, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = Delimiter

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}

	// Skip the header row.
	var measurements []domain.Measurement
	for i, record := range records[1:] {
		if len(record) != len(Headers) {
			return nil, fmt.Errorf("row %d: got %d fields, want %d", i+2, len(record), len(Headers))
		}

		value, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad value: %w", i+2, err)
		}
		ts, err := time.Parse(time.RFC3339, record[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp: %w", i+2, err)
		}

		measurements = append(measurements, domain.Measurement{
			City:      record[0],
			Location:  record[1],
			Parameter: domain.Parameter(record[2]),
			Value:     value,
			Unit:      record[4],
			Timestamp: ts,
		})
	}
	return measurements, nil
}
