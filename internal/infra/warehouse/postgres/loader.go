package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/storage/csvenc"
	"github.com/vietddude/airwatch/internal/pipeline/metrics"
)

const insertMeasurement = `
	INSERT INTO measurements (city, location, parameter, value, unit, ts, load_id)
	VALUES (:city, :location, :parameter, :value, :unit, :ts, :load_id)`

// measurementRow maps a measurement to the warehouse schema.
type measurementRow struct {
	City      string    `db:"city"`
	Location  string    `db:"location"`
	Parameter string    `db:"parameter"`
	Value     float64   `db:"value"`
	Unit      string    `db:"unit"`
	TS        time.Time `db:"ts"`
	LoadID    string    `db:"load_id"`
}

// Loader bulk-loads measurement batches into the warehouse.
type Loader struct {
	db  *DB
	log *slog.Logger
}

// NewLoader creates a warehouse loader.
func NewLoader(db *DB) *Loader {
	return &Loader{
		db:  db,
		log: slog.Default().With("component", "warehouse"),
	}
}

// Load appends measurements to the warehouse in one transaction,
// tagged with the pipeline run id. Returns the number of rows loaded.
func (l *Loader) Load(ctx context.Context, measurements []domain.Measurement, runID string) (int64, error) {
	if len(measurements) == 0 {
		l.log.Warn("no measurements to load")
		return 0, nil
	}

	rows := toRows(measurements, runID)

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertMeasurement, rows); err != nil {
		return 0, fmt.Errorf("insert measurements: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}

	loaded := int64(len(rows))
	metrics.WarehouseRowsLoaded.Add(float64(loaded))
	l.log.Info("loaded measurements into warehouse", "rows", loaded, "run_id", runID)
	return loaded, nil
}

func toRows(measurements []domain.Measurement, runID string) []measurementRow {
	rows := make([]measurementRow, 0, len(measurements))
	for _, m := range measurements {
		rows = append(rows, measurementRow{
			City:      m.City,
			Location:  m.Location,
			Parameter: string(m.Parameter),
			Value:     m.Value,
			Unit:      m.Unit,
			TS:        m.Timestamp.UTC(),
			LoadID:    runID,
		})
	}
	return rows
}

// LoadCSV parses a previously stored local CSV artifact and loads it.
func (l *Loader) LoadCSV(ctx context.Context, path, runID string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read artifact: %w", err)
	}

	measurements, err := csvenc.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("parse artifact %s: %w", path, err)
	}

	l.log.Info("loading artifact", "path", path, "rows", len(measurements))
	return l.Load(ctx, measurements, runID)
}
