// Package pipeline orchestrates one ETL run: fetch, validate, store,
// and optionally load into the warehouse.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/core/validate"
	"github.com/vietddude/airwatch/internal/infra/storage"
	"github.com/vietddude/airwatch/internal/pipeline/metrics"
)

// MeasurementSource fetches the latest readings for a place.
type MeasurementSource interface {
	MeasurementsForPlace(ctx context.Context, place domain.Place, locationsLimit int) ([]domain.Measurement, error)
}

// WarehouseLoader bulk-loads a validated batch.
type WarehouseLoader interface {
	Load(ctx context.Context, measurements []domain.Measurement, runID string) (int64, error)
}

// FailureRecorder tracks places whose fetch failed. Implementations
// are best-effort; recording errors must not fail the run.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, place domain.Place, runID string, cause error)
	ClearFailure(ctx context.Context, place domain.Place)
}

// RunResult summarizes a completed pipeline run.
type RunResult struct {
	RunID      string
	OutputPath string
	Fetched    int
	Valid      int
	Loaded     int64
	Places     []string
}

// Pipeline wires the source, storage, and warehouse for batch runs.
type Pipeline struct {
	source    MeasurementSource
	storer    storage.Storer
	warehouse WarehouseLoader
	failures  FailureRecorder
	log       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWarehouse enables warehouse loading after a successful store.
func WithWarehouse(loader WarehouseLoader) Option {
	return func(p *Pipeline) { p.warehouse = loader }
}

// WithFailureRecorder attaches failed-place bookkeeping.
func WithFailureRecorder(recorder FailureRecorder) Option {
	return func(p *Pipeline) { p.failures = recorder }
}

// New creates a Pipeline.
func New(source MeasurementSource, storer storage.Storer, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		storer: storer,
		log:    slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchMeasurements fetches and validates readings for every place.
// A place whose fetch fails is recorded and skipped; an invalid
// measurement is logged and dropped. Returns the validated batch and
// the total number fetched.
func (p *Pipeline) FetchMeasurements(ctx context.Context, runID string, places []domain.Place, locationsLimit int) ([]domain.Measurement, int) {
	var valid []domain.Measurement
	fetched := 0

	for _, place := range places {
		measurements, err := p.source.MeasurementsForPlace(ctx, place, locationsLimit)
		if err != nil {
			p.log.Error("fetch failed, skipping place",
				"place", place.Name(), "country", place.CountryISO, "error", err)
			metrics.PlacesFailed.WithLabelValues(place.Name()).Inc()
			if p.failures != nil {
				p.failures.RecordFailure(ctx, place, runID, err)
			}
			continue
		}
		if p.failures != nil {
			p.failures.ClearFailure(ctx, place)
		}

		fetched += len(measurements)
		metrics.MeasurementsFetched.WithLabelValues(place.Name()).Add(float64(len(measurements)))

		for _, m := range measurements {
			if err := validate.Measurement(m); err != nil {
				p.log.Error("dropping invalid measurement",
					"place", place.Name(), "location", m.Location,
					"parameter", m.Parameter, "error", err)
				field := "unknown"
				var verr *validate.Error
				if errors.As(err, &verr) {
					field = verr.Field
				}
				metrics.ValidationFailures.WithLabelValues(place.Name(), field).Inc()
				continue
			}
			valid = append(valid, m)
		}
	}

	return valid, fetched
}

// Run executes one full ETL cycle.
func (p *Pipeline) Run(ctx context.Context, places []domain.Place, locationsLimit int) (*RunResult, error) {
	runID := uuid.NewString()
	start := time.Now()

	log := p.log.With("run_id", runID)
	log.Info("starting pipeline run", "places", len(places))

	result := &RunResult{RunID: runID}
	for _, place := range places {
		result.Places = append(result.Places, place.Name())
	}

	measurements, fetched := p.FetchMeasurements(ctx, runID, places, locationsLimit)
	result.Fetched = fetched
	result.Valid = len(measurements)
	log.Info("fetched measurements", "fetched", fetched, "valid", len(measurements))

	path, err := p.storer.Save(ctx, measurements)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store measurements: %w", err)
	}
	result.OutputPath = path
	if path != "" {
		log.Info("saved measurements", "path", path)
	}

	if p.warehouse != nil && len(measurements) > 0 {
		loaded, err := p.warehouse.Load(ctx, measurements, runID)
		if err != nil {
			metrics.RunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("warehouse load: %w", err)
		}
		result.Loaded = loaded
		log.Info("loaded into warehouse", "rows", loaded)
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	log.Info("pipeline run complete", "duration", time.Since(start))
	return result, nil
}
