// Package control wires the pipeline together from configuration and
// manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vietddude/airwatch/internal/core/config"
	"github.com/vietddude/airwatch/internal/core/domain"
	"github.com/vietddude/airwatch/internal/infra/openaq"
	redisclient "github.com/vietddude/airwatch/internal/infra/redis"
	"github.com/vietddude/airwatch/internal/infra/storage"
	"github.com/vietddude/airwatch/internal/infra/storage/local"
	"github.com/vietddude/airwatch/internal/infra/storage/s3"
	"github.com/vietddude/airwatch/internal/infra/warehouse/postgres"
	"github.com/vietddude/airwatch/internal/pipeline"
)

// Options tweak a single invocation without touching the config file.
type Options struct {
	// DryRun fetches and validates but skips storing and loading.
	DryRun bool
}

// App is the assembled pipeline with its external resources.
type App struct {
	cfg      *config.AppConfig
	opts     Options
	pipeline *pipeline.Pipeline
	db       *postgres.DB
	redis    *redisclient.Client
	server   *Server
	log      *slog.Logger
}

// NewApp builds all adapters from configuration.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts Options) (*App, error) {
	app := &App{
		cfg:  cfg,
		opts: opts,
		log:  slog.Default().With("component", "control"),
	}

	// Redis is optional; without it the pipeline just loses caching
	// and failed-place bookkeeping.
	var clientOpts []openaq.Option
	var recorder pipeline.FailureRecorder
	if cfg.Redis.URL != "" {
		rdb, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = rdb
		clientOpts = append(clientOpts, openaq.WithCache(redisclient.NewLocationsCache(rdb, cfg.Redis.CacheTTL)))
		recorder = &failureRecorder{repo: redisclient.NewFailedPlaceRepo(rdb), log: app.log}
		app.log.Info("redis bookkeeping enabled")
	}

	source := openaq.NewClient(cfg.API, clientOpts...)

	storer, err := newStorer(ctx, cfg.Storage, opts.DryRun)
	if err != nil {
		return nil, err
	}

	var pipeOpts []pipeline.Option
	if recorder != nil {
		pipeOpts = append(pipeOpts, pipeline.WithFailureRecorder(recorder))
	}
	if cfg.Warehouse.Enabled() && !opts.DryRun {
		db, err := postgres.NewDB(ctx, cfg.Warehouse.Config)
		if err != nil {
			return nil, fmt.Errorf("init warehouse: %w", err)
		}
		app.db = db
		pipeOpts = append(pipeOpts, pipeline.WithWarehouse(postgres.NewLoader(db)))
		app.log.Info("warehouse loading enabled")
	}

	app.pipeline = pipeline.New(source, storer, pipeOpts...)

	if cfg.Metrics.Port > 0 {
		app.server = NewServer(cfg.Metrics.Port)
	}

	return app, nil
}

// Run executes one pipeline run, serving metrics for its duration and
// pushing them afterward when a Pushgateway is configured.
func (a *App) Run(ctx context.Context) (*pipeline.RunResult, error) {
	if a.server != nil {
		a.server.StartBackground()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.server.Stop(shutdownCtx); err != nil {
				a.log.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	result, err := a.pipeline.Run(ctx, a.cfg.DomainPlaces(), a.cfg.LocationsLimit)

	if a.cfg.Metrics.PushgatewayURL != "" {
		if pushErr := a.pushMetrics(); pushErr != nil {
			a.log.Warn("metrics push failed", "error", pushErr)
		}
	}

	return result, err
}

// Close releases external resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("warehouse close failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close failed", "error", err)
		}
	}
}

// WarehouseDB exposes the warehouse handle for the load subcommand.
func (a *App) WarehouseDB() *postgres.DB {
	return a.db
}

func (a *App) pushMetrics() error {
	return push.New(a.cfg.Metrics.PushgatewayURL, "airwatch").
		Gatherer(prometheus.DefaultGatherer).
		Push()
}

// newStorer selects the storage backend: S3 when a bucket is
// configured, local disk otherwise. An S3 setup failure falls back to
// local so a scheduled run still produces an artifact.
func newStorer(ctx context.Context, cfg storage.Config, dryRun bool) (storage.Storer, error) {
	if dryRun {
		return discardStorer{}, nil
	}

	if cfg.S3.Bucket != "" {
		storer, err := s3.NewStorer(ctx, cfg.S3)
		if err == nil {
			slog.Info("using S3 storage", "bucket", cfg.S3.Bucket)
			return storer, nil
		}
		slog.Warn("S3 storage unavailable, falling back to local",
			"bucket", cfg.S3.Bucket, "error", err)
	}

	slog.Info("using local storage", "output_dir", cfg.OutputDir)
	return local.NewStorer(cfg.OutputDir), nil
}

// discardStorer satisfies storage.Storer for dry runs.
type discardStorer struct{}

func (discardStorer) Save(_ context.Context, measurements []domain.Measurement) (string, error) {
	slog.Info("dry run: discarding measurements", "count", len(measurements))
	return "", nil
}

// failureRecorder adapts the Redis failed-place repository to the
// pipeline's best-effort recorder interface.
type failureRecorder struct {
	repo *redisclient.FailedPlaceRepo
	log  *slog.Logger
}

func (r *failureRecorder) RecordFailure(ctx context.Context, place domain.Place, runID string, cause error) {
	err := r.repo.Add(ctx, redisclient.FailedPlace{
		Place:      place.Name(),
		CountryISO: place.CountryISO,
		RunID:      runID,
		Error:      cause.Error(),
		FailedAt:   time.Now().UTC(),
	})
	if err != nil {
		r.log.Warn("failed to record place failure", "place", place.Name(), "error", err)
	}
}

func (r *failureRecorder) ClearFailure(ctx context.Context, place domain.Place) {
	if err := r.repo.Remove(ctx, place.Name()); err != nil {
		r.log.Warn("failed to clear place failure", "place", place.Name(), "error", err)
	}
}
