package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal tracks OpenAQ API calls per endpoint
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_api_calls_total",
			Help: "Total number of OpenAQ API calls",
		},
		[]string{"endpoint"},
	)

	// APIRetriesTotal tracks retry attempts per endpoint
	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_api_retries_total",
			Help: "Total number of OpenAQ API retry attempts",
		},
		[]string{"endpoint"},
	)

	// APIErrorsTotal tracks terminal API failures per endpoint and kind
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_api_errors_total",
			Help: "Total number of terminal OpenAQ API errors",
		},
		[]string{"endpoint", "error_type"},
	)

	// MeasurementsFetched tracks raw measurements fetched per place
	MeasurementsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_measurements_fetched_total",
			Help: "Total number of measurements fetched from the API",
		},
		[]string{"place"},
	)

	// ValidationFailures tracks measurements dropped by validation
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_validation_failures_total",
			Help: "Total number of measurements rejected by validation",
		},
		[]string{"place", "field"},
	)

	// PlacesFailed tracks places skipped because their fetch failed
	PlacesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_places_failed_total",
			Help: "Total number of places skipped due to fetch failures",
		},
		[]string{"place"},
	)

	// RunsTotal tracks pipeline runs by final status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airwatch_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// RunDuration tracks end-to-end pipeline run duration
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airwatch_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// WarehouseRowsLoaded tracks rows bulk-loaded into the warehouse
	WarehouseRowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airwatch_warehouse_rows_loaded_total",
			Help: "Total number of rows loaded into the warehouse",
		},
	)
)
