package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ingest_total",
			Help: "Total number of ingestion attempts by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	IngestPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_ingest_phase_duration_seconds",
			Help:    "Duration of each ingestion phase in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"}, // "validate", "normalize", "dedupe", "accept", "commit"
	)

	IngestRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ingest_rollbacks_total",
			Help: "Total number of partially written assets rolled back",
		},
	)

	IngestBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ingest_bytes_written_total",
			Help: "Bytes written to the category store by file kind",
		},
		[]string{"kind"}, // "image", "thumbnail", "sidecar"
	)

	RemovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_removals_total",
			Help: "Total number of asset removals by status",
		},
		[]string{"status"},
	)
)

// Catalog builder metrics
var (
	BuildRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_build_runs_total",
			Help: "Total number of catalog builds by status",
		},
		[]string{"status"},
	)

	BuildLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_build_last_run_timestamp",
			Help: "Unix timestamp of the last successful catalog build",
		},
	)

	BuildLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_build_last_run_duration_seconds",
			Help: "Duration of the last catalog build in seconds",
		},
	)

	BuildAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_build_assets",
			Help: "Assets seen by the last build by state",
		},
		[]string{"state"}, // "included", "skipped"
	)

	BuildDocumentsWritten = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_build_documents_written",
			Help: "Number of derived documents written by the last build",
		},
	)

	CategoryAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_category_assets",
			Help: "Number of cataloged assets per category as of the last build",
		},
		[]string{"category"},
	)
)

// Hash registry metrics
var (
	RegistryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_registry_operations_total",
			Help: "Total number of hash registry operations",
		},
		[]string{"operation", "status"},
	)

	RegistryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_registry_operation_duration_seconds",
			Help:    "Hash registry operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	RegistryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_registry_entries",
			Help: "Number of content hashes held by the registry",
		},
	)
)

// Filesystem and lock metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retry attempts",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors encountered",
		},
		[]string{"operation"},
	)

	FilesystemAtomicWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filesystem_atomic_writes_total",
			Help: "Total number of temp-file-and-rename writes by status",
		},
		[]string{"status"},
	)

	LockWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_lock_wait_duration_seconds",
			Help:    "Time spent waiting for category locks",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"mode"}, // "exclusive", "shared"
	)
)

// HTTP metrics for the optional read-only server
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)
