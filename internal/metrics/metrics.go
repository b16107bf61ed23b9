package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// File kinds
	KindActivity  = "activity"
	KindLocations = "locations"

	// File outcomes
	ResultSuccess     = "success"
	ResultUnsupported = "unsupported"
	ResultFailure     = "failure"

	// Store tables
	TableActivities  = "activities"
	TableSessions    = "sessions"
	TableTracks      = "tracks"
	TableTrackpoints = "trackpoints"
	TableLocations   = "locations"

	// Database operations
	DBOpImportActivity    = "import_activity"
	DBOpImportSessions    = "import_sessions"
	DBOpImportTracks      = "import_tracks"
	DBOpImportTrackpoints = "import_trackpoints"
	DBOpImportLocations   = "import_locations"
	DBOpTableCounts       = "table_counts"
)

// Import Metrics
var (
	FilesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fit_files_processed_total",
			Help: "Total number of FIT files processed by kind and result",
		},
		[]string{"kind", "result"},
	)

	GPXDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fit_gpx_documents_total",
			Help: "Total number of GPX documents written",
		},
	)

	RowsStagedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fit_rows_staged_total",
			Help: "Total number of rows staged for store import per table",
		},
		[]string{"table"},
	)

	FileProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fit_file_processing_duration_seconds",
			Help:    "End-to-end conversion time per input file",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Database Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Database operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operation_errors_total",
			Help: "Total number of database operation errors",
		},
		[]string{"operation"},
	)
)
