package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics for the preview server
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_http_requests_total",
			Help: "Total number of HTTP requests served by the preview server",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "static_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Build metrics
var (
	BuildRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_build_runs_total",
			Help: "Total number of gallery builds by outcome",
		},
		[]string{"status"}, // "success", "error", "locked", "canceled"
	)

	BuildIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_build_running",
			Help: "Whether a build is currently running (1 = running, 0 = idle)",
		},
	)

	BuildLastDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "static_gallery_build_last_duration_seconds",
			Help: "Duration of the last build phase in seconds",
		},
		[]string{"phase"}, // "walk", "thumbnails", "total"
	)

	BuildLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_build_last_timestamp",
			Help: "Unix timestamp of the last build completion",
		},
	)
)

// Tree walker metrics
var (
	WalkerFoldersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_walker_folders_total",
			Help: "Total number of folders handled by the walker",
		},
		[]string{"outcome"}, // "rendered", "suppressed", "excluded"
	)

	WalkerImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_walker_images_total",
			Help: "Total number of images reconciled by the walker",
		},
		[]string{"action"}, // "cached", "inspected", "sidecar_refreshed"
	)

	InspectorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "static_gallery_inspector_errors_total",
			Help: "Total number of images whose metadata could not be read",
		},
	)

	InspectorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "static_gallery_inspector_duration_seconds",
			Help:    "Time spent extracting metadata from one image",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Metadata cache metrics
var (
	CacheLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_cache_loads_total",
			Help: "Total number of folder cache loads by result",
		},
		[]string{"result"}, // "missing", "current", "migrated", "malformed"
	)

	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_cache_writes_total",
			Help: "Total number of folder cache writes by result",
		},
		[]string{"result"}, // "written", "removed", "error"
	)

	CacheEntriesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "static_gallery_cache_entries_evicted_total",
			Help: "Total number of cache entries removed because their image is gone",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailJobsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "static_gallery_thumbnail_jobs_scheduled_total",
			Help: "Total number of thumbnail jobs queued by the walker",
		},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_thumbnail_generations_total",
			Help: "Total number of thumbnail renders",
		},
		[]string{"backend", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "static_gallery_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	ThumbnailWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_thumbnail_workers_active",
			Help: "Number of thumbnail workers currently rendering",
		},
	)
)

// Gallery content metrics, refreshed by the Collector
var (
	GalleryImagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_images",
			Help: "Number of images recorded in folder caches",
		},
	)

	GalleryFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_folders",
			Help: "Number of folders holding a cache document",
		},
	)

	GalleryTagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_tags",
			Help: "Number of distinct tags across all images",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "static_gallery_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "static_gallery_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "static_gallery_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "static_gallery_memory_paused",
			Help: "Whether thumbnail rendering is paused by memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "static_gallery_memory_gc_pauses_total",
			Help: "Total number of times processing paused and forced a GC",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "static_gallery_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// WriteTextfile dumps every registered metric to path in the Prometheus text
// format, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
