package metrics

// Volumes are the filesystem volume labels used by the build.
var Volumes = []string{"gallery", "thumbnails", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first scrape or textfile dump.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "locked", "canceled"} {
		BuildRunsTotal.WithLabelValues(status)
	}
	for _, phase := range []string{"walk", "thumbnails", "total"} {
		BuildLastDuration.WithLabelValues(phase)
	}

	for _, outcome := range []string{"rendered", "suppressed", "excluded"} {
		WalkerFoldersTotal.WithLabelValues(outcome)
	}
	for _, action := range []string{"cached", "inspected", "sidecar_refreshed"} {
		WalkerImagesTotal.WithLabelValues(action)
	}

	for _, result := range []string{"missing", "current", "migrated", "malformed"} {
		CacheLoadsTotal.WithLabelValues(result)
	}
	for _, result := range []string{"written", "removed", "error"} {
		CacheWritesTotal.WithLabelValues(result)
	}

	for _, backend := range []string{"imaging", "vips"} {
		ThumbnailGenerationsTotal.WithLabelValues(backend, "success")
		ThumbnailGenerationsTotal.WithLabelValues(backend, "error")
		ThumbnailGenerationDuration.WithLabelValues(backend)
	}

	// --- Filesystem operation metrics (per volume × operation) ---
	for _, vol := range Volumes {
		for _, op := range []string{"read", "write", "stat", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
