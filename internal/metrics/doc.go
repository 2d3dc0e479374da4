// Package metrics provides Prometheus instrumentation for gallery builds and
// the preview server.
//
// All metrics are prefixed with "static_gallery_" and registered with the
// default registry through promauto. A build is a short-lived process, so
// besides the /metrics endpoint of the preview server the registry can be
// dumped with [WriteTextfile] for the node_exporter textfile collector.
//
// # Metric Categories
//
// ## Build
//   - BuildRunsTotal: builds by outcome (success, error, locked, canceled)
//   - BuildIsRunning: 1 while a build holds the lock
//   - BuildLastDuration: seconds per phase (walk, thumbnails, total)
//   - BuildLastTimestamp: completion time of the last build
//
// ## Walker and Cache
//   - WalkerFoldersTotal: folders by outcome (rendered, suppressed, excluded)
//   - WalkerImagesTotal: images by action (cached, inspected, sidecar_refreshed)
//   - InspectorErrors, InspectorDuration: image inspection
//   - CacheLoadsTotal: metadata cache loads (missing, current, migrated, malformed)
//   - CacheWritesTotal: metadata cache writes (written, removed, error)
//   - CacheEntriesEvicted: records dropped for images no longer present
//
// ## Thumbnails
//   - ThumbnailJobsScheduled: jobs queued by the walk
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration: per backend
//   - ThumbnailWorkersActive: workers currently rendering
//
// ## Gallery
//   - GalleryImagesTotal, GalleryFoldersTotal, GalleryTagsTotal: totals,
//     set after a build or refreshed by a [Collector]
//
// ## Filesystem
// Operation latency, errors and NFS stale-handle retries per volume
// ("gallery", "thumbnails"), recorded through [NewFilesystemObserver].
//
// ## Memory
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses: thumbnail backpressure
//
// ## HTTP
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight: preview
//     server requests by method, path kind and status
//
// # Usage
//
// Call [InitializeMetrics] once at startup so every label combination is
// exported from the first scrape, then record from any package:
//
//	metrics.WalkerImagesTotal.WithLabelValues("inspected").Inc()
//	metrics.BuildLastDuration.WithLabelValues("walk").Set(elapsed.Seconds())
//
// # Prometheus Queries
//
// Share of images served from the cache:
//
//	static_gallery_walker_images_total{action="cached"} / ignoring(action) sum(static_gallery_walker_images_total)
//
// Thumbnail failure rate:
//
//	rate(static_gallery_thumbnail_generations_total{status="error"}[1h])
package metrics
