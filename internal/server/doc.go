// Package server serves a built gallery for local preview.
//
// Routes:
//   - /healthz: JSON health status
//   - /metrics: Prometheus metrics, including gallery totals refreshed from
//     the metadata caches by a [metrics.Collector]
//   - everything else: files under the gallery root
//
// Requests are counted by method, path kind and status. Access lines use the
// W3C extended log format and are logged at debug level unless the response
// is an error.
package server
