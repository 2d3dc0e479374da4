/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

# Purpose

Photo libraries frequently live on network shares. This package wraps the
operations the build performs on the gallery tree (stat, open, readdir, whole
file reads) with retry logic for ESTALE (stale file handle) errors, which
NFS clients report when the server replaces a file or directory handle while
the build is walking it.

# Usage

	import "static-gallery/internal/filesystem"

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
	    return fmt.Errorf("listing %s: %w", dir, err)
	}

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only NFS stale file handle errors (ESTALE) trigger retries. All other errors
fail immediately without retry attempts.

# Metrics

Operations are labeled with a volume name resolved by longest-prefix match
against the paths registered with SetDefaultVolumeResolver. The build
registers the gallery root as "gallery" and its thumbnail tree as
"thumbnails". Recording goes through the Observer set with SetObserver, which
the metrics package implements; with no observer set nothing is recorded.
*/
package filesystem
