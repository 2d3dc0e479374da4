package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the pool size.
const EnvOverride = "THUMBNAIL_WORKERS"

// Count returns the number of workers for multiplier workers per available
// CPU, respecting container CPU limits via GOMAXPROCS.
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
//
// The THUMBNAIL_WORKERS environment variable overrides the calculation.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive and ForCPU(limit)
// otherwise. It sizes the thumbnail pool from the thumbnail_workers setting.
func Resolve(configured, limit int) int {
	if configured > 0 {
		return configured
	}
	return ForCPU(limit)
}
