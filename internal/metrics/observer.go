package metrics

import (
	"static-gallery/internal/filesystem"

	"github.com/prometheus/client_golang/prometheus"
)

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// static_gallery_filesystem_* series. The build installs it with
// filesystem.SetObserver before the walk starts.
func NewFilesystemObserver() filesystem.Observer {
	return fsObserver{}
}

type fsObserver struct{}

func (fsObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (fsObserver) ObserveRetryAttempt(op, volume string) { inc(FilesystemRetryAttempts, op, volume) }
func (fsObserver) ObserveRetrySuccess(op, volume string) { inc(FilesystemRetrySuccess, op, volume) }
func (fsObserver) ObserveRetryFailure(op, volume string) { inc(FilesystemRetryFailures, op, volume) }
func (fsObserver) ObserveStaleError(op, volume string) { inc(FilesystemStaleErrors, op, volume) }

func (fsObserver) ObserveRetryDuration(op, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(durationSeconds)
}

// inc bumps a retry counter; every retry series is labelled (operation, volume).
func inc(counter *prometheus.CounterVec, op, volume string) {
	counter.WithLabelValues(op, volume).Inc()
}
