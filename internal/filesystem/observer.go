package filesystem

import (
	"errors"
	"os"
	"time"
)

// Observer receives timings and ESTALE retry events for the filesystem calls
// a build makes. volume is a VolumeResolver label: "gallery" for the image
// tree, "thumbnails" for the .thumbnails output. Operations are "stat",
// "open", "readdir", "read" and "write".
//
// The Prometheus implementation lives in the metrics package, which imports
// this one.
type Observer interface {
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveRetryDuration(op, volume string, durationSeconds float64)
	ObserveStaleError(op, volume string)
}

// defaultObserver is nil until SetObserver is called; tests usually leave it so.
var defaultObserver Observer

// SetObserver installs the observer used by every retry helper.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	if defaultObserver == nil {
		return discard{}
	}
	return defaultObserver
}

type discard struct{}

func (discard) ObserveOperation(string, string, float64, error) {}
func (discard) ObserveRetryAttempt(string, string) {}
func (discard) ObserveRetrySuccess(string, string) {}
func (discard) ObserveRetryFailure(string, string) {}
func (discard) ObserveRetryDuration(string, string, float64) {}
func (discard) ObserveStaleError(string, string) {}

// ObserveOperation records the duration and outcome of an operation on path
// that started at start. Not-exist errors count as success: the build probes
// for sidecars, caches and thumbnails that are usually absent.
func ObserveOperation(path, operation string, start time.Time, err error) {
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	observe().ObserveOperation(defaultResolver.Resolve(path), operation, time.Since(start).Seconds(), err)
}
