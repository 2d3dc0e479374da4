package gallery

import (
	"errors"
	"os"
	"path/filepath"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"
	"static-gallery/internal/media"
	"static-gallery/internal/metrics"
)

// shouldSchedule reports whether the thumbnail at dest must be rendered. It
// is needed when dest is missing or regeneration is forced. In the latter
// case the old thumbnail is deleted so the worker never sees a stale file.
func shouldSchedule(dest string, regenerate bool) bool {
	if !filesystem.Exists(dest) {
		return true
	}
	if !regenerate {
		return false
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to remove stale thumbnail %s: %v", dest, err)
	}
	return true
}

// schedule returns the thumbnail job for the image name in dir, or false
// when its thumbnail is current.
func (w *Walker) schedule(dir, rel, name string) (media.Job, bool) {
	dest := media.ThumbnailPath(w.opts.Root, filepath.FromSlash(rel), name)
	if !shouldSchedule(dest, w.opts.RegenerateThumbnails) {
		return media.Job{}, false
	}
	logging.Debug("Scheduling thumbnail %s", dest)
	metrics.ThumbnailJobsScheduled.Inc()
	return media.Job{SourceDir: dir, Name: name, Root: w.opts.Root}, true
}
