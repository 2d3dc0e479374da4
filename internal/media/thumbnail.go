package media

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/logging"
	"static-gallery/internal/metrics"
	"static-gallery/internal/workers"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailDir is the directory under the gallery root holding thumbnails.
	ThumbnailDir = ".thumbnails"

	// ThumbnailExtension is appended to the image filename, never replacing
	// its own extension, so a.jpg and a.png get distinct thumbnails.
	ThumbnailExtension = ".jpg"

	DefaultThumbnailSize    = 512
	DefaultThumbnailQuality = 75
)

// Backend selects the library used to render thumbnails.
type Backend string

const (
	BackendImaging Backend = "imaging"
	BackendVips    Backend = "vips"
)

// ParseBackend validates a backend name. An empty name selects imaging.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendImaging:
		return BackendImaging, nil
	case BackendVips:
		return BackendVips, nil
	}
	return "", fmt.Errorf("unknown thumbnail backend %q (want %q or %q)", name, BackendImaging, BackendVips)
}

// ThumbnailPath returns root/.thumbnails/rel/name.jpg.
func ThumbnailPath(root, rel, name string) string {
	return filepath.Join(root, ThumbnailDir, rel, name+ThumbnailExtension)
}

// Job is one thumbnail to render: the image Name inside SourceDir, with
// thumbnails stored under Root.
type Job struct {
	SourceDir string
	Name      string
	Root      string
}

// Source returns the path of the image to render.
func (j Job) Source() string {
	return filepath.Join(j.SourceDir, j.Name)
}

// Dest returns where the thumbnail is written.
func (j Job) Dest() string {
	rel, err := filepath.Rel(j.Root, j.SourceDir)
	if err != nil || rel == "." {
		rel = ""
	}
	return ThumbnailPath(j.Root, rel, j.Name)
}

func (j Job) String() string {
	return j.Source()
}

// Renderer produces JPEG thumbnails whose longest edge is at most Size.
type Renderer struct {
	Backend Backend
	Size    int
	Quality int
}

// NewRenderer returns a Renderer for backend. The vips backend starts
// libvips; callers shut it down with ShutdownVips.
func NewRenderer(backend Backend, size, quality int) (*Renderer, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}

	if backend == BackendVips {
		if err := InitVips(); err != nil {
			return nil, fmt.Errorf("starting libvips: %w", err)
		}
	}

	logging.Debug("Thumbnail renderer: backend=%s size=%d quality=%d", backend, size, quality)
	return &Renderer{Backend: backend, Size: size, Quality: quality}, nil
}

// Render decodes src, applies its EXIF orientation, fits it inside a
// Size x Size box without upscaling and writes it to dest as a JPEG with no
// metadata. Parent directories of dest are created.
func (r *Renderer) Render(src, dest string) error {
	start := time.Now()

	var data []byte
	var err error
	switch r.Backend {
	case BackendVips:
		data, err = renderWithVips(src, r.Size, r.Quality)
	default:
		data, err = r.renderWithImaging(src)
	}

	status := "success"
	if err == nil {
		err = filesystem.WriteFileAtomic(dest, bytes.NewReader(data))
	}
	if err != nil {
		status = "error"
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(r.Backend), status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(r.Backend)).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("rendering thumbnail of %s: %w", src, err)
	}
	return nil
}

func (r *Renderer) renderWithImaging(src string) ([]byte, error) {
	img, err := LoadImageConstrained(src, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, r.Size, r.Size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Pauser blocks while processing should hold back, returning false when
// processing should stop altogether. memory.Monitor implements it.
type Pauser interface {
	WaitIfPaused() bool
}

// RenderOptions controls RenderAll.
type RenderOptions struct {
	Workers int
	Monitor Pauser
	// Progress, when set, is called after every finished job.
	Progress func(job Job, err error)
}

// RenderStats counts the outcome of a RenderAll run.
type RenderStats struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// RenderAll renders jobs on a bounded pool. Failures are logged per job and
// never abort the batch. Cancelling ctx stops new jobs from starting; jobs
// not started are counted as skipped and the returned error is ctx.Err().
func (r *Renderer) RenderAll(ctx context.Context, jobs []Job, opts RenderOptions) (RenderStats, error) {
	size := opts.Workers
	if size <= 0 {
		size = workers.ForCPU(0)
	}

	logging.Info("Rendering %d thumbnails with %d workers (%s)", len(jobs), size, r.Backend)

	var succeeded, failed atomic.Int64
	err := workers.Each(ctx, jobs, size, func(ctx context.Context, job Job) {
		if opts.Monitor != nil && !opts.Monitor.WaitIfPaused() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		metrics.ThumbnailWorkersActive.Inc()
		jobErr := r.Render(job.Source(), job.Dest())
		metrics.ThumbnailWorkersActive.Dec()

		if jobErr != nil {
			failed.Add(1)
			logging.Error("Thumbnail failed for %s: %v", job.Source(), jobErr)
		} else {
			succeeded.Add(1)
			logging.Debug("Thumbnail written: %s", job.Dest())
		}
		if opts.Progress != nil {
			opts.Progress(job, jobErr)
		}
	})

	stats := RenderStats{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
	stats.Skipped = len(jobs) - stats.Succeeded - stats.Failed
	if err != nil {
		logging.Warn("Thumbnail rendering interrupted, %d jobs not started", stats.Skipped)
	}
	return stats, err
}
