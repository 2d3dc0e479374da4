package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"static-gallery/internal/filesystem"
	"static-gallery/internal/gallery"
	"static-gallery/internal/lock"
	"static-gallery/internal/logging"
	"static-gallery/internal/media"
	"static-gallery/internal/memory"
	"static-gallery/internal/metrics"
	"static-gallery/internal/progress"
	"static-gallery/internal/render"
	"static-gallery/internal/startup"
	"static-gallery/internal/workers"

	"github.com/google/uuid"
)

// buildReport is what a build did, for the summary table.
type buildReport struct {
	RunID      string
	Walk       gallery.Stats
	Jobs       int
	Thumbnails media.RenderStats
	Tags       int
	WalkTime   time.Duration
	ThumbTime  time.Duration
	Total      time.Duration
	Status     string
}

// runBuild walks the gallery, renders its pages and then its thumbnails.
// The report is returned even when the build was interrupted.
func runBuild(ctx context.Context, cfg *startup.Config, source string, out io.Writer) (*buildReport, error) {
	start := time.Now()
	report := &buildReport{RunID: uuid.NewString()[:8], Status: "success"}
	logging.SetPrefix(report.RunID)
	defer logging.SetPrefix("")

	startup.PrintBanner()
	startup.LogSystemInfo()
	memory.ConfigureFromEnv()
	cfg.LogConfig(source)
	if err := cfg.CheckRoot(); err != nil {
		return nil, err
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"gallery":    cfg.RootDirectory,
		"thumbnails": filepath.Join(cfg.RootDirectory, media.ThumbnailDir),
	}))

	defer func() {
		report.Total = time.Since(start)
		finishMetrics(cfg, report)
	}()

	l, err := lock.Acquire(cfg.RootDirectory)
	if err != nil {
		report.Status = "locked"
		return report, err
	}
	defer func() {
		if err := l.Release(); err != nil {
			logging.Warn("%v", err)
		}
	}()

	metrics.BuildIsRunning.Set(1)
	defer metrics.BuildIsRunning.Set(0)

	err = build(ctx, cfg, report)
	switch {
	case errors.Is(err, context.Canceled):
		report.Status = "canceled"
	case err != nil:
		report.Status = "error"
	}

	report.Total = time.Since(start)
	if out != nil {
		fmt.Fprintln(out, renderSummary(report))
	}
	return report, err
}

func build(ctx context.Context, cfg *startup.Config, report *buildReport) error {
	interactive := progress.Interactive(cfg.NonInteractive)

	pages, err := render.New(render.Site{
		Title:        cfg.SiteTitle,
		RootURL:      cfg.WebRootURL,
		Author:       cfg.AuthorName,
		Version:      startup.Version,
		TagDelimiter: cfg.TagDelimiter,
	})
	if err != nil {
		return err
	}

	backend, err := media.ParseBackend(cfg.ThumbnailBackend)
	if err != nil {
		return err
	}
	thumbs, err := media.NewRenderer(backend, cfg.ThumbnailSize, cfg.ThumbnailQuality)
	if err != nil {
		return err
	}
	if backend == media.BackendVips {
		defer media.ShutdownVips()
	}

	startup.LogSection("SCANNING")
	opts := cfg.GalleryOptions()
	scanBar := progress.New(progress.Unknown, "Scanning", interactive)
	opts.Progress = func(rel string) {
		if rel == "" {
			rel = "/"
		}
		scanBar.Step(rel)
	}
	walker, err := gallery.NewWalker(opts, pages)
	if err != nil {
		scanBar.Finish()
		return err
	}

	walkStart := time.Now()
	result, walkErr := walker.Walk(ctx)
	scanBar.Finish()
	report.WalkTime = time.Since(walkStart)
	if result != nil {
		report.Walk = result.Stats
		report.Jobs = len(result.Jobs)
		report.Tags = len(result.Tags)
	}
	if walkErr != nil {
		return walkErr
	}

	startup.LogSection("THUMBNAILS")
	if len(result.Jobs) == 0 {
		logging.Info("  [OK] All thumbnails are up to date")
		return nil
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	thumbBar := progress.New(len(result.Jobs), "Thumbnails", interactive)
	thumbStart := time.Now()
	stats, err := thumbs.RenderAll(ctx, result.Jobs, media.RenderOptions{
		Workers: workers.Resolve(cfg.ThumbnailWorkers, 0),
		Monitor: monitor,
		Progress: func(job media.Job, _ error) {
			detail := job.Name
			if monitor.IsPaused() {
				detail = fmt.Sprintf("%s (paused, heap at %.0f%% of limit)", job.Name, monitor.Usage()*100)
			}
			thumbBar.Step(detail)
		},
	})
	thumbBar.Finish()
	report.ThumbTime = time.Since(thumbStart)
	report.Thumbnails = stats
	metrics.BuildLastDuration.WithLabelValues("thumbnails").Set(report.ThumbTime.Seconds())
	return err
}

func finishMetrics(cfg *startup.Config, report *buildReport) {
	metrics.BuildRunsTotal.WithLabelValues(report.Status).Inc()
	metrics.BuildLastDuration.WithLabelValues("total").Set(report.Total.Seconds())
	metrics.BuildLastTimestamp.SetToCurrentTime()
	metrics.GalleryImagesTotal.Set(float64(report.Walk.Images()))
	metrics.GalleryFoldersTotal.Set(float64(report.Walk.FoldersVisited))
	metrics.GalleryTagsTotal.Set(float64(report.Tags))

	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logging.Warn("Failed to write metrics file %s: %v", cfg.MetricsFile, err)
		return
	}
	logging.Debug("Wrote metrics to %s", cfg.MetricsFile)
}
