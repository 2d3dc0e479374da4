package main

import (
	"context"

	"static-gallery/internal/metrics"
	"static-gallery/internal/server"
	"static-gallery/internal/startup"
)

func runServe(ctx context.Context, cfg *startup.Config, source string) error {
	startup.PrintBanner()
	startup.LogSystemInfo()
	cfg.LogConfig(source)
	if err := cfg.CheckRoot(); err != nil {
		return err
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	srv := server.New(server.Config{
		Root:    cfg.RootDirectory,
		Address: cfg.ListenAddress,
	})
	return srv.Run(ctx)
}
