package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"static-gallery/internal/logging"
	"static-gallery/internal/startup"

	"github.com/spf13/cobra"
)

// buildFlags mirrors the configuration keys that can be overridden on the
// command line. Only flags the user set replace file values.
type buildFlags struct {
	configPath string

	root           string
	webRoot        string
	title          string
	extensions     []string
	exclude        []string
	ignored        []string
	workers        int
	backend        string
	metricsFile    string
	logLevel       string
	listen         string
	regenerate     bool
	rereadMetadata bool
	rereadSidecar  bool
	fancyFolders   bool
	ignoreOther    bool
	reverseSort    bool
	folderThumbs   bool
	nonInteractive bool
}

func newRootCommand() *cobra.Command {
	flags := &buildFlags{}

	rootCmd := &cobra.Command{
		Use:           "static-gallery [root]",
		Short:         "Build a static HTML gallery from a directory of images",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildCommand(cmd, flags, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	addBuildFlags(rootCmd, flags)

	rootCmd.AddCommand(newBuildCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func addBuildFlags(cmd *cobra.Command, flags *buildFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.webRoot, "web-root", "", "URL prefix of generated links")
	f.StringVar(&flags.title, "title", "", "Title of the root page")
	f.StringSliceVar(&flags.extensions, "ext", nil, "Image extensions to include")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "Folder names or globs to link without visiting")
	f.StringSliceVar(&flags.ignored, "ignore-ext", nil, "Extensions to leave out of listings")
	f.IntVarP(&flags.workers, "workers", "j", 0, "Thumbnail workers (0 = one per CPU)")
	f.StringVar(&flags.backend, "backend", "", "Thumbnail backend (imaging, vips)")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the build")
	f.BoolVarP(&flags.regenerate, "regenerate", "r", false, "Delete caches and thumbnails and rebuild them")
	f.BoolVar(&flags.rereadMetadata, "reread-metadata", false, "Inspect every image again")
	f.BoolVar(&flags.rereadSidecar, "reread-sidecar", false, "Refresh tags from XMP sidecars")
	f.BoolVar(&flags.fancyFolders, "fancy-folders", false, "Render pages for folders without images")
	f.BoolVar(&flags.ignoreOther, "ignore-other-files", false, "Ignore non-image files when deciding to render")
	f.BoolVar(&flags.reverseSort, "reverse", false, "Sort images in descending name order")
	f.BoolVar(&flags.folderThumbs, "folder-thumbnails", true, "Show a thumbnail on subfolder links")
	f.BoolVar(&flags.nonInteractive, "non-interactive", false, "Never draw progress bars")
}

func newBuildCommand(flags *buildFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Build or update the gallery (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildCommand(cmd, flags, args)
		},
	}
	addBuildFlags(cmd, flags)
	return cmd
}

func newServeCommand(flags *buildFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve a built gallery for local preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := loadConfig(cmd, flags, args)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, source)
		},
	}
	cmd.Flags().StringVar(&flags.listen, "listen", "", "Listen address")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), startup.GetBuildInfo())
			return err
		},
	}
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := startup.DefaultConfigFile
			if len(args) == 1 {
				target = args[0]
			}
			if err := startup.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	return configCmd
}

func runBuildCommand(cmd *cobra.Command, flags *buildFlags, args []string) error {
	cfg, source, err := loadConfig(cmd, flags, args)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	_, err = runBuild(ctx, cfg, source, cmd.OutOrStdout())
	return err
}

// loadConfig reads the configuration file, applies flags the user set and
// validates the result.
func loadConfig(cmd *cobra.Command, flags *buildFlags, args []string) (*startup.Config, string, error) {
	cfg, source, err := startup.Load(flags.configPath)
	if err != nil {
		return nil, "", err
	}
	flags.apply(cmd, cfg)
	if len(args) == 1 {
		cfg.RootDirectory = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	if cfg.LogLevel != "" {
		if err := logging.SetLevel(cfg.LogLevel); err != nil {
			return nil, "", err
		}
	}
	return cfg, source, nil
}

func (f *buildFlags) apply(cmd *cobra.Command, cfg *startup.Config) {
	changed := func(name string) bool {
		flag := cmd.Flags().Lookup(name)
		return flag != nil && flag.Changed
	}

	if changed("web-root") {
		cfg.WebRootURL = f.webRoot
	}
	if changed("title") {
		cfg.SiteTitle = f.title
	}
	if changed("ext") {
		cfg.FileExtensions = f.extensions
	}
	if changed("exclude") {
		cfg.ExcludeFolders = f.exclude
	}
	if changed("ignore-ext") {
		cfg.IgnoredExtensions = f.ignored
	}
	if changed("workers") {
		cfg.ThumbnailWorkers = f.workers
	}
	if changed("backend") {
		cfg.ThumbnailBackend = f.backend
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("listen") {
		cfg.ListenAddress = f.listen
	}
	if changed("regenerate") {
		cfg.RegenerateThumbnails = f.regenerate
	}
	if changed("reread-metadata") {
		cfg.RereadMetadata = f.rereadMetadata
	}
	if changed("reread-sidecar") {
		cfg.RereadSidecar = f.rereadSidecar
	}
	if changed("fancy-folders") {
		cfg.UseFancyFolders = f.fancyFolders
	}
	if changed("ignore-other-files") {
		cfg.IgnoreOtherFiles = f.ignoreOther
	}
	if changed("reverse") {
		cfg.ReverseSort = f.reverseSort
	}
	if changed("folder-thumbnails") {
		cfg.FolderThumbnails = f.folderThumbs
	}
	if changed("non-interactive") {
		cfg.NonInteractive = f.nonInteractive
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
