package startup

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"static-gallery/internal/gallery"
	"static-gallery/internal/logging"
	"static-gallery/internal/media"
	"static-gallery/internal/mediatypes"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "static-gallery.toml"

// Config holds all build and preview settings.
type Config struct {
	RootDirectory     string   `toml:"root_directory"`
	WebRootURL        string   `toml:"web_root_url"`
	SiteTitle         string   `toml:"site_title"`
	AuthorName        string   `toml:"author_name"`
	FileExtensions    []string `toml:"file_extensions"`
	ExcludeFolders    []string `toml:"exclude_folders"`
	IgnoredExtensions []string `toml:"ignored_extensions"`

	RegenerateThumbnails bool `toml:"regenerate_thumbnails"`
	RereadMetadata       bool `toml:"reread_metadata"`
	RereadSidecar        bool `toml:"reread_sidecar"`
	UseFancyFolders      bool `toml:"use_fancy_folders"`
	IgnoreOtherFiles     bool `toml:"ignore_other_files"`
	ReverseSort          bool `toml:"reverse_sort"`
	FolderThumbnails     bool `toml:"folder_thumbnails"`
	NonInteractive       bool `toml:"non_interactive"`

	ThumbnailWorkers int    `toml:"thumbnail_workers"`
	ThumbnailBackend string `toml:"thumbnail_backend"`
	ThumbnailSize    int    `toml:"thumbnail_size"`
	ThumbnailQuality int    `toml:"thumbnail_quality"`
	TagDelimiter     string `toml:"tag_delimiter"`

	MetricsFile   string `toml:"metrics_file"`
	LogLevel      string `toml:"log_level"`
	ListenAddress string `toml:"listen_address"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		WebRootURL:       "/",
		SiteTitle:        "Gallery",
		FileExtensions:   append([]string(nil), mediatypes.DefaultImageExtensions...),
		FolderThumbnails: true,
		ThumbnailBackend: string(media.BackendImaging),
		ThumbnailSize:    media.DefaultThumbnailSize,
		ThumbnailQuality: media.DefaultThumbnailQuality,
		TagDelimiter:     "|",
		ListenAddress:    ":8080",
	}
}

// Load reads the TOML file at path on top of Default. An empty path falls
// back to $STATIC_GALLERY_CONFIG and then DefaultConfigFile; a missing default
// file is not an error. The returned path is empty when no file was read.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, explicit := resolveConfigPath(path)
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", fmt.Errorf("parse config %s: %s", resolved, strict.String())
			}
			return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		resolved = ""
	default:
		return nil, "", fmt.Errorf("open config: %w", err)
	}

	return &cfg, resolved, nil
}

func resolveConfigPath(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	if env := getEnv("STATIC_GALLERY_CONFIG", ""); env != "" {
		return env, true
	}
	return DefaultConfigFile, false
}

// Validate checks the configuration and normalises it in place: the root
// becomes absolute, the web root gains a trailing slash and extensions are
// lower-cased with a leading dot.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.RootDirectory) == "" {
		problems = append(problems, "root_directory is required")
	} else {
		abs, err := filepath.Abs(c.RootDirectory)
		if err != nil {
			problems = append(problems, fmt.Sprintf("root_directory: %v", err))
		} else {
			c.RootDirectory = abs
		}
	}

	c.WebRootURL = strings.TrimSpace(c.WebRootURL)
	if c.WebRootURL == "" {
		c.WebRootURL = "/"
	}
	if !strings.HasSuffix(c.WebRootURL, "/") {
		c.WebRootURL += "/"
	}

	c.FileExtensions = normalizeExtensions(c.FileExtensions)
	if len(c.FileExtensions) == 0 {
		problems = append(problems, "file_extensions must name at least one extension")
	}
	c.IgnoredExtensions = normalizeExtensions(c.IgnoredExtensions)

	backend, err := media.ParseBackend(c.ThumbnailBackend)
	if err != nil {
		problems = append(problems, fmt.Sprintf("thumbnail_backend: %v", err))
	} else {
		c.ThumbnailBackend = string(backend)
	}
	if c.ThumbnailSize <= 0 {
		problems = append(problems, "thumbnail_size must be positive")
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		problems = append(problems, "thumbnail_quality must be between 1 and 100")
	}
	if c.ThumbnailWorkers < 0 {
		problems = append(problems, "thumbnail_workers must not be negative")
	}
	if c.TagDelimiter == "" {
		problems = append(problems, "tag_delimiter must not be empty")
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			problems = append(problems, fmt.Sprintf("log_level: unknown level %q", c.LogLevel))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = mediatypes.NormalizeExtension(ext)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// GalleryOptions converts the configuration into walker options.
func (c *Config) GalleryOptions() gallery.Options {
	return gallery.Options{
		Root:                 c.RootDirectory,
		WebRootURL:           c.WebRootURL,
		SiteTitle:            c.SiteTitle,
		ImageExtensions:      mediatypes.NewExtensionSet(c.FileExtensions),
		IgnoredExtensions:    mediatypes.NewExtensionSet(c.IgnoredExtensions),
		ExcludeFolders:       c.ExcludeFolders,
		RegenerateThumbnails: c.RegenerateThumbnails,
		RereadMetadata:       c.RereadMetadata,
		RereadSidecar:        c.RereadSidecar,
		FancyFolders:         c.UseFancyFolders,
		IgnoreOtherFiles:     c.IgnoreOtherFiles,
		ReverseSort:          c.ReverseSort,
		FolderThumbnails:     c.FolderThumbnails,
		TagDelimiter:         c.TagDelimiter,
	}
}

// LogConfig prints the effective configuration. source is the file it was
// read from, or empty.
func (c *Config) LogConfig(source string) {
	LogSection("CONFIGURATION")

	if source == "" {
		logging.Info("  Config file:          (none, defaults and flags)")
	} else {
		logging.Info("  Config file:          %s", source)
	}
	logging.Info("  root_directory:       %s", c.RootDirectory)
	logging.Info("  web_root_url:         %s", c.WebRootURL)
	logging.Info("  site_title:           %s", c.SiteTitle)
	logging.Info("  file_extensions:      %s", strings.Join(c.FileExtensions, ", "))
	if len(c.IgnoredExtensions) > 0 {
		logging.Info("  ignored_extensions:   %s", strings.Join(c.IgnoredExtensions, ", "))
	}
	if len(c.ExcludeFolders) > 0 {
		logging.Info("  exclude_folders:      %s", strings.Join(c.ExcludeFolders, ", "))
	}
	logging.Info("  thumbnail_backend:    %s", c.ThumbnailBackend)
	logging.Info("  thumbnail_size:       %d", c.ThumbnailSize)
	logging.Info("  thumbnail_quality:    %d", c.ThumbnailQuality)
	if c.ThumbnailWorkers > 0 {
		logging.Info("  thumbnail_workers:    %d", c.ThumbnailWorkers)
	} else {
		logging.Info("  thumbnail_workers:    auto")
	}
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	logging.Info("")
	logging.Info("  Build flags:")
	logging.Info("    Regenerate thumbnails: %s", onOff(c.RegenerateThumbnails))
	logging.Info("    Reread metadata:       %s", onOff(c.RereadMetadata))
	logging.Info("    Reread sidecars:       %s", onOff(c.RereadSidecar))
	logging.Info("    Fancy folders:         %s", onOff(c.UseFancyFolders))
	logging.Info("    Ignore other files:    %s", onOff(c.IgnoreOtherFiles))
	logging.Info("    Reverse sort:          %s", onOff(c.ReverseSort))
	logging.Info("    Folder thumbnails:     %s", onOff(c.FolderThumbnails))
	if c.MetricsFile != "" {
		logging.Info("    Metrics textfile:      %s", c.MetricsFile)
	}
}

// CheckRoot verifies that the gallery root exists and is writable.
func (c *Config) CheckRoot() error {
	LogSection("DIRECTORY SETUP")

	if err := ensureDirectory(c.RootDirectory); err != nil {
		return fmt.Errorf("gallery root %s: %w", c.RootDirectory, err)
	}
	if err := testWriteAccess(c.RootDirectory); err != nil {
		return fmt.Errorf("gallery root is not writable: %w", err)
	}
	logging.Info("  [OK] Gallery root is writable: %s", c.RootDirectory)
	return nil
}

// WriteSample writes an annotated example configuration to path. An existing
// file is never overwritten.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
