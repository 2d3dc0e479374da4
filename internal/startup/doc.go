// Package startup loads the build configuration and prints the startup and
// shutdown log sections.
//
// # Configuration
//
// [Load] reads a TOML file on top of [Default]. Without an explicit path it
// tries $STATIC_GALLERY_CONFIG, then static-gallery.toml in the working
// directory. Unknown keys are rejected. [Config.Validate] makes the root
// absolute, adds the trailing slash to web_root_url and lower-cases
// extensions. [WriteSample] writes an annotated example file.
//
// Environment variables read elsewhere still apply: LOG_LEVEL and DEBUG
// (logging), THUMBNAIL_WORKERS (workers), MEMORY_LIMIT, MEMORY_RATIO and
// GOMEMLIMIT (memory).
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [PrintBanner] and [LogSystemInfo]: first lines of every run
//   - [Config.LogConfig]: effective settings
//   - [LogHTTPRoutes] and [LogServerStarted]: preview server
//   - [LogShutdownInitiated] and [LogShutdownComplete]: graceful stop
package startup
