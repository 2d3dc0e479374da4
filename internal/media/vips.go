package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"static-gallery/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

var errVipsUnavailable = errors.New("libvips not initialized")

// InitVips starts libvips once, routing its log output through the
// application logger at a matching verbosity.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging before Startup so LOG_LEVEL is respected
	vipsLogLevel, threshold := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		if level > threshold {
			return
		}
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Thumbnails are rendered on our own pool, one image per worker
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// vipsLogSettings maps the application level to the level passed to libvips
// and the least severe level forwarded to our logger. vips levels grow more
// verbose as their value increases.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, vips.LogLevel) {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, vips.LogLevelDebug
	case logging.LevelInfo:
		return vips.LogLevelWarning, vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError, vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical, vips.LogLevelCritical
	default:
		return vips.LogLevelWarning, vips.LogLevelError
	}
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// renderWithVips returns src as a JPEG thumbnail fitting size x size.
// libvips shrinks JPEGs during decode, which keeps memory low for large
// sources.
func renderWithVips(src string, size, quality int) ([]byte, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	ref, err := vips.LoadImageFromFile(src, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}

	width, height := ref.Width(), ref.Height()
	if width > size || height > size {
		logging.Debug("Vips shrinking %s from %dx%d into %dx%d", filepath.Base(src), width, height, size, size)
		if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}
