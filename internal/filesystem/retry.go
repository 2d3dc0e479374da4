package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"static-gallery/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing slash (e.g., "/photos/")
	name string // volume label (e.g., "gallery")
}

// NewVolumeResolver creates a resolver from a map of volume name → absolute path.
// Example:
//
//	NewVolumeResolver(map[string]string{
//	    "gallery":    "/photos",
//	    "thumbnails": "/photos/.thumbnails",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, "/") {
			absPath += "/"
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for a given file path.
// Returns "unknown" if the path doesn't match any configured volume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+"/", mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

// defaultResolver is the package-level resolver set at startup
var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	// If nil, the package-level default is used.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn until it succeeds, fails with anything other than ESTALE,
// or runs out of attempts. op names the operation in logs and metrics.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	o := observe()
	defer func() { o.ObserveRetryDuration(op, volume, time.Since(start).Seconds()) }()

	backoff := config.InitialBackoff
	var (
		result T
		err    error
		zero   T
	)
	for attempt := 0; ; attempt++ {
		result, err = fn()
		switch {
		case err == nil:
			if attempt > 0 {
				logging.Info("NFS %s of %s succeeded on retry %d", op, path, attempt)
				o.ObserveRetrySuccess(op, volume)
			}
			return result, nil
		case !isNFSStaleError(err):
			return zero, err
		}

		o.ObserveStaleError(op, volume)
		if attempt >= config.MaxRetries {
			break
		}

		o.ObserveRetryAttempt(op, volume)
		logging.Debug("NFS %s of %s hit a stale file handle, retry %d/%d in %v",
			op, path, attempt+1, config.MaxRetries, backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, config.MaxBackoff)
	}

	logging.Warn("NFS %s of %s still stale after %d retries: %v", op, path, config.MaxRetries, err)
	o.ObserveRetryFailure(op, volume)
	return zero, err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file
// handle errors. Entries are sorted by name.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	start := time.Now()
	entries, err := withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
	ObserveOperation(path, "readdir", start, err)
	return entries, err
}

// ReadFileWithRetry reads a whole file, retrying the open on ESTALE.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	start := time.Now()
	data, err := withRetry("open", path, config, func() ([]byte, error) {
		return os.ReadFile(path)
	})
	ObserveOperation(path, "read", start, err)
	return data, err
}

// Exists reports whether path can be stat'ed. Errors other than
// not-exist are logged and reported as absent.
func Exists(path string) bool {
	_, err := StatWithRetry(path, DefaultRetryConfig())
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to stat %s: %v", path, err)
	}
	return false
}
