package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// FileMode is applied to files created by WriteFileAtomic so that a web
// server running as another user can read the generated site.
const FileMode os.FileMode = 0o644

// WriteFileAtomic replaces path with the contents of r. Readers see either
// the old file or the complete new one. Missing parent directories are
// created. An existing file keeps its mode; a new one gets FileMode.
func WriteFileAtomic(path string, r io.Reader) (err error) {
	start := time.Now()
	defer func() { ObserveOperation(path, "write", start, err) }()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", path, err)
	}

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	if err := atomic.WriteFile(path, r); err != nil {
		return err
	}
	if isNew {
		if err := os.Chmod(path, FileMode); err != nil {
			return fmt.Errorf("setting mode of %s: %w", path, err)
		}
	}
	return nil
}
