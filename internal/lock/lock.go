package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"static-gallery/internal/logging"

	"github.com/gofrs/flock"
)

// FileName is the sentinel created in the gallery root during a build.
const FileName = ".lock"

// ErrLocked is returned when the sentinel already exists.
var ErrLocked = errors.New("another build is already running on this directory")

// Lock is a held build lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// Path returns the lock file location for a gallery root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Acquire creates the sentinel for root without blocking. If the sentinel
// already exists, whether held by a running build or left behind by one
// that crashed, ErrLocked is returned and the file is left alone. The new
// sentinel is also flocked so a second process racing on the same file
// cannot take it.
func Acquire(root string) (*Lock, error) {
	path := Path(root)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		logging.Warn("closing lock file %s: %v", path, err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil || !ok {
		_ = os.Remove(path)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}

	logging.Debug("Acquired build lock %s", path)
	return &Lock{path: path, flock: fl}, nil
}

// Release drops the flock and removes the sentinel.
func (l *Lock) Release() error {
	unlockErr := l.flock.Unlock()
	removeErr := os.Remove(l.path)
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}

	if err := errors.Join(unlockErr, removeErr); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	logging.Debug("Released build lock %s", l.path)
	return nil
}
