// Package runlock enforces single-instance execution with a flock-based lock
// file, so two invocations never interleave writes to the same output root.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"scribe/internal/config"
)

// ErrHeld reports that another process already holds the run lock.
var ErrHeld = errors.New("another scribe run is already active")

// Lock wraps an advisory file lock scoped to the configured log directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// New constructs a lock rooted in the config's log directory.
func New(cfg *config.Config) *Lock {
	path := filepath.Join(cfg.LogDir, "scribe.lock")
	return &Lock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. It returns ErrHeld when another
// process owns it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
