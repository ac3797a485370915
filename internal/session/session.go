package session

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"scribe/internal/textutil"
)

const dirTimestampLayout = "2006-01-02_150405"

// Session groups one batch run's transcript output under a dated directory.
// It is exclusively owned by a single orchestrator run; there are no
// concurrent writers, so idempotence rather than locking keeps Ensure safe.
type Session struct {
	root    string
	dir     string
	created bool
	now     func() time.Time
}

// New constructs a session manager over the configured output root.
func New(outputRoot string) *Session {
	return &Session{root: outputRoot, now: time.Now}
}

// Plan computes the dated session directory path without touching the
// filesystem and resets the created flag. The path is stable for the run.
func (s *Session) Plan() string {
	s.dir = filepath.Join(s.root, s.now().Format(dirTimestampLayout))
	s.created = false
	return s.dir
}

// Dir returns the planned session directory, or the empty string before Plan.
func (s *Session) Dir() string {
	return s.dir
}

// Created reports whether Ensure has created the session directory on disk.
func (s *Session) Created() bool {
	return s.created
}

// Ensure creates the planned directory tree on first call and is a no-op
// afterwards.
func (s *Session) Ensure() (string, error) {
	if s.dir == "" {
		s.Plan()
	}
	if s.created {
		return s.dir, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	s.created = true
	return s.dir, nil
}

// RollbackIfEmpty removes the session directory when it exists and contains
// zero entries. Deletion errors are swallowed; a directory observed non-empty
// is never removed.
func (s *Session) RollbackIfEmpty() {
	if s.dir == "" {
		return
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	if len(entries) == 0 {
		_ = os.RemoveAll(s.dir)
		s.created = false
	}
}

// End clears in-memory session state without touching disk.
func (s *Session) End() {
	s.dir = ""
	s.created = false
}

// OutputDirFor returns the output directory for a stem inside the current
// session. It is a pure computation and creates nothing.
func (s *Session) OutputDirFor(stem string) string {
	return filepath.Join(s.dir, textutil.SanitizeStem(stem))
}

// FindExistingOutput searches the legacy flat layout (root/stem) and every
// session subdirectory (root/*/stem) for prior output with the same sanitized
// stem. Subdirectories are visited in sorted order so results are stable
// within a process run.
func (s *Session) FindExistingOutput(stem string) (string, bool) {
	sanitized := textutil.SanitizeStem(stem)

	legacy := filepath.Join(s.root, sanitized)
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy, true
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		candidate := filepath.Join(s.root, name, sanitized)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
