package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/session"
)

func TestPlanDoesNotTouchDisk(t *testing.T) {
	root := t.TempDir()
	sess := session.New(root)

	dir := sess.Plan()
	if dir == "" {
		t.Fatal("expected planned directory path")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected no directory on disk, stat err=%v", err)
	}
	if sess.Created() {
		t.Fatal("expected created=false after Plan")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	sess := session.New(t.TempDir())
	sess.Plan()

	first, err := sess.Ensure()
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	second, err := sess.Ensure()
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if first != second {
		t.Fatalf("Ensure returned different paths: %q vs %q", first, second)
	}
	if info, err := os.Stat(first); err != nil || !info.IsDir() {
		t.Fatalf("expected session directory on disk: %v", err)
	}
}

func TestRollbackIfEmpty(t *testing.T) {
	sess := session.New(t.TempDir())
	sess.Plan()
	dir, err := sess.Ensure()
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	sess.RollbackIfEmpty()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected empty session removed, stat err=%v", err)
	}

	// Second rollback must be a no-op, not an error.
	sess.RollbackIfEmpty()
}

func TestRollbackKeepsNonEmpty(t *testing.T) {
	sess := session.New(t.TempDir())
	sess.Plan()
	dir, err := sess.Ensure()
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "a"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	sess.RollbackIfEmpty()
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected non-empty session preserved: %v", err)
	}
}

func TestFindExistingOutput(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Legacy Talk"), 0o755); err != nil {
		t.Fatalf("mkdir legacy: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "2026-01-02_030405", "Old Talk"), 0o755); err != nil {
		t.Fatalf("mkdir dated: %v", err)
	}

	sess := session.New(root)
	sess.Plan()

	if path, ok := sess.FindExistingOutput("Legacy Talk"); !ok || path != filepath.Join(root, "Legacy Talk") {
		t.Fatalf("expected legacy hit, got %q ok=%v", path, ok)
	}
	if path, ok := sess.FindExistingOutput("Old Talk"); !ok || path != filepath.Join(root, "2026-01-02_030405", "Old Talk") {
		t.Fatalf("expected dated hit, got %q ok=%v", path, ok)
	}
	if _, ok := sess.FindExistingOutput("Missing"); ok {
		t.Fatal("expected no hit for unknown stem")
	}
	// The lookup sanitizes the stem the same way output naming does.
	if path, ok := sess.FindExistingOutput("Old: Talk"); !ok || path == "" {
		t.Fatalf("expected sanitized stem to match, got ok=%v", ok)
	}
}

func TestOutputDirFor(t *testing.T) {
	sess := session.New("/out")
	dir := sess.Plan()
	got := sess.OutputDirFor("Talk: AI & You")
	want := filepath.Join(dir, "Talk AI You")
	if got != want {
		t.Fatalf("OutputDirFor = %q, want %q", got, want)
	}
}

func TestEndClearsState(t *testing.T) {
	sess := session.New(t.TempDir())
	sess.Plan()
	if _, err := sess.Ensure(); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	dir := sess.Dir()

	sess.End()
	if sess.Dir() != "" {
		t.Fatal("expected cleared session dir")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("End must not touch disk: %v", err)
	}
}
