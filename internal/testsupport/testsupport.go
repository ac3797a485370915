// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// NewConfig returns a validated config rooted in per-test temporary
// directories, with a short rendezvous timeout so decision-path tests stay
// fast.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(root, "transcripts")
	cfg.StagingDir = filepath.Join(root, "staging")
	cfg.DownloadDir = filepath.Join(root, "downloads")
	cfg.LogDir = filepath.Join(root, "logs")
	cfg.Workflow.RendezvousTimeoutSeconds = 2

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WriteFile creates path (and parent directories) with the given content.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
