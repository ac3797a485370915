package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Language != "en" {
		t.Fatalf("expected default language, got %q", cfg.Language)
	}
	if cfg.RendezvousTimeoutSeconds != 15 {
		t.Fatalf("expected default rendezvous timeout, got %d", cfg.RendezvousTimeoutSeconds)
	}
	if cfg.OutputExtension != ".txt" {
		t.Fatalf("expected default output extension, got %q", cfg.OutputExtension)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`output_dir = "` + filepath.Join(dir, "out") + `"`,
		`staging_dir = "` + filepath.Join(dir, "staging") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[transcription]",
		`language = " FR "`,
		`output_extension = "md"`,
		"[media]",
		`extensions = ["MP3", ".wav", "", ".wav"]`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Language != "fr" {
		t.Fatalf("expected normalized language, got %q", cfg.Language)
	}
	if cfg.OutputExtension != ".md" {
		t.Fatalf("expected dotted extension, got %q", cfg.OutputExtension)
	}
	if len(cfg.Media.Extensions) != 2 {
		t.Fatalf("expected deduplicated extensions, got %v", cfg.Media.Extensions)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		keyword string
	}{
		{"empty output dir", func(c *config.Config) { c.OutputDir = "" }, "output_dir"},
		{"stride too large", func(c *config.Config) { c.StrideSeconds = c.ChunkSeconds }, "stride_seconds"},
		{"same staging and output", func(c *config.Config) { c.StagingDir = c.OutputDir }, "must differ"},
		{"negative rendezvous timeout", func(c *config.Config) { c.RendezvousTimeoutSeconds = -1 }, "rendezvous_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OutputDir = "/tmp/scribe-test/out"
			cfg.StagingDir = "/tmp/scribe-test/staging"
			cfg.LogDir = "/tmp/scribe-test/logs"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.keyword) {
				t.Fatalf("expected error mentioning %q, got %v", tc.keyword, err)
			}
		})
	}
}

func TestAllowedExtension(t *testing.T) {
	cfg := config.Default()
	if !cfg.AllowedExtension("/media/talk.MP3") {
		t.Fatal("expected uppercase extension to match")
	}
	if cfg.AllowedExtension("/media/notes.txt") {
		t.Fatal("expected .txt to be rejected")
	}
	if cfg.AllowedExtension("/media/noext") {
		t.Fatal("expected extensionless path to be rejected")
	}
}
