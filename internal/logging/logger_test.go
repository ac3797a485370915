package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scribe.log")

	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("run started", Int("entries", 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "INFO") || !strings.Contains(line, "run started") || !strings.Contains(line, "entries=3") {
		t.Fatalf("line = %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestPrettyHandlerPullsComponentForward(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.log")
	logger, err := New(Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.With(String(FieldComponent, "orchestrator")).Info("run finished", String("stem", "my talk"))

	data, _ := os.ReadFile(path)
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, " orchestrator: run finished") {
		t.Fatalf("line = %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as key=value: %q", line)
	}
	if !strings.Contains(line, `stem="my talk"`) {
		t.Fatalf("values with spaces should be quoted: %q", line)
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Error("item failed", Error(errors.New("engine crashed")))

	data, _ := os.ReadFile(path)
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	if decoded["level"] != "error" || decoded["msg"] != "item failed" {
		t.Fatalf("decoded = %v", decoded)
	}
	if _, ok := decoded["ts"]; !ok {
		t.Fatalf("missing ts field: %v", decoded)
	}
	if decoded["error"] != "engine crashed" {
		t.Fatalf("error field = %v", decoded["error"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.log")
	logger, err := New(Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "abc123")
	ctx = services.WithItemKey(ctx, "/media/talk.mp3")
	WithContext(ctx, logger).Info("processing")

	data, _ := os.ReadFile(path)
	line := string(data)
	if !strings.Contains(line, "run_id=abc123") || !strings.Contains(line, "item_key=/media/talk.mp3") {
		t.Fatalf("line = %q", line)
	}
}
