package catalog

import (
	"context"
	"testing"
	"time"

	"scribe/internal/pipeline"
	"scribe/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, status := range []string{"done", "skipped", "error"} {
		record := pipeline.TranscriptRecord{
			RunID:      "run-1",
			Key:        "/media/file.mp3",
			Stem:       "file",
			SourcePath: "/media/file.mp3",
			Status:     status,
			CreatedAt:  time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
		}
		if err := store.RecordTranscript(ctx, record); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Status != "error" || entries[1].Status != "skipped" {
		t.Fatalf("order = %s, %s", entries[0].Status, entries[1].Status)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("created_at should round-trip")
	}
}

func TestByRunReturnsProcessingOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, stem := range []string{"alpha", "beta"} {
		record := pipeline.TranscriptRecord{RunID: "run-2", Stem: stem, Status: "done"}
		if err := store.RecordTranscript(ctx, record); err != nil {
			t.Fatalf("record %s: %v", stem, err)
		}
	}
	if err := store.RecordTranscript(ctx, pipeline.TranscriptRecord{RunID: "other", Stem: "gamma", Status: "done"}); err != nil {
		t.Fatalf("record other run: %v", err)
	}

	entries, err := store.ByRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("by run: %v", err)
	}
	if len(entries) != 2 || entries[0].Stem != "alpha" || entries[1].Stem != "beta" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	if _, err := second.Recent(context.Background(), 10); err != nil {
		t.Fatalf("recent after reopen: %v", err)
	}
}
