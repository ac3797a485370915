package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scribe/internal/media"
	"scribe/internal/pipeline"
	"scribe/internal/services"
)

type stubFetcher struct {
	mu         sync.Mutex
	title      string
	ext        string
	content    string
	fetchCalls int
	fetchErr   error
}

func (s *stubFetcher) Probe(_ context.Context, rawURL string) (media.ProbeResult, error) {
	if s.title == "" {
		return media.ProbeResult{}, fmt.Errorf("no metadata for %s", rawURL)
	}
	return media.ProbeResult{Title: s.title}, nil
}

func (s *stubFetcher) Fetch(_ context.Context, _, destDir string, _ media.FormatPrefs) (string, error) {
	s.mu.Lock()
	s.fetchCalls++
	s.mu.Unlock()
	if s.fetchErr != nil {
		return "", s.fetchErr
	}
	path := filepath.Join(destDir, s.title+s.ext)
	if err := os.WriteFile(path, []byte(s.content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *stubFetcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

// autoDecider answers the first duplicate request with a fixed decision.
type autoDecider struct {
	rendezvous *pipeline.Rendezvous
	decision   pipeline.DuplicateDecision
}

func (d *autoDecider) Publish(event pipeline.Event) {
	if event.Kind == pipeline.EventDuplicateRequest {
		d.rendezvous.DecideDuplicate(d.decision)
	}
}

func newRendezvousWith(decision pipeline.DuplicateDecision) *pipeline.Rendezvous {
	decider := &autoDecider{decision: decision}
	rendezvous := pipeline.NewRendezvous(decider, pipeline.NewToken(), time.Second)
	decider.rendezvous = rendezvous
	return rendezvous
}

func TestDownloadPlacesFileInDestDir(t *testing.T) {
	destDir := t.TempDir()
	fetcher := &stubFetcher{title: "My Talk", ext: ".m4a", content: "media"}
	resolver := New(fetcher, nil, nil, nil)

	path, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(destDir, "My Talk.m4a") {
		t.Fatalf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "media" {
		t.Fatalf("content = %q, err = %v", data, err)
	}

	// The private staging directory must be gone.
	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatalf("read dest dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dest dir entries = %d, want only the download", len(entries))
	}
}

func TestDownloadSkipKeepsExistingFile(t *testing.T) {
	destDir := t.TempDir()
	existing := filepath.Join(destDir, "My Talk.webm")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	fetcher := &stubFetcher{title: "My Talk", ext: ".m4a", content: "new"}
	rendezvous := newRendezvousWith(pipeline.DuplicateDecision{Action: pipeline.DuplicateSkip})
	resolver := New(fetcher, rendezvous, pipeline.NewToken(), nil)

	_, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("err = %v, want ErrSkipped", err)
	}
	if fetcher.calls() != 0 {
		t.Fatalf("fetch calls = %d, want 0", fetcher.calls())
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Fatalf("existing file changed: %q", data)
	}
}

func TestDownloadOverwriteReplacesAfterStaging(t *testing.T) {
	destDir := t.TempDir()
	existing := filepath.Join(destDir, "My Talk.webm")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	fetcher := &stubFetcher{title: "My Talk", ext: ".m4a", content: "new"}
	rendezvous := newRendezvousWith(pipeline.DuplicateDecision{Action: pipeline.DuplicateOverwrite})
	resolver := New(fetcher, rendezvous, pipeline.NewToken(), nil)

	path, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(destDir, "My Talk.m4a") {
		t.Fatalf("path = %s", path)
	}
	if _, err := os.Stat(existing); !os.IsNotExist(err) {
		t.Fatalf("old download should be removed, stat err = %v", err)
	}
}

func TestDownloadOverwriteKeepsOldFileWhenFetchFails(t *testing.T) {
	destDir := t.TempDir()
	existing := filepath.Join(destDir, "My Talk.webm")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	fetcher := &stubFetcher{title: "My Talk", fetchErr: errors.New("network down")}
	rendezvous := newRendezvousWith(pipeline.DuplicateDecision{Action: pipeline.DuplicateOverwrite})
	resolver := New(fetcher, rendezvous, pipeline.NewToken(), nil)

	_, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("err = %v, want fetch error", err)
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Fatalf("existing file should survive a failed fetch: %q", data)
	}
}

func TestDownloadRenameUsesNewStem(t *testing.T) {
	destDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(destDir, "My Talk.m4a"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	fetcher := &stubFetcher{title: "My Talk", ext: ".m4a", content: "new"}
	rendezvous := newRendezvousWith(pipeline.DuplicateDecision{Action: pipeline.DuplicateRename, NewStem: "My Talk v2"})
	resolver := New(fetcher, rendezvous, pipeline.NewToken(), nil)

	path, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(destDir, "My Talk v2.m4a") {
		t.Fatalf("path = %s", path)
	}
	if data, _ := os.ReadFile(filepath.Join(destDir, "My Talk.m4a")); string(data) != "old" {
		t.Fatalf("original download changed: %q", data)
	}
}

func TestDownloadTimeoutWithoutDecision(t *testing.T) {
	destDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(destDir, "My Talk.m4a"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	fetcher := &stubFetcher{title: "My Talk", ext: ".m4a"}
	rendezvous := pipeline.NewRendezvous(pipeline.NopSink(), pipeline.NewToken(), 20*time.Millisecond)
	resolver := New(fetcher, rendezvous, pipeline.NewToken(), nil)

	_, err := resolver.Download(context.Background(), "https://example.com/v/1", destDir, media.FormatPrefs{})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}
