package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/session"
	"scribe/internal/textutil"
)

// conflictCache replays an apply-to-all decision for later collisions without
// a new rendezvous round-trip. Rename is never sticky: a replayed rename
// would collide across items, so a cached rename downgrades to skip.
type conflictCache struct {
	valid  bool
	action ConflictAction
}

func (c *conflictCache) remember(decision ConflictDecision) {
	if !decision.ApplyToAll {
		return
	}
	c.valid = true
	c.action = decision.Action
	if c.action == ConflictRename {
		c.action = ConflictSkip
	}
}

func (c *conflictCache) replay() (ConflictDecision, bool) {
	if !c.valid {
		return ConflictDecision{}, false
	}
	return ConflictDecision{Action: c.action, ApplyToAll: true}, true
}

// materializer expands raw entries (URL, file, directory) into the flat,
// ordered work list consumed by the orchestrator.
type materializer struct {
	cfg        *config.Config
	fetcher    media.Fetcher
	sess       *session.Session
	rendezvous *Rendezvous
	conflicts  *conflictCache
	events     Sink
	token      *Token
	logger     *slog.Logger
}

// materialize expands entries in order. One bad entry never aborts the batch:
// it produces an error log plus an error status for its key and zero items.
// Cancellation is checked between entries; once set, whatever has been
// produced so far is returned.
func (m *materializer) materialize(ctx context.Context, entries []string) []WorkItem {
	items := make([]WorkItem, 0, len(entries))
	for _, entry := range entries {
		if m.token.IsCancelled() {
			return items
		}
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		switch {
		case media.IsURL(entry):
			if item, ok := m.materializeURL(ctx, entry); ok {
				items = append(items, item)
			}
		default:
			items = append(items, m.materializePath(entry)...)
		}
	}
	return items
}

func (m *materializer) materializePath(entry string) []WorkItem {
	info, err := os.Stat(entry)
	if err != nil {
		m.reportEntryError(entry, fmt.Sprintf("Source not found: %s", entry))
		return nil
	}
	if info.IsDir() {
		return m.materializeDir(entry)
	}
	if !info.Mode().IsRegular() {
		m.reportEntryError(entry, fmt.Sprintf("Not a regular file: %s", entry))
		return nil
	}
	return []WorkItem{{Key: entry, SourcePath: entry}}
}

func (m *materializer) materializeDir(dir string) []WorkItem {
	var matches []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if m.cfg.AllowedExtension(path) {
			matches = append(matches, path)
		}
		return nil
	})
	if walkErr != nil {
		m.reportEntryError(dir, fmt.Sprintf("Failed to scan folder %s: %v", dir, walkErr))
		return nil
	}
	if len(matches) == 0 {
		m.events.Publish(Event{Kind: EventLog, Message: fmt.Sprintf("No media files found in %s", dir)})
		m.logger.Info("no media files in folder", logging.String("dir", dir))
		return nil
	}
	sort.Strings(matches)

	items := make([]WorkItem, 0, len(matches))
	for _, path := range matches {
		items = append(items, WorkItem{Key: path, SourcePath: path})
	}
	return items
}

// materializeURL probes the remote source and resolves any output collision
// before any bytes are transferred, so the user is never asked to wait for a
// download that may be discarded. The returned item is keyed by the fetched
// local path; a rekey event records the identity change.
func (m *materializer) materializeURL(ctx context.Context, rawURL string) (WorkItem, bool) {
	probe, err := m.fetcher.Probe(ctx, rawURL)
	if err != nil {
		m.reportEntryError(rawURL, fmt.Sprintf("Failed to probe %s: %v", rawURL, err))
		return WorkItem{}, false
	}

	stem := textutil.SanitizeStem(probe.Title)
	resolvedDir := ""
	if existing, found := m.sess.FindExistingOutput(stem); found {
		decision, ok := m.resolveConflict(rawURL, stem, existing)
		if !ok {
			return WorkItem{}, false
		}
		switch decision.Action {
		case ConflictSkip:
			m.events.Publish(Event{Kind: EventItemStatus, Key: rawURL, StatusLabel: StatusSkipped.Label()})
			m.logger.Info("skipping url with existing output",
				logging.String("url", rawURL),
				logging.String("existing_dir", existing),
			)
			return WorkItem{}, false
		case ConflictOverwrite:
			resolvedDir = existing
		case ConflictRename:
			stem = textutil.SanitizeStem(decision.NewStem)
		}
	}

	if m.token.IsCancelled() {
		return WorkItem{}, false
	}

	localPath, err := m.fetcher.Fetch(ctx, rawURL, m.cfg.StagingDir, media.FormatPrefs{Format: m.cfg.Fetch.Format})
	if err != nil {
		m.reportEntryError(rawURL, fmt.Sprintf("Failed to fetch %s: %v", rawURL, err))
		return WorkItem{}, false
	}

	m.events.Publish(Event{Kind: EventItemRekey, OldKey: rawURL, NewKey: localPath})
	m.logger.Info("fetched remote media",
		logging.String("url", rawURL),
		logging.String("local_path", localPath),
	)

	return WorkItem{
		Key:          localPath,
		SourcePath:   localPath,
		ForcedStem:   stem,
		FromDownload: true,
		ResolvedDir:  resolvedDir,
	}, true
}

func (m *materializer) resolveConflict(key, stem, existingDir string) (ConflictDecision, bool) {
	if cached, ok := m.conflicts.replay(); ok {
		return cached, true
	}

	m.events.Publish(Event{Kind: EventItemStatus, Key: key, StatusLabel: StatusConflictPending.Label()})
	decision, err := m.rendezvous.AskConflict(stem, existingDir)
	if err != nil {
		if err == errCancelled {
			return ConflictDecision{}, false
		}
		m.reportEntryError(key, fmt.Sprintf("No conflict decision for %s: %v", stem, err))
		return ConflictDecision{}, false
	}
	m.conflicts.remember(decision)
	return decision, true
}

func (m *materializer) reportEntryError(key, message string) {
	m.events.Publish(Event{Kind: EventLog, Message: message})
	m.events.Publish(Event{Kind: EventItemStatus, Key: key, StatusLabel: StatusError.Label()})
	m.logger.Error("entry rejected",
		logging.String(logging.FieldItemKey, key),
		logging.String(logging.FieldEventType, "entry_rejected"),
		logging.String("detail", message),
	)
}
