// Package download places fetched media into the download directory without
// clobbering prior downloads: predicted name collisions are resolved through
// a foreground decision before any bytes move, transfers land in a private
// staging directory first, and placement is an atomic move.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/pipeline"
	"scribe/internal/services"
	"scribe/internal/textutil"
)

// ErrSkipped reports that the user chose to keep the existing download.
var ErrSkipped = errors.New("download skipped")

// Resolver downloads one remote source into a destination directory,
// coordinating duplicate decisions through the rendezvous.
type Resolver struct {
	fetcher    media.Fetcher
	rendezvous *pipeline.Rendezvous
	token      *pipeline.Token
	logger     *slog.Logger
}

// New constructs a resolver. The rendezvous may be nil, in which case
// duplicates are always overwritten.
func New(fetcher media.Fetcher, rendezvous *pipeline.Rendezvous, token *pipeline.Token, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		fetcher:    fetcher,
		rendezvous: rendezvous,
		token:      token,
		logger:     logger.With(logging.String(logging.FieldComponent, "download")),
	}
}

// Download probes rawURL, resolves any predicted filename collision in
// destDir, fetches into a private staging directory beneath destDir, and
// atomically moves the result into place. It returns the final path.
func (r *Resolver) Download(ctx context.Context, rawURL, destDir string, prefs media.FormatPrefs) (string, error) {
	probe, err := r.fetcher.Probe(ctx, rawURL)
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "download", "probe", fmt.Sprintf("Failed to probe %s", rawURL), err)
	}

	stem := textutil.SanitizeStem(probe.Title)
	overwrite := false
	if existing := findExisting(destDir, stem); len(existing) > 0 {
		decision, err := r.resolveDuplicate(probe.Title, existing[0])
		if err != nil {
			return "", err
		}
		switch decision.Action {
		case pipeline.DuplicateSkip:
			r.logger.Info("keeping existing download",
				logging.String("url", rawURL),
				logging.String("existing", existing[0]),
			)
			return "", ErrSkipped
		case pipeline.DuplicateOverwrite:
			overwrite = true
		case pipeline.DuplicateRename:
			renamed := textutil.SanitizeStem(decision.NewStem)
			if renamed == "" || renamed == stem {
				return "", services.Wrap(services.ErrEntry, "download", "rename", "Rename produced the same name", nil)
			}
			stem = renamed
		}
	}

	if r.token != nil && r.token.IsCancelled() {
		return "", ErrSkipped
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPersistence, "download", "create dest dir", "Failed to create download directory", err)
	}

	// Staging inside destDir keeps the transfer on the destination
	// filesystem, so the final move is a plain rename in the common case.
	stagingDir, err := os.MkdirTemp(destDir, ".scribe-dl-")
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "download", "create staging dir", "Failed to create staging directory", err)
	}
	defer r.cleanupStaging(stagingDir)

	fetched, err := r.fetcher.Fetch(ctx, rawURL, stagingDir, prefs)
	if err != nil {
		return "", services.Wrap(services.ErrFetch, "download", "fetch", fmt.Sprintf("Failed to fetch %s", rawURL), err)
	}

	finalPath := filepath.Join(destDir, stem+filepath.Ext(fetched))

	// The old files are removed only after the replacement is fully staged,
	// so an interrupted transfer never costs the existing download.
	if overwrite {
		for _, path := range findExisting(destDir, stem) {
			if err := os.Remove(path); err != nil {
				r.logger.Warn("failed to remove replaced download",
					logging.String("path", path),
					logging.Error(err),
				)
			}
		}
	}

	if err := fileutil.MoveFile(fetched, finalPath); err != nil {
		return "", services.Wrap(services.ErrPersistence, "download", "place file", "Failed to move download into place", err)
	}

	r.logger.Info("download complete",
		logging.String("url", rawURL),
		logging.String("path", finalPath),
	)
	return finalPath, nil
}

func (r *Resolver) resolveDuplicate(title, existingPath string) (pipeline.DuplicateDecision, error) {
	if r.rendezvous == nil {
		return pipeline.DuplicateDecision{Action: pipeline.DuplicateOverwrite}, nil
	}
	decision, err := r.rendezvous.AskDuplicate(title, existingPath)
	if err != nil {
		if r.token != nil && r.token.IsCancelled() {
			return pipeline.DuplicateDecision{}, ErrSkipped
		}
		return pipeline.DuplicateDecision{}, err
	}
	return decision, nil
}

func (r *Resolver) cleanupStaging(stagingDir string) {
	if err := os.RemoveAll(stagingDir); err != nil {
		r.logger.Warn("failed to remove staging dir",
			logging.String("dir", stagingDir),
			logging.Error(err),
		)
	}
}

// findExisting returns files in destDir whose name matches stem under any
// extension, sorted by directory order. A prior download with a different
// container format still counts as a duplicate.
func findExisting(destDir, stem string) []string {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if textutil.SanitizeStem(textutil.StemFromPath(name)) == stem {
			matches = append(matches, filepath.Join(destDir, name))
		}
	}
	return matches
}
