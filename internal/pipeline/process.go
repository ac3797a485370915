package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/session"
	"scribe/internal/textutil"
	"scribe/internal/transcribe"
)

type itemResult struct {
	status     ItemStatus
	stem       string
	outputPath string
	detail     string
}

// processor drives a single work item through preparing, conflict
// resolution, processing, and saving. It shares the run's session, token,
// rendezvous, and conflict cache with the materializer.
type processor struct {
	cfg         *config.Config
	transcriber transcribe.Transcriber
	formatter   transcribe.TextFormatter
	sess        *session.Session
	rendezvous  *Rendezvous
	conflicts   *conflictCache
	events      Sink
	token       *Token
	logger      *slog.Logger
}

// process runs one item to a terminal state. It never panics the run: every
// failure maps to a terminal error status with a classified detail message.
func (p *processor) process(ctx context.Context, item WorkItem) itemResult {
	ctx = services.WithItemKey(ctx, item.Key)
	logger := logging.WithContext(ctx, p.logger)

	stem := item.ForcedStem
	if stem == "" {
		stem = textutil.StemFromPath(item.SourcePath)
	}
	stem = textutil.SanitizeStem(stem)

	p.setStatus(item.Key, StatusPreparing)
	if err := p.validateSource(item.SourcePath); err != nil {
		return p.fail(logger, item, stem, "preparing", err)
	}

	targetDir := item.ResolvedDir
	if targetDir == "" {
		if existing, found := p.sess.FindExistingOutput(stem); found {
			resolved, outcome := p.resolveConflict(logger, item, stem, existing)
			switch outcome {
			case conflictSkipItem:
				return p.skip(logger, item, stem, "existing output kept")
			case conflictAbort:
				return p.skip(logger, item, stem, "run cancelled")
			case conflictFailed:
				return p.fail(logger, item, stem, "conflict", resolved.err)
			case conflictOverwriteDir:
				targetDir = resolved.dir
			case conflictRenamed:
				stem = resolved.stem
			}
		}
	}

	if p.token.IsCancelled() {
		return p.skip(logger, item, stem, "run cancelled")
	}

	p.setStatus(item.Key, StatusProcessing)
	prepared, err := p.transcriber.PrepareInput(services.WithStage(ctx, "prepare"), item.SourcePath)
	if err != nil {
		return p.fail(logger, item, stem, "processing",
			services.Wrap(services.ErrPreparation, "prepare", "prepare input", "Failed to prepare media for transcription", err))
	}
	defer p.removeTemp(logger, prepared, item.SourcePath)

	if p.token.IsCancelled() {
		return p.skip(logger, item, stem, "run cancelled")
	}

	params := transcribe.Params{
		ChunkSeconds:  p.cfg.ChunkSeconds,
		StrideSeconds: p.cfg.StrideSeconds,
		Language:      p.cfg.Language,
	}
	rawText, err := p.transcriber.Transcribe(services.WithStage(ctx, "transcribe"), prepared, params)
	if err != nil {
		return p.fail(logger, item, stem, "processing",
			services.Wrap(services.ErrTranscription, "transcribe", "run engine", "Transcription failed", err))
	}

	if p.token.IsCancelled() {
		return p.skip(logger, item, stem, "run cancelled")
	}

	p.setStatus(item.Key, StatusSaving)
	outputPath, err := p.save(logger, stem, targetDir, p.formatter.Clean(rawText))
	if err != nil {
		return p.fail(logger, item, stem, "saving", err)
	}

	p.events.Publish(Event{Kind: EventTranscriptReady, Key: item.Key, Path: outputPath})
	p.setStatus(item.Key, StatusDone)
	logger.Info("item done",
		logging.String("stem", stem),
		logging.String("output_path", outputPath),
	)

	p.cleanupDownload(logger, item)
	return itemResult{status: StatusDone, stem: stem, outputPath: outputPath}
}

// validateSource rejects inputs the engine cannot process: missing paths,
// non-regular files, and partially downloaded media.
func (p *processor) validateSource(sourcePath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return services.Wrap(services.ErrEntry, "preparing", "stat source", "Source file is missing", err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrEntry, "preparing", "stat source", "Source is not a regular file", nil)
	}
	if strings.HasSuffix(sourcePath, ".part") {
		return services.Wrap(services.ErrEntry, "preparing", "stat source", "Source is an incomplete download", nil)
	}
	return nil
}

type conflictOutcome int

const (
	conflictSkipItem conflictOutcome = iota
	conflictOverwriteDir
	conflictRenamed
	conflictAbort
	conflictFailed
)

type conflictResolution struct {
	dir  string
	stem string
	err  error
}

// resolveConflict obtains a decision for an output collision, consulting the
// apply-to-all cache before asking the foreground.
func (p *processor) resolveConflict(logger *slog.Logger, item WorkItem, stem, existingDir string) (conflictResolution, conflictOutcome) {
	decision, cached := p.conflicts.replay()
	if !cached {
		p.setStatus(item.Key, StatusConflictPending)
		logger.Info("output conflict detected",
			logging.String("stem", stem),
			logging.String("existing_dir", existingDir),
		)

		var err error
		decision, err = p.rendezvous.AskConflict(stem, existingDir)
		if err != nil {
			if err == errCancelled {
				return conflictResolution{}, conflictAbort
			}
			return conflictResolution{err: err}, conflictFailed
		}
		p.conflicts.remember(decision)
	}

	switch decision.Action {
	case ConflictOverwrite:
		return conflictResolution{dir: existingDir}, conflictOverwriteDir
	case ConflictRename:
		renamed := textutil.SanitizeStem(decision.NewStem)
		if renamed == "" || renamed == stem {
			return conflictResolution{err: services.Wrap(services.ErrEntry, "conflict", "rename", "Rename produced the same name", nil)}, conflictFailed
		}
		return conflictResolution{stem: renamed}, conflictRenamed
	default:
		return conflictResolution{}, conflictSkipItem
	}
}

// save writes the cleaned transcript. A fresh per-item directory created here
// is removed again if the write fails, so failed items leave no empty
// directories behind.
func (p *processor) save(logger *slog.Logger, stem, targetDir, text string) (string, error) {
	freshDir := false
	if targetDir == "" {
		if _, err := p.sess.Ensure(); err != nil {
			return "", services.Wrap(services.ErrPersistence, "saving", "create session dir", "Failed to create output directory", err)
		}
		targetDir = p.sess.OutputDirFor(stem)
		if _, err := os.Stat(targetDir); os.IsNotExist(err) {
			freshDir = true
		}
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPersistence, "saving", "create item dir", "Failed to create output directory", err)
	}

	outputPath := filepath.Join(targetDir, stem+p.cfg.OutputExtension)
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		if freshDir {
			if rmErr := os.Remove(targetDir); rmErr != nil {
				logger.Warn("failed to remove output dir after write failure",
					logging.String("dir", targetDir),
					logging.Error(rmErr),
				)
			}
		}
		return "", services.Wrap(services.ErrPersistence, "saving", "write transcript", "Failed to write transcript", err)
	}
	return outputPath, nil
}

func (p *processor) cleanupDownload(logger *slog.Logger, item WorkItem) {
	if !item.FromDownload || p.cfg.KeepDownloads {
		return
	}
	if err := os.Remove(item.SourcePath); err != nil {
		logger.Warn("failed to delete fetched media",
			logging.String("path", item.SourcePath),
			logging.Error(err),
		)
		return
	}
	logger.Info("deleted fetched media", logging.String("path", item.SourcePath))
}

func (p *processor) removeTemp(logger *slog.Logger, prepared, source string) {
	if prepared == "" || prepared == source {
		return
	}
	if err := os.Remove(prepared); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to delete prepared input",
			logging.String("path", prepared),
			logging.Error(err),
		)
	}
}

func (p *processor) setStatus(key string, status ItemStatus) {
	p.events.Publish(Event{Kind: EventItemStatus, Key: key, StatusLabel: status.Label()})
}

func (p *processor) skip(logger *slog.Logger, item WorkItem, stem, reason string) itemResult {
	p.setStatus(item.Key, StatusSkipped)
	logger.Info("item skipped",
		logging.String("stem", stem),
		logging.String("reason", reason),
	)
	return itemResult{status: StatusSkipped, stem: stem, detail: reason}
}

func (p *processor) fail(logger *slog.Logger, item WorkItem, stem, stage string, err error) itemResult {
	detail := services.Message(err)
	p.events.Publish(Event{Kind: EventLog, Message: fmt.Sprintf("%s: %s", filepath.Base(item.Key), detail)})
	p.setStatus(item.Key, StatusError)
	logger.Error("item failed",
		logging.String(logging.FieldStage, stage),
		logging.String("classification", services.Classify(err)),
		logging.String(logging.FieldErrorHint, errorHint(err)),
		logging.Error(err),
	)
	return itemResult{status: StatusError, stem: stem, detail: detail}
}

func errorHint(err error) string {
	switch services.Classify(err) {
	case "entry":
		return "check that the source path exists and is a finished media file"
	case "preparation":
		return "verify ffmpeg is installed and the media file is readable"
	case "transcription":
		return "verify the transcription engine binary and model are installed"
	case "persistence":
		return "check free space and permissions on the output directory"
	case "timeout":
		return "answer conflict prompts before the rendezvous timeout"
	default:
		return "inspect the log file for details"
	}
}
