package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/services"
	"scribe/internal/session"
	"scribe/internal/transcribe"
)

// ErrRunActive is returned by Run when a batch is already in flight.
var ErrRunActive = errors.New("a run is already active")

// TranscriptRecord captures one terminal item outcome for the history
// catalog.
type TranscriptRecord struct {
	RunID      string
	Key        string
	Stem       string
	SourcePath string
	OutputPath string
	Status     string
	Detail     string
	CreatedAt  time.Time
}

// RunRecorder persists terminal item outcomes. Implementations must tolerate
// concurrent runs of the binary; recording failures are logged and never fail
// the item.
type RunRecorder interface {
	RecordTranscript(ctx context.Context, record TranscriptRecord) error
}

// Deps wires the orchestrator's collaborators. Fetcher, Transcriber, and
// Formatter are required; Recorder, Events, and Logger are optional.
type Deps struct {
	Config      *config.Config
	Fetcher     media.Fetcher
	Transcriber transcribe.Transcriber
	Formatter   transcribe.TextFormatter
	Recorder    RunRecorder
	Events      Sink
	Logger      *slog.Logger
}

// Summary reports the aggregate outcome of one batch run.
type Summary struct {
	RunID     string
	OutputDir string
	Total     int
	Done      int
	Skipped   int
	Failed    int
	Cancelled bool
}

// Orchestrator owns the batch state machine: it materializes entries into
// work items, drives each item through its stages in order, and coordinates
// conflict and duplicate decisions with the foreground. A single orchestrator
// serves one run at a time.
type Orchestrator struct {
	cfg         *config.Config
	fetcher     media.Fetcher
	transcriber transcribe.Transcriber
	formatter   transcribe.TextFormatter
	recorder    RunRecorder
	events      Sink
	logger      *slog.Logger

	mu         sync.Mutex
	running    bool
	token      *Token
	rendezvous *Rendezvous
}

// New constructs an orchestrator from its dependencies.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Config == nil {
		return nil, errors.New("orchestrator requires a config")
	}
	if deps.Fetcher == nil {
		return nil, errors.New("orchestrator requires a fetcher")
	}
	if deps.Transcriber == nil {
		return nil, errors.New("orchestrator requires a transcriber")
	}
	if deps.Formatter == nil {
		return nil, errors.New("orchestrator requires a text formatter")
	}
	events := deps.Events
	if events == nil {
		events = NopSink()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:         deps.Config,
		fetcher:     deps.Fetcher,
		transcriber: deps.Transcriber,
		formatter:   deps.Formatter,
		recorder:    deps.Recorder,
		events:      events,
		logger:      logger.With(logging.String(logging.FieldComponent, "orchestrator")),
	}, nil
}

// Run executes one batch over the given entries and blocks until every
// materialized item reaches a terminal state or the run is cancelled. Only
// one run may be active at a time.
func (o *Orchestrator) Run(ctx context.Context, entries []string) (Summary, error) {
	token := NewToken()
	rendezvous := NewRendezvous(o.events, token, o.rendezvousTimeout())

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Summary{}, ErrRunActive
	}
	o.running = true
	o.token = token
	o.rendezvous = rendezvous
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.token = nil
		o.rendezvous = nil
		o.mu.Unlock()
	}()

	runID := uuid.NewString()[:8]
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	sess := session.New(o.cfg.OutputDir)
	sessionDir := sess.Plan()
	defer sess.End()

	logger.Info("run started",
		logging.Int("entries", len(entries)),
		logging.String("session_dir", sessionDir),
	)
	o.events.Publish(Event{Kind: EventLog, Message: fmt.Sprintf("Processing %d entr%s", len(entries), pluralY(len(entries)))})

	conflicts := &conflictCache{}
	mat := &materializer{
		cfg:        o.cfg,
		fetcher:    o.fetcher,
		sess:       sess,
		rendezvous: rendezvous,
		conflicts:  conflicts,
		events:     o.events,
		token:      token,
		logger:     logger,
	}
	items := mat.materialize(ctx, entries)

	summary := Summary{RunID: runID, OutputDir: sessionDir, Total: len(items)}
	for _, item := range items {
		o.events.Publish(Event{Kind: EventItemStatus, Key: item.Key, StatusLabel: StatusQueued.Label()})
	}

	proc := &processor{
		cfg:         o.cfg,
		transcriber: o.transcriber,
		formatter:   o.formatter,
		sess:        sess,
		rendezvous:  rendezvous,
		conflicts:   conflicts,
		events:      o.events,
		token:       token,
		logger:      logger,
	}

	for i, item := range items {
		if token.IsCancelled() {
			o.skipRemaining(ctx, runID, items[i:])
			summary.Skipped += len(items) - i
			break
		}

		result := proc.process(ctx, item)
		switch result.status {
		case StatusDone:
			summary.Done++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
		o.record(ctx, runID, item, result)

		o.events.Publish(Event{
			Kind:    EventProgress,
			Percent: float64(i+1) / float64(len(items)) * 100,
			Message: fmt.Sprintf("%d/%d items processed", i+1, len(items)),
		})
	}
	summary.Cancelled = token.IsCancelled()

	if summary.Done == 0 {
		sess.RollbackIfEmpty()
	}

	logger.Info("run finished",
		logging.Int("total", summary.Total),
		logging.Int("done", summary.Done),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Bool("cancelled", summary.Cancelled),
	)
	o.events.Publish(Event{Kind: EventLog, Message: summaryLine(summary)})
	return summary, nil
}

// Cancel requests cooperative cancellation of the active run. It is safe to
// call at any time, including when no run is active.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	token := o.token
	o.mu.Unlock()
	if token != nil {
		token.Cancel()
	}
}

// DecideConflict forwards a foreground conflict decision to the active
// rendezvous. It reports false when no conflict request is outstanding.
func (o *Orchestrator) DecideConflict(decision ConflictDecision) bool {
	o.mu.Lock()
	rendezvous := o.rendezvous
	o.mu.Unlock()
	if rendezvous == nil {
		return false
	}
	return rendezvous.DecideConflict(decision)
}

// DecideDuplicate forwards a foreground duplicate decision to the active
// rendezvous. It reports false when no duplicate request is outstanding.
func (o *Orchestrator) DecideDuplicate(decision DuplicateDecision) bool {
	o.mu.Lock()
	rendezvous := o.rendezvous
	o.mu.Unlock()
	if rendezvous == nil {
		return false
	}
	return rendezvous.DecideDuplicate(decision)
}

func (o *Orchestrator) rendezvousTimeout() time.Duration {
	seconds := o.cfg.Workflow.RendezvousTimeoutSeconds
	if seconds <= 0 {
		seconds = 15
	}
	return time.Duration(seconds) * time.Second
}

func (o *Orchestrator) skipRemaining(ctx context.Context, runID string, items []WorkItem) {
	for _, item := range items {
		o.events.Publish(Event{Kind: EventItemStatus, Key: item.Key, StatusLabel: StatusSkipped.Label()})
		o.record(ctx, runID, item, itemResult{status: StatusSkipped, detail: "run cancelled"})
	}
	o.logger.Info("cancellation observed, remaining items skipped",
		logging.Int("remaining", len(items)),
	)
}

func (o *Orchestrator) record(ctx context.Context, runID string, item WorkItem, result itemResult) {
	if o.recorder == nil || !result.status.IsTerminal() {
		return
	}
	record := TranscriptRecord{
		RunID:      runID,
		Key:        item.Key,
		Stem:       result.stem,
		SourcePath: item.SourcePath,
		OutputPath: result.outputPath,
		Status:     string(result.status),
		Detail:     result.detail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := o.recorder.RecordTranscript(ctx, record); err != nil {
		o.logger.Warn("failed to record transcript outcome",
			logging.String(logging.FieldItemKey, item.Key),
			logging.Error(err),
		)
	}
}

func summaryLine(s Summary) string {
	if s.Cancelled {
		return fmt.Sprintf("Run cancelled: %d done, %d skipped, %d failed of %d", s.Done, s.Skipped, s.Failed, s.Total)
	}
	return fmt.Sprintf("Run complete: %d done, %d skipped, %d failed of %d", s.Done, s.Skipped, s.Failed, s.Total)
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
