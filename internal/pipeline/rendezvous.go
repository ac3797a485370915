package pipeline

import (
	"errors"
	"sync"
	"time"

	"scribe/internal/services"
)

// ConflictAction resolves an output-directory collision.
type ConflictAction string

const (
	ConflictSkip      ConflictAction = "skip"
	ConflictOverwrite ConflictAction = "overwrite"
	ConflictRename    ConflictAction = "rename"
)

// ConflictDecision is the foreground's answer to a conflict request.
type ConflictDecision struct {
	Action     ConflictAction
	NewStem    string
	ApplyToAll bool
}

// DuplicateAction resolves a predicted download filename collision.
type DuplicateAction string

const (
	DuplicateSkip      DuplicateAction = "skip"
	DuplicateOverwrite DuplicateAction = "overwrite"
	DuplicateRename    DuplicateAction = "rename"
)

// DuplicateDecision is the foreground's answer to a duplicate request.
type DuplicateDecision struct {
	Action  DuplicateAction
	NewStem string
}

// errCancelled aborts a rendezvous wait when the run is cancelled. It is a
// control-flow signal, not a reportable item error.
var errCancelled = errors.New("run cancelled")

// gate is a single-slot request/response handoff. The worker arms it, emits a
// request event, then awaits a decision; the foreground resolves it. At most
// one request is outstanding at a time across the run.
type gate[D any] struct {
	mu sync.Mutex
	ch chan D
}

func (g *gate[D]) arm() <-chan D {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ch = make(chan D, 1)
	return g.ch
}

func (g *gate[D]) disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ch = nil
}

// resolve delivers a decision into the armed slot. It reports false when no
// request is outstanding or the slot was already filled.
func (g *gate[D]) resolve(decision D) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ch == nil {
		return false
	}
	select {
	case g.ch <- decision:
		return true
	default:
		return false
	}
}

// Rendezvous coordinates the synchronous decision handoffs between the
// background worker and the foreground. Waits are bounded: a decision, a
// cancellation, or the configured timeout releases the worker.
type Rendezvous struct {
	conflicts  gate[ConflictDecision]
	duplicates gate[DuplicateDecision]
	timeout    time.Duration
	token      *Token
	events     Sink
}

// NewRendezvous constructs the rendezvous coordinator.
func NewRendezvous(events Sink, token *Token, timeout time.Duration) *Rendezvous {
	if events == nil {
		events = NopSink()
	}
	return &Rendezvous{timeout: timeout, token: token, events: events}
}

// AskConflict publishes a conflict request and blocks until the foreground
// decides, the run is cancelled, or the timeout elapses.
func (r *Rendezvous) AskConflict(stem, existingDir string) (ConflictDecision, error) {
	ch := r.conflicts.arm()
	defer r.conflicts.disarm()

	r.events.Publish(Event{Kind: EventConflictRequest, Stem: stem, ExistingDir: existingDir})
	return awaitDecision(ch, r.token, r.timeout, "conflict")
}

// DecideConflict delivers the foreground's conflict decision. It reports
// false when no conflict request is outstanding.
func (r *Rendezvous) DecideConflict(decision ConflictDecision) bool {
	return r.conflicts.resolve(decision)
}

// AskDuplicate publishes a duplicate-download request and blocks until the
// foreground decides, the run is cancelled, or the timeout elapses.
func (r *Rendezvous) AskDuplicate(title, existingPath string) (DuplicateDecision, error) {
	ch := r.duplicates.arm()
	defer r.duplicates.disarm()

	r.events.Publish(Event{Kind: EventDuplicateRequest, Title: title, ExistingPath: existingPath})
	return awaitDecision(ch, r.token, r.timeout, "duplicate")
}

// DecideDuplicate delivers the foreground's duplicate decision. It reports
// false when no duplicate request is outstanding.
func (r *Rendezvous) DecideDuplicate(decision DuplicateDecision) bool {
	return r.duplicates.resolve(decision)
}

func awaitDecision[D any](ch <-chan D, token *Token, timeout time.Duration, kind string) (D, error) {
	var zero D
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var cancelled <-chan struct{}
	if token != nil {
		cancelled = token.Done()
	}

	select {
	case decision := <-ch:
		return decision, nil
	case <-cancelled:
		return zero, errCancelled
	case <-timer.C:
		return zero, services.Wrap(services.ErrTimeout, kind, "await decision", "No decision arrived before the rendezvous timeout", nil)
	}
}
