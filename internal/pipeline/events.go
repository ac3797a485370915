package pipeline

// EventKind discriminates the multiplexed pipeline event stream.
type EventKind string

const (
	EventLog              EventKind = "log"
	EventProgress         EventKind = "progress"
	EventItemStatus       EventKind = "item_status"
	EventItemRekey        EventKind = "item_rekey"
	EventTranscriptReady  EventKind = "transcript_ready"
	EventConflictRequest  EventKind = "conflict_request"
	EventDuplicateRequest EventKind = "duplicate_request"
)

// Event is the single multiplexed notification type consumed by the
// foreground. Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// Log
	Message string

	// Progress
	Percent float64

	// ItemStatus / TranscriptReady
	Key         string
	StatusLabel string
	Path        string

	// ItemRekey
	OldKey string
	NewKey string

	// ConflictRequest
	Stem        string
	ExistingDir string

	// DuplicateRequest
	Title        string
	ExistingPath string
}

// Sink receives pipeline events. Publish is called from the background
// worker; implementations decide how to hand events to the foreground.
// A ConflictRequest or DuplicateRequest publication expects a matching
// Decide call before the rendezvous timeout elapses.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish implements Sink.
func (f SinkFunc) Publish(event Event) { f(event) }

// NopSink discards all events.
func NopSink() Sink { return SinkFunc(func(Event) {}) }
