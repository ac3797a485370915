package pipeline

// ItemStatus represents the lifecycle of a work item within one run.
type ItemStatus string

const (
	StatusQueued          ItemStatus = "queued"
	StatusPreparing       ItemStatus = "preparing"
	StatusConflictPending ItemStatus = "conflict_pending"
	StatusProcessing      ItemStatus = "processing"
	StatusSaving          ItemStatus = "saving"
	StatusDone            ItemStatus = "done"
	StatusSkipped         ItemStatus = "skipped"
	StatusError           ItemStatus = "error"
)

// IsTerminal reports whether the status ends an item's state machine.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusSkipped, StatusError:
		return true
	default:
		return false
	}
}

// Label returns the user-facing status text used in item status events.
func (s ItemStatus) Label() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusPreparing:
		return "Preparing"
	case StatusConflictPending:
		return "Awaiting decision"
	case StatusProcessing:
		return "Processing"
	case StatusSaving:
		return "Saving"
	case StatusDone:
		return "Done"
	case StatusSkipped:
		return "Skipped"
	case StatusError:
		return "Error"
	default:
		return string(s)
	}
}

// WorkItem is one unit of pipeline work for a single source media item. Items
// are immutable once enqueued and consumed exactly once by the orchestrator.
type WorkItem struct {
	// Key is the stable identity used to correlate status events with
	// foreground rows: the resolved local path, or the original URL until a
	// fetch rekeys the item.
	Key string
	// SourcePath is the local media file to process.
	SourcePath string
	// ForcedStem overrides stem derivation from the source filename. Set for
	// fetched URLs (sanitized probe title) and rename decisions.
	ForcedStem string
	// FromDownload marks media fetched from a URL during this run, which the
	// keep-downloads policy may delete after processing.
	FromDownload bool
	// ResolvedDir carries an output directory fixed during materialization
	// (an overwrite decision taken before fetching); when set, the
	// orchestrator performs no further conflict check for this item.
	ResolvedDir string
}
