// Package pipeline implements the batch transcription engine: work item
// materialization, the per-item state machine, the conflict rendezvous
// between the background worker and the foreground decision-maker,
// cooperative cancellation, and session lifecycle management.
//
// Exactly one background execution context drives a run. The foreground
// observes it through a multiplexed event stream and feeds decisions back
// through the orchestrator's Decide entry points; it never touches session or
// pipeline state directly.
package pipeline
