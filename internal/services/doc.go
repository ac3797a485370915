// Package services defines the shared error taxonomy and context annotations
// used by pipeline stages and external tool adapters.
//
// Every failure surfaced by a stage is wrapped with one of the exported
// sentinel errors so the orchestrator can classify it (entry, fetch,
// preparation, transcription, persistence, timeout) without inspecting
// messages. Context helpers carry the work item key, stage name, and run
// identifier for structured logging.
package services
