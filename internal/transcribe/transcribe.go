// Package transcribe defines the contracts for audio preparation, speech
// recognition, and transcript text cleanup. Implementations live under
// internal/services; the pipeline depends only on the interfaces here.
package transcribe

import "context"

// Params carries batch-wide generation parameters. They are resolved from
// configuration once per run and never mutated mid-run.
type Params struct {
	ChunkSeconds  int
	StrideSeconds int
	Language      string
}

// Transcriber converts a media file into transcript text.
type Transcriber interface {
	// PrepareInput normalizes sourcePath into a model-ready local file
	// (typically a 16 kHz mono wav under the staging directory).
	PrepareInput(ctx context.Context, sourcePath string) (string, error)
	// Transcribe runs recognition over a prepared local file.
	Transcribe(ctx context.Context, localPath string, params Params) (string, error)
}

// TextFormatter normalizes raw engine output before it is persisted.
type TextFormatter interface {
	Clean(rawText string) string
}
