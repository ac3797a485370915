package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying per-item and per-transfer failures. Cancellation
// is deliberately absent: a cancelled run is a normal terminal state, not an
// error, and is detected through the cancellation token instead.
var (
	ErrEntry         = errors.New("entry error")
	ErrFetch         = errors.New("fetch error")
	ErrPreparation   = errors.New("preparation error")
	ErrTranscription = errors.New("transcription error")
	ErrPersistence   = errors.New("persistence error")
	ErrTimeout       = errors.New("decision timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEntry
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the short taxonomy label for a wrapped stage error, used
// in log lines and item status details.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrEntry):
		return "entry"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrPreparation):
		return "preparation"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

// Message strips the sentinel prefix from a wrapped error, leaving the
// human-readable detail for status rows and log lines.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{ErrEntry, ErrFetch, ErrPreparation, ErrTranscription, ErrPersistence, ErrTimeout} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
