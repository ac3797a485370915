// Package media defines the contract for probing and retrieving remote media
// sources. Implementations live under internal/services; the pipeline depends
// only on the interfaces here.
package media

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// ProbeResult describes a remote source without transferring its payload.
type ProbeResult struct {
	Title    string
	Duration time.Duration
	Size     int64
	Formats  []string
}

// FormatPrefs selects the desired download representation.
type FormatPrefs struct {
	Format string
}

// Fetcher probes and retrieves remote media. Both operations honor context
// cancellation and return a *FetchError on extractor or transfer failures.
type Fetcher interface {
	Probe(ctx context.Context, rawURL string) (ProbeResult, error)
	Fetch(ctx context.Context, rawURL, destDir string, prefs FormatPrefs) (string, error)
}

// FetchError is the typed failure raised by Fetcher implementations.
type FetchError struct {
	URL     string
	Op      string // "probe" or "fetch"
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return e.Op + " " + e.URL + ": " + msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsURL reports whether the entry looks like a fetchable remote source.
func IsURL(entry string) bool {
	trimmed := strings.TrimSpace(entry)
	if !strings.Contains(trimmed, "://") {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		return parsed.Host != ""
	default:
		return false
	}
}
