package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/media"
)

// probeSeparator delimits the fields emitted by the metadata probe. Chosen
// because yt-dlp never emits it inside a numeric field and titles containing
// it survive SplitN.
const probeSeparator = "|||"

var probeTemplate = strings.Join([]string{
	"%(title)s",
	"%(duration)s",
	"%(filesize,filesize_approx)s",
	"%(ext)s",
}, probeSeparator)

// Probe queries metadata for rawURL without downloading anything.
func (c *Client) Probe(ctx context.Context, rawURL string) (media.ProbeResult, error) {
	probeCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	args := []string{
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
		"--print", probeTemplate,
		rawURL,
	}
	lines, err := c.collectLines(probeCtx, args)
	if err != nil {
		return media.ProbeResult{}, &media.FetchError{URL: rawURL, Op: "probe", Message: "metadata query failed", Err: err}
	}

	for _, line := range lines {
		fields := strings.SplitN(strings.TrimSpace(line), probeSeparator, 4)
		if len(fields) != 4 {
			continue
		}
		title := strings.TrimSpace(fields[0])
		if title == "" || title == "NA" {
			continue
		}
		return media.ProbeResult{
			Title:    title,
			Duration: time.Duration(parseFloat(fields[1]) * float64(time.Second)),
			Size:     parseInt64(fields[2]),
			Formats:  []string{strings.TrimSpace(fields[3])},
		}, nil
	}
	return media.ProbeResult{}, &media.FetchError{URL: rawURL, Op: "probe", Message: "no metadata in yt-dlp output", Err: errors.New("empty probe result")}
}

// Fetch downloads rawURL into destDir and returns the local file path. The
// final path is taken from yt-dlp's post-move filepath report, so renames
// performed by the downloader are reflected.
func (c *Client) Fetch(ctx context.Context, rawURL, destDir string, prefs media.FormatPrefs) (string, error) {
	if err := ensureDir(destDir); err != nil {
		return "", &media.FetchError{URL: rawURL, Op: "fetch", Message: "cannot create destination", Err: err}
	}

	fetchCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--newline",
		"--output", filepath.Join(destDir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--no-simulate",
	}
	if format := strings.TrimSpace(prefs.Format); format != "" {
		args = append(args, "--format", format)
	}
	args = append(args, rawURL)

	var finalPath string
	err := c.exec.Run(fetchCtx, c.binary, args, func(line string) {
		if percent, ok := parseProgress(line); ok {
			if c.progress != nil {
				c.progress(percent)
			}
			return
		}
		if isPathLine(line, destDir) {
			finalPath = strings.TrimSpace(line)
		}
	})
	if err != nil {
		return "", &media.FetchError{URL: rawURL, Op: "fetch", Message: "download failed", Err: err}
	}
	if finalPath == "" {
		return "", &media.FetchError{URL: rawURL, Op: "fetch", Message: "yt-dlp reported no output file", Err: errors.New("missing filepath line")}
	}
	return finalPath, nil
}

// parseProgress extracts the percentage from yt-dlp "[download]  42.7% ..."
// lines.
func parseProgress(line string) (float64, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[download]") {
		return 0, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "[download]"))
	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasSuffix(fields[0], "%") {
		return 0, false
	}
	percent := parseFloat(strings.TrimSuffix(fields[0], "%"))
	if percent < 0 || percent > 100 {
		return 0, false
	}
	return percent, true
}
