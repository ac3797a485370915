// Package textfmt normalizes raw engine output into tidy transcript text.
package textfmt

import "strings"

// Formatter implements transcribe.TextFormatter.
type Formatter struct{}

// New constructs a formatter.
func New() Formatter {
	return Formatter{}
}

// Clean normalizes line endings, strips trailing whitespace per line,
// collapses runs of blank lines, and guarantees a single trailing newline.
// Empty input stays empty.
func (Formatter) Clean(rawText string) string {
	normalized := strings.ReplaceAll(rawText, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	cleaned := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		cleaned = append(cleaned, line)
	}

	text := strings.TrimSpace(strings.Join(cleaned, "\n"))
	if text == "" {
		return ""
	}
	return text + "\n"
}
