package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", " ",
	"\\", " ",
	":", " ",
	"*", " ",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"&", "",
	"#", "",
	"%", "",
)

// diacriticFolder decomposes characters and strips combining marks, so
// "Café" folds to "Cafe" before filesystem sanitization.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeStem derives a filesystem-safe, extension-free base name from a
// title or filename. Diacritics are folded, unsafe characters dropped or
// spaced, and runs of whitespace collapsed to single spaces. Returns
// "untitled" when nothing printable survives.
func SanitizeStem(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "untitled"
	}
	if folded, _, err := transform.String(diacriticFolder, value); err == nil {
		value = folded
	}
	value = fileNameReplacer.Replace(value)
	value = strings.Join(strings.Fields(value), " ")
	value = strings.Trim(value, ". ")
	if value == "" {
		return "untitled"
	}
	return value
}

// StemFromPath derives a sanitized stem from a file path's base name.
func StemFromPath(path string) string {
	base := filepath.Base(path)
	return SanitizeStem(strings.TrimSuffix(base, filepath.Ext(base)))
}
