package textutil_test

import (
	"testing"

	"scribe/internal/textutil"
)

func TestSanitizeStem(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Talk", "My Talk"},
		{"punctuation", "Talk: AI & You", "Talk AI You"},
		{"slashes", "a/b\\c", "a b c"},
		{"diacritics", "Café Société", "Cafe Societe"},
		{"collapsed whitespace", "  too   many \t spaces ", "too many spaces"},
		{"trailing dots", "name...", "name"},
		{"empty", "   ", "untitled"},
		{"only unsafe", "???", "untitled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := textutil.SanitizeStem(tc.input); got != tc.want {
				t.Fatalf("SanitizeStem(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestStemFromPath(t *testing.T) {
	if got := textutil.StemFromPath("/media/clips/a.mp4"); got != "a" {
		t.Fatalf("StemFromPath = %q, want %q", got, "a")
	}
	if got := textutil.StemFromPath("/media/clips/Talk: One.wav"); got != "Talk One" {
		t.Fatalf("StemFromPath = %q, want %q", got, "Talk One")
	}
}
