package media_test

import (
	"testing"

	"scribe/internal/media"
)

func TestIsURL(t *testing.T) {
	cases := []struct {
		entry string
		want  bool
	}{
		{"https://example.com/watch?v=1", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"/home/user/a.mp3", false},
		{"C:\\media\\a.mp3", false},
		{"not a url", false},
		{"https://", false},
	}
	for _, tc := range cases {
		if got := media.IsURL(tc.entry); got != tc.want {
			t.Fatalf("IsURL(%q) = %v, want %v", tc.entry, got, tc.want)
		}
	}
}
