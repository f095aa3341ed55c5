package ui

import "testing"

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "short line untouched",
			text:  "hello world",
			width: 20,
			want:  "hello world",
		},
		{
			name:  "wraps at word boundary",
			text:  "the quick brown fox jumps",
			width: 10,
			want:  "the quick\nbrown fox\njumps",
		},
		{
			name:  "keeps existing newlines",
			text:  "one\ntwo three four",
			width: 9,
			want:  "one\ntwo three\nfour",
		},
		{
			name:  "hard-splits oversized words",
			text:  "abcdefghij",
			width: 4,
			want:  "abcd\nefgh\nij",
		},
		{
			name:  "zero width is a no-op",
			text:  "anything at all",
			width: 0,
			want:  "anything at all",
		},
		{
			name:  "empty text",
			text:  "",
			width: 10,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.text, tt.width); got != tt.want {
				t.Errorf("WrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}
