package ui

import (
	"strings"
	"testing"
	"time"
)

func TestRenderMarkdownKeepsContent(t *testing.T) {
	out := RenderMarkdown("Pick a **color** for the theme", 60)
	if !strings.Contains(out, "color") {
		t.Errorf("rendered markdown lost its content: %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Errorf("rendered markdown keeps a trailing newline: %q", out)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-3 * time.Second, "0s"},
		{42 * time.Second, "42s"},
		{60 * time.Second, "1m00s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{time.Hour, "60m00s"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
