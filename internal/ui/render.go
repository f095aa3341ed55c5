package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders question text as terminal markdown. Rendering
// failures fall back to the raw text: a question must always be readable.
func RenderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// FormatRemaining formats a countdown as "3m05s" or "42s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if mins > 0 {
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
