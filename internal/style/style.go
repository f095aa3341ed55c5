// Package style centralizes the color palette for plain command output.
// The TUI packages carry their own lipgloss styles; this package covers
// everything printed outside a bubbletea program.
package style

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/parleyhq/parley/internal/ui"
)

// Base styles for command output.
var (
	Bold = lipgloss.NewStyle().Bold(true)
	Dim  = lipgloss.NewStyle().Faint(true)

	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// Rendered prefixes for one-line status output. Computed in init so the
// color gate below applies before anything is rendered.
var (
	SuccessPrefix string
	WarningPrefix string
	ErrorPrefix   string
)

func init() {
	if !ui.ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix = Error.Render("✗")
}

// PrintWarning prints a warning line to stderr.
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningPrefix, fmt.Sprintf(format, args...))
}

// PrintError prints an error line to stderr.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorPrefix, fmt.Sprintf(format, args...))
}
