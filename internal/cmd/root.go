// Package cmd provides CLI commands for the parley tool.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the parley build version, overridden at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "parley",
	Short:   "Parley - human-in-the-loop questions for coding agents",
	Version: Version,
	Long: `Parley lets an AI coding agent ask its human questions through popup
terminal windows, without ever owning the terminal the agent runs in.

The agent talks to 'parley serve' over MCP stdio. Each question spawns a
detached terminal window; answers travel back through files in a private
workspace, so the server and the window never share more than a directory.`,
}

// Execute runs the root command and returns an exit code.
// The caller (main) should call os.Exit with this code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		// Check for silent exit (scripting commands that signal status via exit code)
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		// Other errors already printed by cobra
		return 1
	}
	return 0
}

// SilentExitError carries an exit code without an error message. Scripting
// commands return it when the outcome is already on stdout/stderr and only
// the code is left to report.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewSilentExit returns an error that makes Execute exit with code.
func NewSilentExit(code int) error {
	return &SilentExitError{Code: code}
}

// IsSilentExit reports whether err requests a silent exit, and with what code.
func IsSilentExit(err error) (int, bool) {
	var silent *SilentExitError
	if errors.As(err, &silent) {
		return silent.Code, true
	}
	return 0, false
}

func init() {
	// Enable prefix matching for subcommands (e.g., "parley not" -> "parley notify")
	cobra.EnablePrefixMatching = true
}
