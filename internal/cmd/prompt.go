package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/tui/prompt"
)

var promptWorkspace string

var promptCmd = &cobra.Command{
	Use:    "prompt",
	Short:  "Run the single-question window",
	Hidden: true, // spawned by the server, not for direct use
	RunE:   runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().StringVar(&promptWorkspace, "workspace", "", "Session workspace directory")
	_ = promptCmd.MarkFlagRequired("workspace")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ws := promptWorkspace
	logf, closeLog := uiLogger(ws)
	defer closeLog()

	q, err := protocol.ReadQuestion(ws)
	if err != nil {
		logf("reading question: %v", err)
		return fmt.Errorf("reading question: %w", err)
	}

	hb := heartbeat.NewWriter(filepath.Join(ws, protocol.HeartbeatFile), logf)
	hb.Start()
	defer hb.Stop()

	slot := mailbox.New(filepath.Join(ws, protocol.AnswerFile))
	m := prompt.New(q, slot, logf)

	logf("prompt ui up for question %s", q.ID)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logf("prompt ui error: %v", err)
		return err
	}
	return nil
}

// uiLogger logs to ui.log inside the workspace. The UI runs detached with no
// useful stderr, so the workspace file is the only place diagnostics can go.
// Logging failures degrade to discard rather than blocking the window.
func uiLogger(ws string) (func(format string, args ...interface{}), func()) {
	path := filepath.Join(ws, protocol.UILogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return func(string, ...interface{}) {}, func() {}
	}
	logger := log.New(f, "", log.LstdFlags)
	return logger.Printf, func() { _ = f.Close() }
}
