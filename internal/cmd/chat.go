package cmd

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/tui/chat"
)

var chatWorkspace string

var chatCmd = &cobra.Command{
	Use:    "chat",
	Short:  "Run the intensive-chat window",
	Hidden: true, // spawned by the server, not for direct use
	RunE:   runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatWorkspace, "workspace", "", "Session workspace directory")
	_ = chatCmd.MarkFlagRequired("workspace")
}

func runChat(cmd *cobra.Command, args []string) error {
	ws := chatWorkspace
	logf, closeLog := uiLogger(ws)
	defer closeLog()

	// Missing session metadata is survivable; the window falls back to a
	// generic title and still serves the queue.
	info := protocol.ReadSessionInfo(ws)

	hb := heartbeat.NewWriter(filepath.Join(ws, protocol.HeartbeatFile), logf)
	hb.Start()
	defer hb.Stop()

	m := chat.New(ws, info, logf)

	logf("chat ui up (%s)", m.Title())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logf("chat ui error: %v", err)
		return err
	}
	return nil
}
