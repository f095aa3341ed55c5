package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/notify"
	"github.com/parleyhq/parley/internal/style"
)

var (
	notifyTitle   string
	notifyMessage string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a desktop notification",
	Long: `Send a desktop notification through the OS notifier.

Uses osascript on macOS, notify-send on Linux, and a PowerShell toast on
Windows. Mostly useful for checking that notifications work on this machine
before an agent relies on them.

Examples:
  parley notify --message "Build finished"
  parley notify --title "CI" --message "All tests green"`,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVar(&notifyTitle, "title", "Parley", "Notification title")
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "Notification body")
	_ = notifyCmd.MarkFlagRequired("message")
}

func runNotify(cmd *cobra.Command, args []string) error {
	var failed bool
	notify.Send(notifyTitle, notifyMessage, func(format string, args ...interface{}) {
		failed = true
		style.PrintWarning(format, args...)
	})
	if failed {
		return NewSilentExit(1)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Notification sent\n", style.SuccessPrefix)
	return nil
}
