package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/await"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/launch"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/style"
	"github.com/parleyhq/parley/internal/ui"
)

var (
	askOptions  []string
	askTimeout  int
	askProject  string
	askNoWindow bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the user one question in a popup window",
	Long: `Ask a single question in a popup terminal window and print the reply.

This is the scripting face of the request_user_input tool: the question pops
up in its own window, and the reply lands on stdout.

Exit codes:
  0    the user replied (the reply is on stdout)
  1    the window closed without an answer, or the reply was empty
  124  the user did not reply before the timeout

Examples:
  parley ask "Deploy to production?"
  parley ask "Which environment?" --option staging --option production
  parley ask "Proceed?" --timeout 30 --project deploy`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringArrayVar(&askOptions, "option", nil, "Predefined choice (repeatable)")
	askCmd.Flags().IntVar(&askTimeout, "timeout", 0, "Seconds to wait for a reply (default: config)")
	askCmd.Flags().StringVar(&askProject, "project", "", "Project name shown in the window title")
	askCmd.Flags().BoolVar(&askNoWindow, "no-window", false, "Spawn the question UI without a terminal window (testing)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	program, err := launch.Self()
	if err != nil {
		return fmt.Errorf("resolving own binary: %w", err)
	}

	registry := session.NewRegistry(session.Options{
		Program:  program,
		NoWindow: askNoWindow,
		Timings:  session.Timings{DefaultTimeout: cfg.AskTimeout()},
	})

	// Ctrl-C cancels the wait; AskOnce then tears the window down itself.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if ui.IsTerminal() {
		fmt.Fprintln(os.Stderr, "Waiting for a reply in the question window...")
	}

	reply := registry.AskOnce(ctx, session.AskOnceSpec{
		Project: askProject,
		Text:    args[0],
		Options: askOptions,
		Timeout: time.Duration(askTimeout) * time.Second,
	})

	return reportReply(reply, cmd.OutOrStdout())
}

// reportReply prints the outcome of a one-shot ask and maps it to the
// command's exit code contract.
func reportReply(reply session.Reply, out io.Writer) error {
	switch reply.Kind {
	case await.Answered:
		fmt.Fprintln(out, reply.Text)
		return nil
	case await.Empty:
		style.PrintError("The user submitted an empty reply.")
		return NewSilentExit(1)
	case await.TimedOut:
		style.PrintWarning("No reply before the timeout.")
		return NewSilentExit(124)
	case await.Canceled:
		return NewSilentExit(130)
	default:
		style.PrintError("The question window closed before answering.")
		return NewSilentExit(1)
	}
}
