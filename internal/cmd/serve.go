package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/launch"
	"github.com/parleyhq/parley/internal/mcpserver"
	"github.com/parleyhq/parley/internal/notify"
	"github.com/parleyhq/parley/internal/session"
)

var serveNoWindow bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Parley MCP server on stdio",
	Long: `Start the MCP server that coding agents connect to over stdio.

The server exposes five tools:
  request_user_input             Ask one question in a popup window
  message_complete_notification  Desktop toast when a task finishes
  start_intensive_chat           Open a persistent chat window
  ask_intensive_chat             Ask the next question in a chat session
  stop_intensive_chat            Close a chat session

Register it with your agent as a stdio MCP server, e.g. in an MCP config:

  { "command": "parley", "args": ["serve"] }

Configuration is read from ~/.config/parley/config.toml (see parley --help)
with PARLEY_TIMEOUT_SECONDS, PARLEY_TERMINAL and PARLEY_LOG_FILE overrides.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoWindow, "no-window", false, "Spawn question UIs without a terminal window (testing)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog, err := serveLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logf := logger.Printf

	// The terminal choice from config rides the same env var the launcher
	// already reads, so spawned windows inherit it.
	if cfg.Terminal.Program != "" && os.Getenv("PARLEY_TERMINAL") == "" {
		os.Setenv("PARLEY_TERMINAL", cfg.Terminal.Program)
	}

	program, err := launch.Self()
	if err != nil {
		return fmt.Errorf("resolving own binary: %w", err)
	}

	registry := session.NewRegistry(session.Options{
		Program:  program,
		NoWindow: serveNoWindow,
		Timings:  session.Timings{DefaultTimeout: cfg.AskTimeout()},
		Logger:   logf,
	})
	registry.Start()
	defer registry.Stop()

	srv := mcpserver.New(mcpserver.Options{
		Sessions: registry,
		Notify: func(title, message string) {
			notify.Send(title, message, logf)
		},
		Logger:  logf,
		Version: Version,
	})

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logf("shutting down on %v", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logf("parley %s serving MCP on stdio (default timeout %s)", Version, cfg.AskTimeout())

	// Blocks until the client disconnects or the context is canceled.
	if err := mcpserver.Run(ctx, srv); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// serveLogger returns the server log destination: the configured file, or
// stderr when none is set. Stdout is off limits, the MCP transport owns it.
func serveLogger(cfg *config.Config) (*log.Logger, func(), error) {
	if cfg.Log.File == "" {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }, nil
}
