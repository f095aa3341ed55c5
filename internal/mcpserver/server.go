// Package mcpserver exposes the human-interaction tools over MCP stdio.
//
// Every tool resolves to a text result the agent can act on. No-answer
// outcomes (timeout, empty reply, closed window) are mapped reply text, not
// protocol errors: the agent should carry on with whatever it learns, and a
// human who walked away is a fact to report, not a fault to raise.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parleyhq/parley/internal/await"
	"github.com/parleyhq/parley/internal/session"
)

// Sessions is the slice of the session layer the tool handlers drive.
// *session.Registry satisfies it.
type Sessions interface {
	AskOnce(ctx context.Context, spec session.AskOnceSpec) session.Reply
	Open(title string, timeout time.Duration) (string, error)
	Ask(ctx context.Context, sessionID, text string, options []string, timeout time.Duration) (session.Reply, error)
	Close(sessionID string) error
}

// Notifier sends a desktop toast.
type Notifier func(title, message string)

// Options configures the MCP server.
type Options struct {
	Sessions Sessions
	Notify   Notifier
	Logger   func(format string, args ...interface{})
	Version  string
}

type server struct {
	sessions Sessions
	notify   Notifier
	logf     func(format string, args ...interface{})
}

// New builds the MCP server with the five interaction tools registered.
func New(opts Options) *mcp.Server {
	if opts.Notify == nil {
		opts.Notify = func(string, string) {}
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...interface{}) {}
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &server{
		sessions: opts.Sessions,
		notify:   opts.Notify,
		logf:     opts.Logger,
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: "parley", Version: opts.Version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "request_user_input",
		Description: "Ask the user a single question in a popup terminal window and wait " +
			"for the answer. Supply predefined options when the question has natural " +
			"choices; the user can always type a free-form reply instead.",
	}, s.requestUserInput)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "message_complete_notification",
		Description: "Show a desktop notification telling the user a task has finished. " +
			"Fire-and-forget; use it when finishing long-running work.",
	}, s.messageComplete)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "start_intensive_chat",
		Description: "Open a persistent terminal chat window for a rapid series of " +
			"questions. Returns a session id for ask_intensive_chat and " +
			"stop_intensive_chat. Close the session when the conversation is done.",
	}, s.startChat)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "ask_intensive_chat",
		Description: "Ask the next question in an open intensive chat session and wait " +
			"for the reply.",
	}, s.askChat)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "stop_intensive_chat",
		Description: "Close an intensive chat session and its window.",
	}, s.stopChat)

	return srv
}

// Run serves MCP over stdio until the client disconnects or ctx ends.
func Run(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, mcp.NewStdioTransport())
}

type requestUserInputArgs struct {
	// Project labels the question window so the user knows who is asking.
	Project string `json:"project"`
	// Message is the question to show. Markdown renders in the window.
	Message string `json:"message"`
	// Options are predefined answers, offered as numbered choices.
	Options []string `json:"options,omitempty"`
	// Timeout in seconds for this one question.
	Timeout int `json:"timeout,omitempty"`
}

type messageCompleteArgs struct {
	Project string `json:"project"`
	Message string `json:"message"`
}

type startChatArgs struct {
	// Title heads the chat window.
	Title string `json:"title"`
	// Timeout in seconds applied to each question in the session.
	Timeout int `json:"timeout,omitempty"`
}

type askChatArgs struct {
	SessionID string   `json:"session_id"`
	Question  string   `json:"question"`
	Options   []string `json:"options,omitempty"`
	Timeout   int      `json:"timeout,omitempty"`
}

type stopChatArgs struct {
	SessionID string `json:"session_id"`
}

func (s *server) requestUserInput(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[requestUserInputArgs]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	reply := s.sessions.AskOnce(ctx, session.AskOnceSpec{
		Project: args.Project,
		Text:    args.Message,
		Options: args.Options,
		Timeout: time.Duration(args.Timeout) * time.Second,
	})
	return textResult(replyText(reply)), nil
}

func (s *server) messageComplete(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[messageCompleteArgs]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	title := args.Project
	if title == "" {
		title = "Parley"
	}
	s.notify(title, args.Message)
	return textResult("Notification sent."), nil
}

func (s *server) startChat(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[startChatArgs]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	id, err := s.sessions.Open(args.Title, time.Duration(args.Timeout)*time.Second)
	if err != nil {
		s.logf("start_intensive_chat: %v", err)
		return errorResult(fmt.Sprintf("Could not start the chat session: %v", err)), nil
	}
	return textResult(fmt.Sprintf(
		"Started intensive chat session %s. Use this session_id with ask_intensive_chat and stop_intensive_chat.", id)), nil
}

func (s *server) askChat(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[askChatArgs]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	reply, err := s.sessions.Ask(ctx, args.SessionID, args.Question, args.Options,
		time.Duration(args.Timeout)*time.Second)
	if err != nil {
		return errorResult(askErrText(args.SessionID, err)), nil
	}
	return textResult(replyText(reply)), nil
}

func (s *server) stopChat(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[stopChatArgs]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if err := s.sessions.Close(args.SessionID); err != nil {
		return errorResult(askErrText(args.SessionID, err)), nil
	}
	return textResult(fmt.Sprintf("Stopped intensive chat session %s.", args.SessionID)), nil
}

// replyText maps a reply to the text the agent sees.
func replyText(reply session.Reply) string {
	switch reply.Kind {
	case await.Answered:
		return "User replied: " + reply.Text
	case await.Empty:
		return "User submitted an empty reply."
	case await.TimedOut:
		return "User did not reply: timed out waiting for a response."
	case await.Canceled:
		return "User did not reply: the request was canceled."
	default:
		return "User did not reply: the question window closed before answering."
	}
}

// askErrText maps session errors to agent-facing text.
func askErrText(id string, err error) string {
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		return fmt.Sprintf("Unknown chat session %s. It may have been closed already.", id)
	case errors.Is(err, session.ErrSessionBusy):
		return "A question is already pending in this session; wait for it to resolve."
	case errors.Is(err, session.ErrSessionClosing):
		return fmt.Sprintf("Chat session %s is shutting down and takes no more questions.", id)
	default:
		return fmt.Sprintf("Chat session %s failed: %v", id, err)
	}
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	r := textResult(text)
	r.IsError = true
	return r
}
