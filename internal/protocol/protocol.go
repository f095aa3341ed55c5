// Package protocol defines the file protocol shared by the parent agent
// process and the detached question UIs.
//
// A session workspace is a directory of small files. The parent and the UI
// share no pipe, socket, or memory: every value crosses over as a whole-file
// write (temp file + rename), so a reader never observes a partial value.
// Non-empty content is the signal that a value has arrived; a missing or
// zero-length file means "not yet".
//
// Workspace layout:
//
//	question.json        single-question mode: written by the parent before spawn
//	input-queue.json     chat mode: at most one pending question
//	response.txt         single-question mode: the answer
//	response-<id>.txt    chat mode: the answer to question <id>
//	heartbeat.json       touched by the UI on a fixed cadence
//	session.json         chat mode: session metadata for the UI header
//	close-session        sentinel: any content tells the UI to shut down
//	ui.log               UI process log
//
// Ownership rules: the parent never deletes the input-queue file (the UI
// deletes it after taking a question for display), and the UI writes each
// response file at most once (the parent consumes and deletes it).
package protocol

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Workspace file names. All are relative to the workspace directory.
const (
	// QuestionFile carries the question in single-question mode. It is
	// written before the UI is spawned so that argv only has to carry the
	// workspace path, keeping the terminal-wrapper escaping surface small.
	QuestionFile = "question.json"

	// QueueFile holds at most one pending question in chat mode.
	QueueFile = "input-queue.json"

	// AnswerFile receives the answer in single-question mode.
	AnswerFile = "response.txt"

	// HeartbeatFile is touched by the UI on a fixed cadence.
	HeartbeatFile = "heartbeat.json"

	// SessionFile holds session metadata for the chat UI header.
	SessionFile = "session.json"

	// CloseSentinel tells the UI to shut down. Any non-empty content counts.
	CloseSentinel = "close-session"

	// UILogFile is where the detached UI process writes its log.
	UILogFile = "ui.log"
)

// AnswerFileFor returns the response file name for a chat question.
func AnswerFileFor(questionID string) string {
	return "response-" + questionID + ".txt"
}

// SessionInfo is written by the parent before spawning a chat UI.
type SessionInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkspace creates a fresh session workspace under the OS temp dir.
// The directory is private to the current user.
func NewWorkspace(prefix string) (string, error) {
	dir, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("creating session workspace: %w", err)
	}
	return dir, nil
}

// RemoveWorkspace deletes a session workspace. Removing a workspace that is
// already gone is not an error, so cleanup paths can run more than once.
func RemoveWorkspace(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing session workspace: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to path via a temp file and rename. Readers on
// the other side of the protocol either see the previous content or the full
// new content, never a prefix.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	_, writeErr := f.Write(data)
	if closeErr := f.Close(); closeErr != nil && writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}

	return os.Rename(tmpPath, path)
}

// EncodeAnswer prepares answer text for a response slot. A trailing newline
// is always appended so that an empty submission still produces non-empty
// content -- the consumer's trailing-whitespace trim turns it back into "".
func EncodeAnswer(answer string) []byte {
	return []byte(answer + "\n")
}

// TrimAnswer strips trailing whitespace from raw response content. Leading
// whitespace is the user's own business. An answer that trims to "" is an
// explicit empty submission, distinct from "no answer yet".
func TrimAnswer(raw string) string {
	return strings.TrimRight(raw, " \t\r\n")
}

// WriteCloseSentinel asks the UI to shut down.
func WriteCloseSentinel(dir string) error {
	return WriteFileAtomic(filepath.Join(dir, CloseSentinel), []byte("close\n"), 0600)
}

// CloseRequested reports whether the close sentinel has been written.
func CloseRequested(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, CloseSentinel))
	return err == nil && info.Size() > 0
}

// WriteSessionInfo records session metadata for the chat UI.
func WriteSessionInfo(dir string, info *SessionInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session info: %w", err)
	}
	return WriteFileAtomic(filepath.Join(dir, SessionFile), data, 0600)
}

// ReadSessionInfo loads session metadata. Returns nil if the file is missing
// or unreadable; the chat UI falls back to a generic header.
func ReadSessionInfo(dir string) *SessionInfo {
	data, err := os.ReadFile(filepath.Join(dir, SessionFile))
	if err != nil {
		return nil
	}
	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil
	}
	return &info
}
