package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrMalformedQueue indicates the input-queue file held something that was
// not a question. The offending file has already been deleted by the time
// this is returned; callers treat it as "no question pending".
var ErrMalformedQueue = errors.New("malformed input-queue file")

// Question is the single pending entry of an input-queue file, and the
// payload of question.json in single-question mode.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`

	// TimeoutSeconds is how long the UI should count down before giving up
	// on this question. Zero means use the UI's default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// ExpiresAt is when the question stops being worth displaying. The UI
	// discards expired questions without showing them: the parent stopped
	// waiting long ago and nobody would consume the answer.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the question is past its display deadline.
func (q *Question) Expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && now.After(q.ExpiresAt)
}

// Validate checks the fields a queue consumer depends on.
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	if q.Text == "" {
		return fmt.Errorf("question %s has no text", q.ID)
	}
	return nil
}

// queueLock guards the read-then-delete and whole-file-write sequences on the
// input queue. Both sides take it; neither holds it for longer than one file
// operation.
func queueLock(dir string) *flock.Flock {
	return flock.New(filepath.Join(dir, QueueFile+".lock"))
}

// PublishQuestion places a question in the session's input queue. The queue
// holds at most one pending question; publishing replaces any previous entry
// (the caller's state machine prevents two in-flight questions, so a replaced
// entry is always an expired leftover).
func PublishQuestion(dir string, q *Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("publishing question: %w", err)
	}

	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling question: %w", err)
	}

	lock := queueLock(dir)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking input queue: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := WriteFileAtomic(filepath.Join(dir, QueueFile), data, 0600); err != nil {
		return fmt.Errorf("writing input queue: %w", err)
	}
	return nil
}

// TakeQuestion removes and returns the pending question, if any. Only the UI
// side calls this; the parent never deletes the queue file.
//
// Returns (nil, nil) when the queue is empty or absent. A file that cannot be
// parsed as a question is deleted and reported as ErrMalformedQueue so the
// caller can log it and move on.
func TakeQuestion(dir string) (*Question, error) {
	lock := queueLock(dir)
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking input queue: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	path := filepath.Join(dir, QueueFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input queue: %w", err)
	}
	if len(data) == 0 {
		// Mid-publish or truncated; the atomic write will land shortly.
		return nil, nil
	}

	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		_ = os.Remove(path)
		return nil, ErrMalformedQueue
	}
	if err := q.Validate(); err != nil {
		_ = os.Remove(path)
		return nil, ErrMalformedQueue
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("consuming input queue: %w", err)
	}
	return &q, nil
}

// WriteQuestion records the question for a single-question workspace.
// Written by the parent before the UI is spawned.
func WriteQuestion(dir string, q *Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("writing question: %w", err)
	}
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling question: %w", err)
	}
	return WriteFileAtomic(filepath.Join(dir, QuestionFile), data, 0600)
}

// ReadQuestion loads the question from a single-question workspace.
func ReadQuestion(dir string) (*Question, error) {
	data, err := os.ReadFile(filepath.Join(dir, QuestionFile))
	if err != nil {
		return nil, fmt.Errorf("reading question file: %w", err)
	}
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parsing question file: %w", err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}
