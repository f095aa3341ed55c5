// Package session owns the parent side of every detached UI exchange: the
// one-shot question flow and the registry of long-lived chat sessions.
//
// Nothing in here talks to the UI process directly. All coordination goes
// through the session workspace files, and everything that can go wrong with
// the UI degrades to a Reply the caller relays to the agent. The only errors
// surfaced are the caller's own mistakes: unknown session ids, a question
// asked while another is pending, operations against a closing session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/await"
	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/launch"
)

var (
	// ErrSpawnFailed means the UI process could not be started at all.
	ErrSpawnFailed = errors.New("could not launch the question window")

	// ErrUnknownSession means the session id is not registered. A closed
	// session is unknown: Closed is terminal, and the registry forgets the
	// id the moment teardown begins.
	ErrUnknownSession = errors.New("unknown session")

	// ErrSessionClosing means the session is in teardown and takes no more
	// questions.
	ErrSessionClosing = errors.New("session is shutting down")

	// ErrSessionBusy means a question is already pending. The protocol is
	// strictly one question at a time per session.
	ErrSessionBusy = errors.New("a question is already pending in this session")
)

// Reply is the outcome of one question put to the user.
type Reply struct {
	Kind await.Kind

	// Text is the answer, set only when Kind is await.Answered.
	Text string
}

// Process is the registry's view of a spawned child. *launch.Handle
// satisfies it.
type Process interface {
	PID() int
	Done() <-chan struct{}
	ExitedAbnormally() bool
	Alive() bool
	Terminate() error
}

// Launcher is the slice of the process launcher the registry needs.
type Launcher interface {
	Launch(spec launch.Spec) (Process, error)
}

// detachedLauncher adapts launch.Detached to the Launcher interface.
type detachedLauncher struct {
	d *launch.Detached
}

func (l detachedLauncher) Launch(spec launch.Spec) (Process, error) {
	h, err := l.d.Launch(spec)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// State tracks a chat session through its life.
type State int

const (
	// StateStarting covers launch until the first fresh heartbeat.
	// Questions are already accepted; the UI picks them up once it is on
	// screen.
	StateStarting State = iota

	// StateActive means the UI has proven itself alive and no question is
	// pending.
	StateActive

	// StateAsking means one question is pending in the workspace.
	StateAsking

	// StateClosing means teardown has begun. A session never leaves this
	// path.
	StateClosing

	// StateClosed is terminal. The registry has already forgotten the id
	// by the time a session gets here.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateAsking:
		return "asking"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one registered chat UI.
type Session struct {
	ID        string
	Title     string
	Workspace string
	CreatedAt time.Time

	// Timeout is the session's own per-question default, set at Open.
	// Zero means the registry default applies.
	Timeout time.Duration

	handle Process
	mon    *heartbeat.Monitor

	mu       sync.Mutex
	state    State
	lastBeat time.Time
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastHeartbeat returns when the UI last proved itself alive. Zero until
// the first fresh beat.
func (s *Session) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBeat
}

// beginAsk claims the session's single question slot.
func (s *Session) beginAsk() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStarting, StateActive:
		s.state = StateAsking
		return nil
	case StateAsking:
		return ErrSessionBusy
	default:
		return ErrSessionClosing
	}
}

// endAsk releases the question slot unless teardown claimed the session in
// the meantime.
func (s *Session) endAsk() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAsking {
		s.state = StateActive
	}
}

// beginClose claims the session for teardown. Exactly one caller wins; the
// losers must leave the session alone.
func (s *Session) beginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosing || s.state == StateClosed {
		return false
	}
	s.state = StateClosing
	return true
}

func (s *Session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// observe records a liveness check result, promoting a Starting session on
// its first fresh beat. An answered question counts: an answer is stronger
// proof of life than any beat.
func (s *Session) observe(now time.Time, st heartbeat.Status) {
	if st != heartbeat.StatusFresh {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBeat = now
	if s.state == StateStarting {
		s.state = StateActive
	}
}

// liveness folds the heartbeat monitor and the immediate child's exit
// status into one source. An abnormal exit during the grace window means the
// window never opened and nothing will ever beat. A clean exit proves
// nothing either way: terminal wrappers exit as soon as the window is up.
type liveness struct {
	mon    *heartbeat.Monitor
	handle Process
}

func (l liveness) Check(now time.Time) heartbeat.Status {
	st := l.mon.Check(now)
	if st == heartbeat.StatusStarting && l.handle != nil && l.handle.ExitedAbnormally() {
		return heartbeat.StatusMissing
	}
	return st
}

var _ await.Liveness = liveness{}
