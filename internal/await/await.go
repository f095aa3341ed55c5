// Package await races a response slot against the liveness of the process
// expected to fill it.
//
// Every question put to the user ends in exactly one of five ways: a real
// answer, an explicit empty submission, a timeout with the UI still running,
// the UI dying first, or the caller giving up. Callers branch on the Kind;
// conflating any two of these produces wrong agent behavior, so the
// classification rules here are deliberately strict.
package await

import (
	"context"
	"time"

	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/protocol"
)

// Kind classifies how a wait ended.
type Kind int

const (
	// Answered means the user submitted a non-empty reply.
	Answered Kind = iota

	// Empty means the user deliberately submitted an empty reply. Distinct
	// from TimedOut: the user was there and chose to say nothing.
	Empty

	// TimedOut means the deadline passed without a reply. The UI may still
	// be on screen or may have closed itself at its own countdown.
	TimedOut

	// Died means the UI process stopped heartbeating before the deadline
	// with no reply written.
	Died

	// Canceled means the caller's context ended the wait. Nothing is known
	// about the user.
	Canceled
)

func (k Kind) String() string {
	switch k {
	case Answered:
		return "answered"
	case Empty:
		return "empty"
	case TimedOut:
		return "timeout"
	case Died:
		return "died"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of one wait.
type Result struct {
	Kind Kind

	// Answer is the user's reply text, trailing whitespace stripped.
	// Set only when Kind is Answered.
	Answer string
}

// Watcher is the consumer's view of a response slot.
type Watcher interface {
	// Watch delivers the slot's first non-empty content, then closes the
	// channel. Cancel the context to stop watching.
	Watch(ctx context.Context) <-chan []byte
}

// Liveness reports whether the responding process is still alive.
type Liveness interface {
	Check(now time.Time) heartbeat.Status
}

// Config bounds one wait.
type Config struct {
	// Timeout is how long the user gets to reply (default 60s).
	Timeout time.Duration

	// Margin extends the hard deadline past Timeout so the UI's own
	// countdown can fire first and close the window in an orderly way
	// (default 5s).
	Margin time.Duration

	// Poll is the liveness check interval (default heartbeat.PollInterval).
	Poll time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Margin <= 0 {
		c.Margin = 5 * time.Second
	}
	if c.Poll <= 0 {
		c.Poll = heartbeat.PollInterval
	}
	return c
}

// Wait blocks until the slot fills, the process dies, the deadline passes,
// or ctx is canceled, and classifies the outcome.
//
// A death observed after Timeout has already elapsed reports TimedOut, not
// Died: the user had their full window, and the UI closing at its own
// countdown is indistinguishable from a crash once the window is over.
func Wait(ctx context.Context, slot Watcher, live Liveness, cfg Config) Result {
	cfg = cfg.withDefaults()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	responses := slot.Watch(watchCtx)

	start := time.Now()
	deadline := time.NewTimer(cfg.Timeout + cfg.Margin)
	defer deadline.Stop()
	liveness := time.NewTicker(cfg.Poll)
	defer liveness.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{Kind: Canceled}

		case data, ok := <-responses:
			if !ok {
				return Result{Kind: Canceled}
			}
			return classify(data)

		case <-deadline.C:
			if r, ok := pending(responses); ok {
				return r
			}
			return Result{Kind: TimedOut}

		case now := <-liveness.C:
			if !live.Check(now).Failed() {
				continue
			}
			// select picks randomly among ready cases, so a reply already
			// sitting in the channel must win over the death verdict.
			if r, ok := pending(responses); ok {
				return r
			}
			if time.Since(start) >= cfg.Timeout {
				return Result{Kind: TimedOut}
			}
			return Result{Kind: Died}
		}
	}
}

// pending drains a reply that is already buffered, without blocking.
func pending(responses <-chan []byte) (Result, bool) {
	select {
	case data, ok := <-responses:
		if !ok {
			return Result{}, false
		}
		return classify(data), true
	default:
		return Result{}, false
	}
}

func classify(data []byte) Result {
	answer := protocol.TrimAnswer(string(data))
	if answer == "" {
		return Result{Kind: Empty}
	}
	return Result{Kind: Answered, Answer: answer}
}
