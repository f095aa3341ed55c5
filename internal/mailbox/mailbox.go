// Package mailbox implements the response side of the session workspace
// protocol: a single-file slot that the terminal UI writes exactly once and
// the parent process watches for.
//
// A slot is just a path inside the session workspace. The producer posts the
// encoded answer with a whole-file write; the consumer watches for the first
// non-empty content and from then on owns the file. A zero-length file is a
// write still in flight, not a signal.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/util"
)

// ErrOccupied is returned by Post when the slot already holds content.
// Responses are write-once: the first answer wins.
var ErrOccupied = errors.New("response slot already occupied")

// pollInterval bounds how stale a watch can go when fsnotify misses events.
// The notify path normally fires first; polling is the guarantee.
const pollInterval = 250 * time.Millisecond

// Slot is a write-once response file.
type Slot struct {
	path string
}

// New returns a slot backed by the file at path. The file need not exist yet.
func New(path string) *Slot {
	return &Slot{path: path}
}

// Path returns the file backing this slot.
func (s *Slot) Path() string {
	return s.path
}

// Prepare creates the slot as an empty file, truncating any leftover
// content. An empty slot reads as "no response yet" on both sides, so a
// prepared slot and an absent one behave identically; preparing just makes
// the slot visible to anyone inspecting the workspace.
func (s *Slot) Prepare() error {
	if err := os.WriteFile(s.path, nil, 0600); err != nil {
		return fmt.Errorf("preparing response slot: %w", err)
	}
	return nil
}

// Post writes content into the slot. It fails with ErrOccupied if the slot
// already holds a response, and rejects empty content outright: a zero-length
// file reads as "write in flight" on the consumer side, so posting one would
// silently vanish.
func (s *Slot) Post(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("refusing to post empty content to %s", s.path)
	}
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		return ErrOccupied
	}
	if err := protocol.WriteFileAtomic(s.path, content, 0600); err != nil {
		return fmt.Errorf("posting response: %w", err)
	}
	return nil
}

// Watch delivers the slot's first non-empty content on the returned channel,
// then closes it. If ctx is canceled first, the channel closes without a
// delivery. The slot file is left in place; the caller decides when to
// Discard it.
//
// Watch combines an fsnotify watch on the slot's directory with a slow poll.
// The watch gives latency, the poll gives correctness: a dropped event costs
// at most one poll interval.
func (s *Slot) Watch(ctx context.Context) <-chan []byte {
	out := make(chan []byte, 1)

	go func() {
		defer close(out)

		var events <-chan fsnotify.Event
		var werrs <-chan error

		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			defer watcher.Close()
			// Watch the directory, not the file: the file usually does not
			// exist yet, and the atomic rename that creates it lands as a
			// directory-level event.
			if addErr := watcher.Add(filepath.Dir(s.path)); addErr == nil {
				events = watcher.Events
				werrs = watcher.Errors
			}
		}

		// The response may have landed before the watch was in place.
		if data, ok := s.tryRead(ctx); ok {
			out <- data
			return
		}

		base := filepath.Base(s.path)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
			case _, ok := <-werrs:
				// Watcher trouble is not fatal; the poll still covers us.
				if !ok {
					werrs = nil
				}
				continue
			case <-ticker.C:
			}

			if data, ok := s.tryRead(ctx); ok {
				out <- data
				return
			}
		}
	}()

	return out
}

// Discard removes the slot file. A missing file is fine: cleanup runs from
// whichever side gets there first.
func (s *Slot) Discard() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discarding response slot: %w", err)
	}
	return nil
}

// tryRead returns the slot content if a complete response is present.
// Missing and zero-length files both mean "not yet". Transient read errors
// (the producer still holds the file handle on Windows) are retried briefly.
func (s *Slot) tryRead(ctx context.Context) ([]byte, bool) {
	data, err := util.RetryWithContext(ctx, func() ([]byte, error) {
		b, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, util.MarkPermanent(err)
			}
			return nil, err
		}
		return b, nil
	})
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
