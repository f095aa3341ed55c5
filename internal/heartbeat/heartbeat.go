// Package heartbeat tracks detached UI process liveness.
//
// The UI process touches a heartbeat file on a fixed cadence. The parent
// never holds a pipe or a process handle it can trust (terminal emulators
// re-parent the real UI), so the file's modification time is the only
// liveness signal. The JSON payload exists for humans poking around a
// session directory; the monitor trusts mtime alone.
package heartbeat

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Timing constants for the heartbeat protocol.
const (
	// Cadence is how often the UI touches its heartbeat file.
	Cadence = 1500 * time.Millisecond

	// Threshold is the age past which a heartbeat counts as stale. Kept at
	// twice the cadence so a single missed write is forgiven.
	Threshold = 3 * time.Second

	// LaunchGrace covers the window between spawning the UI and its first
	// beat. A terminal emulator cold-start can take several seconds; a
	// monitor that condemns the session before the window even opens kills
	// every slow launch.
	LaunchGrace = 10 * time.Second

	// PollInterval is how often a monitor re-checks the file.
	PollInterval = 500 * time.Millisecond
)

// Beat is the heartbeat file payload.
type Beat struct {
	// Timestamp is when the beat was written.
	Timestamp time.Time `json:"timestamp"`

	// Cycle counts beats since the UI started.
	Cycle int64 `json:"cycle"`

	// PID is the UI process id, for manual inspection of a stuck session.
	PID int `json:"pid"`
}

// Write records a beat. The mtime update is the signal; the content is
// best-effort documentation.
func Write(path string, b *Beat) error {
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Read loads a beat from disk. Returns nil if the file is missing or can't
// be parsed; the monitor never depends on this.
func Read(path string) *Beat {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var b Beat
	if err := json.Unmarshal(data, &b); err != nil {
		return nil
	}

	return &b
}

// Status classifies a heartbeat file at a point in time.
type Status int

const (
	// StatusStarting means the launch grace window is still open and no
	// fresh beat has arrived yet. Not a failure.
	StatusStarting Status = iota

	// StatusFresh means the file was touched within the threshold.
	StatusFresh

	// StatusStale means the file exists but has not been touched within
	// the threshold.
	StatusStale

	// StatusMissing means the file does not exist.
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Failed reports whether the status means the UI process is gone.
func (s Status) Failed() bool {
	return s == StatusStale || s == StatusMissing
}

// Monitor classifies a heartbeat file relative to when its process was
// launched. Zero-value durations fall back to the package constants.
type Monitor struct {
	// Path is the heartbeat file to watch.
	Path string

	// StartedAt is when the UI process was spawned. The grace window is
	// measured from here.
	StartedAt time.Time

	// Threshold overrides the default staleness threshold when non-zero.
	Threshold time.Duration

	// Grace overrides the default launch grace when non-zero.
	Grace time.Duration
}

// NewMonitor returns a monitor with default timing for a freshly spawned UI.
func NewMonitor(path string, startedAt time.Time) *Monitor {
	return &Monitor{Path: path, StartedAt: startedAt}
}

func (m *Monitor) threshold() time.Duration {
	if m.Threshold > 0 {
		return m.Threshold
	}
	return Threshold
}

func (m *Monitor) grace() time.Duration {
	if m.Grace > 0 {
		return m.Grace
	}
	return LaunchGrace
}

// Check classifies the heartbeat at the given instant. During the launch
// grace window a missing or stale file reads as Starting, because the UI may
// simply not have reached its first beat yet. A fresh beat is fresh
// regardless of the window.
func (m *Monitor) Check(now time.Time) Status {
	info, err := os.Stat(m.Path)
	inGrace := now.Before(m.StartedAt.Add(m.grace()))

	if err != nil {
		if inGrace {
			return StatusStarting
		}
		return StatusMissing
	}

	if now.Sub(info.ModTime()) <= m.threshold() {
		return StatusFresh
	}
	if inGrace {
		return StatusStarting
	}
	return StatusStale
}

// Status classifies the heartbeat right now.
func (m *Monitor) Status() Status {
	return m.Check(time.Now())
}

// Writer touches a heartbeat file on a fixed cadence from a background
// goroutine. Owned by the UI process for its whole lifetime.
type Writer struct {
	path    string
	cadence time.Duration
	pid     int
	logger  func(format string, args ...interface{})

	mu      sync.Mutex
	cycle   int64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewWriter creates a heartbeat writer for the given path. A nil logger
// discards write failures.
func NewWriter(path string, logger func(format string, args ...interface{})) *Writer {
	if logger == nil {
		logger = func(string, ...interface{}) {}
	}
	return &Writer{
		path:    path,
		cadence: Cadence,
		pid:     os.Getpid(),
		logger:  logger,
	}
}

// Start writes the first beat immediately, then keeps beating until Stop.
func (w *Writer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.beat()

	w.wg.Add(1)
	go w.run()
}

// Stop halts the beat loop and waits for it to exit. The heartbeat file is
// left in place; its mtime going stale is how the parent learns we're gone.
func (w *Writer) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()

	w.mu.Lock()
	w.started = false
	w.mu.Unlock()
}

func (w *Writer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			w.beat()
			w.mu.Unlock()
		}
	}
}

// beat writes one heartbeat. Callers hold w.mu (or are inside Start before
// the goroutine exists).
func (w *Writer) beat() {
	w.cycle++
	if err := Write(w.path, &Beat{Cycle: w.cycle, PID: w.pid}); err != nil {
		w.logger("heartbeat write failed: %v", err)
	}
}
