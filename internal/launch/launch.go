// Package launch spawns the detached terminal UI process.
//
// The child must outlive the parent's interest in it: no shared stdio, no
// shared process group fate, and on desktop platforms a real terminal window
// wrapped around it. Terminal activation commands (osascript, gnome-terminal,
// cmd /c start) typically exit as soon as the window opens and the emulator
// re-parents the actual UI process, so the handle returned here tracks only
// the immediate child. Session-level liveness comes from the heartbeat file,
// and orderly shutdown from the close sentinel; the handle's kill switch is
// the backstop for direct spawns and stuck wrappers.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// termGrace is how long Terminate waits between the polite signal and the
// forced kill.
const termGrace = 500 * time.Millisecond

// Spec describes one detached launch.
type Spec struct {
	// Program is the executable to run, usually the current binary.
	Program string

	// Args are the program's arguments. Keep them to plain paths and flags:
	// they may pass through a shell inside a terminal-activation wrapper.
	Args []string

	// Dir is the child's working directory. Empty means inherit.
	Dir string

	// Env lists extra KEY=VALUE entries appended to the parent's environment.
	Env []string

	// Terminal requests a visible terminal window around the program. When
	// false the program is spawned directly with no window of its own.
	Terminal bool

	// Title labels the terminal window where the platform supports it.
	Title string
}

// Detached spawns processes decoupled from the parent's tree and stdio.
type Detached struct {
	// Logger receives launch diagnostics. Nil means silent.
	Logger func(format string, args ...interface{})
}

func (d *Detached) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger(format, args...)
	}
}

// Launch starts the process described by spec and returns a handle to it.
// The child gets no stdio from the parent: inherited streams would interleave
// with the parent's own protocol traffic or block on closed pipes.
func (d *Detached) Launch(spec Spec) (*Handle, error) {
	if spec.Program == "" {
		return nil, fmt.Errorf("launch: empty program")
	}

	argv := append([]string{spec.Program}, spec.Args...)
	if spec.Terminal {
		wrapped, err := terminalArgv(spec)
		if err != nil {
			return nil, fmt.Errorf("launch: %w", err)
		}
		argv = wrapped
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch: starting %s: %w", argv[0], err)
	}
	d.logf("launched %s (pid %d, terminal=%v)", argv[0], cmd.Process.Pid, spec.Terminal)

	h := &Handle{
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	// Reap the child so it never lingers as a zombie, and record how it went.
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.exited = true
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

// Self returns the path of the running binary, for spawning the UI
// subcommands of the same executable.
func Self() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating own binary: %w", err)
	}
	return path, nil
}

// Handle tracks one spawned child.
type Handle struct {
	pid  int
	done chan struct{}

	mu      sync.Mutex
	exited  bool
	waitErr error
}

// PID returns the immediate child's process id.
func (h *Handle) PID() int {
	return h.pid
}

// Done closes when the immediate child exits. For terminal-wrapped launches
// that is the activation wrapper, which normally exits as soon as the window
// opens; do not read it as the UI closing.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitedAbnormally reports whether the immediate child exited with a
// failure. A clean exit means nothing either way; a failed exit means the
// window never opened.
func (h *Handle) ExitedAbnormally() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited && h.waitErr != nil
}

// Alive reports whether the immediate child is still running.
func (h *Handle) Alive() bool {
	h.mu.Lock()
	exited := h.exited
	h.mu.Unlock()
	if exited {
		return false
	}
	return processAlive(h.pid)
}

// Terminate asks the child's process group to exit, then forces it. Both
// signals are best-effort: for wrapper launches the group usually holds only
// the wrapper, and the real UI answers to the close sentinel instead.
func (h *Handle) Terminate() error {
	if !h.Alive() {
		return nil
	}
	_ = signalTerm(h.pid)

	select {
	case <-h.done:
		return nil
	case <-time.After(termGrace):
	}

	if !h.Alive() {
		return nil
	}
	return signalKill(h.pid)
}
