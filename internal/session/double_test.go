package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/launch"
	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
)

// fakeProcess is an in-memory Process: no real child, full control over
// aliveness and exit.
type fakeProcess struct {
	done chan struct{}

	mu         sync.Mutex
	alive      bool
	abnormal   bool
	terminated int
}

var _ Process = (*fakeProcess)(nil)

func newFakeProcess() *fakeProcess {
	return &fakeProcess{alive: true, done: make(chan struct{})}
}

func (p *fakeProcess) PID() int              { return 4242 }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) ExitedAbnormally() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.alive && p.abnormal
}

func (p *fakeProcess) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated++
	if p.alive {
		p.alive = false
		close(p.done)
	}
	return nil
}

// exit simulates the process ending on its own.
func (p *fakeProcess) exit(abnormal bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive {
		return
	}
	p.alive = false
	p.abnormal = abnormal
	close(p.done)
}

func (p *fakeProcess) terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

// uiScript plays the detached UI against a freshly launched workspace.
type uiScript func(ws string, p *fakeProcess)

// fakeLauncher hands each launch to a scripted in-process UI.
type fakeLauncher struct {
	script uiScript

	mu    sync.Mutex
	err   error
	specs []launch.Spec
	procs []*fakeProcess
}

var _ Launcher = (*fakeLauncher)(nil)

func (f *fakeLauncher) Launch(spec launch.Spec) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	f.specs = append(f.specs, spec)
	p := newFakeProcess()
	f.procs = append(f.procs, p)
	if f.script != nil {
		go f.script(workspaceArg(spec), p)
	}
	return p, nil
}

func (f *fakeLauncher) spec(i int) launch.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.specs[i]
}

func (f *fakeLauncher) proc(i int) *fakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[i]
}

// workspaceArg digs the --workspace value out of a launch spec.
func workspaceArg(spec launch.Spec) string {
	for i, a := range spec.Args {
		if a == "--workspace" && i+1 < len(spec.Args) {
			return spec.Args[i+1]
		}
	}
	return ""
}

// chatUI scripts a chat window: it beats, consumes questions, answers them
// through the answer callback, and exits on the close sentinel. Returning
// ok=false from answer leaves the question unanswered.
func chatUI(answer func(q *protocol.Question) (string, bool)) uiScript {
	return func(ws string, p *fakeProcess) {
		hb := filepath.Join(ws, protocol.HeartbeatFile)
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()

		for {
			_ = heartbeat.Write(hb, &heartbeat.Beat{PID: p.PID()})
			if protocol.CloseRequested(ws) {
				p.exit(false)
				return
			}
			if q, err := protocol.TakeQuestion(ws); err == nil && q != nil {
				if text, ok := answer(q); ok {
					slot := mailbox.New(filepath.Join(ws, protocol.AnswerFileFor(q.ID)))
					_ = slot.Post(protocol.EncodeAnswer(text))
				}
			}

			select {
			case <-p.done:
				return
			case <-ticker.C:
			}
		}
	}
}

// promptUI scripts a one-question window: it beats, reads the question,
// answers through the callback, and exits.
func promptUI(answer func(q *protocol.Question) (string, bool)) uiScript {
	return func(ws string, p *fakeProcess) {
		hb := filepath.Join(ws, protocol.HeartbeatFile)
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()

		var answered bool
		for {
			_ = heartbeat.Write(hb, &heartbeat.Beat{PID: p.PID()})
			if protocol.CloseRequested(ws) {
				p.exit(false)
				return
			}
			if !answered {
				if q, err := protocol.ReadQuestion(ws); err == nil && q != nil {
					if text, ok := answer(q); ok {
						slot := mailbox.New(filepath.Join(ws, protocol.AnswerFile))
						_ = slot.Post(protocol.EncodeAnswer(text))
						answered = true
					}
				}
			}

			select {
			case <-p.done:
				return
			case <-ticker.C:
			}
		}
	}
}

// silentUI beats for the given number of cycles and then goes quiet without
// exiting, like a hung window.
func silentUI(beats int) uiScript {
	return func(ws string, p *fakeProcess) {
		hb := filepath.Join(ws, protocol.HeartbeatFile)
		ticker := time.NewTicker(25 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; i < beats; i++ {
			_ = heartbeat.Write(hb, &heartbeat.Beat{PID: p.PID()})
			select {
			case <-p.done:
				return
			case <-ticker.C:
			}
		}
	}
}

func testTimings() Timings {
	return Timings{
		DefaultTimeout: 2 * time.Second,
		Margin:         200 * time.Millisecond,
		Poll:           25 * time.Millisecond,
		Threshold:      150 * time.Millisecond,
		Grace:          500 * time.Millisecond,
		SweepInterval:  50 * time.Millisecond,
		CloseGrace:     200 * time.Millisecond,
		RemoveDelay:    50 * time.Millisecond,
	}
}
