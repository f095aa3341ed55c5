package session

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/await"
	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/launch"
	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/util"
)

// AskOnceSpec describes one single-question exchange.
type AskOnceSpec struct {
	// Project labels the window so the user knows who is asking.
	Project string

	// Text is the question.
	Text string

	// Options are predefined choices, shown in order ahead of free text.
	Options []string

	// Timeout bounds the wait. Zero or less means the default.
	Timeout time.Duration
}

// AskOnce spawns a one-question UI, waits for the outcome, and cleans up
// the workspace. The session is never registered: it lives exactly as long
// as the one wait.
//
// AskOnce never fails. Anything that goes wrong before the user could
// answer, a spawn failure included, degrades to a Died reply; a missing UI
// must never crash the caller.
func (r *Registry) AskOnce(ctx context.Context, spec AskOnceSpec) Reply {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.opts.Timings.DefaultTimeout
	}

	prefix := "parley-ask"
	if slug := util.Slug(spec.Project, 24); slug != "" {
		prefix += "-" + slug
	}
	ws, err := protocol.NewWorkspace(prefix)
	if err != nil {
		r.opts.Logger("ask workspace: %v", err)
		return Reply{Kind: await.Died}
	}

	q := &protocol.Question{
		ID:             uuid.NewString(),
		Text:           spec.Text,
		Options:        spec.Options,
		TimeoutSeconds: int(timeout / time.Second),
		ExpiresAt:      time.Now().Add(timeout),
	}
	if err := protocol.WriteQuestion(ws, q); err != nil {
		r.opts.Logger("writing question: %v", err)
		_ = protocol.RemoveWorkspace(ws)
		return Reply{Kind: await.Died}
	}

	slot := mailbox.New(filepath.Join(ws, protocol.AnswerFile))
	if err := slot.Prepare(); err != nil {
		r.opts.Logger("preparing response slot: %v", err)
	}

	started := time.Now()
	handle, err := r.opts.Launcher.Launch(launch.Spec{
		Program:  r.opts.Program,
		Args:     []string{"prompt", "--workspace", ws},
		Terminal: !r.opts.NoWindow,
		Title:    spec.Project,
	})
	if err != nil {
		r.opts.Logger("prompt spawn failed: %v", err)
		_ = protocol.RemoveWorkspace(ws)
		return Reply{Kind: await.Died}
	}

	mon := heartbeat.NewMonitor(filepath.Join(ws, protocol.HeartbeatFile), started)
	mon.Threshold = r.opts.Timings.Threshold
	mon.Grace = r.opts.Timings.Grace

	res := await.Wait(ctx, slot, liveness{mon: mon, handle: handle}, await.Config{
		Timeout: timeout,
		Margin:  r.opts.Timings.Margin,
		Poll:    r.opts.Timings.Poll,
	})

	// Cleanup runs on every outcome, and all of it tolerates a UI that is
	// already gone: sentinel for a live UI, kill for a stuck one, deferred
	// removal for the directory.
	if err := protocol.WriteCloseSentinel(ws); err != nil {
		r.opts.Logger("writing close sentinel: %v", err)
	}
	if err := handle.Terminate(); err != nil {
		r.opts.Logger("terminating prompt: %v", err)
	}
	r.removeLater(ws)

	return Reply{Kind: res.Kind, Text: res.Answer}
}
