package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/await"
	"github.com/parleyhq/parley/internal/heartbeat"
	"github.com/parleyhq/parley/internal/launch"
	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/util"
)

// Timings bundles the protocol's time constants. Zero fields fall back to
// the package defaults.
type Timings struct {
	// DefaultTimeout applies when a caller asks without a timeout.
	DefaultTimeout time.Duration

	// Margin extends each wait's hard deadline past its timeout.
	Margin time.Duration

	// Poll is the waiter's liveness check interval.
	Poll time.Duration

	// Threshold is the heartbeat staleness threshold.
	Threshold time.Duration

	// Grace is the post-launch window before a silent UI counts as dead.
	Grace time.Duration

	// SweepInterval is the cadence of the dead-session sweep.
	SweepInterval time.Duration

	// CloseGrace is how long Close lets the UI exit on its own before the
	// process-group kill.
	CloseGrace time.Duration

	// RemoveDelay is how long a closed session's workspace lingers so
	// in-flight writes can settle before removal.
	RemoveDelay time.Duration
}

func (t Timings) withDefaults() Timings {
	if t.DefaultTimeout <= 0 {
		t.DefaultTimeout = 60 * time.Second
	}
	if t.Margin <= 0 {
		t.Margin = 5 * time.Second
	}
	if t.Poll <= 0 {
		t.Poll = heartbeat.PollInterval
	}
	if t.Threshold <= 0 {
		t.Threshold = heartbeat.Threshold
	}
	if t.Grace <= 0 {
		t.Grace = heartbeat.LaunchGrace
	}
	if t.SweepInterval <= 0 {
		t.SweepInterval = 5 * time.Second
	}
	if t.CloseGrace <= 0 {
		t.CloseGrace = 2 * time.Second
	}
	if t.RemoveDelay <= 0 {
		t.RemoveDelay = 2 * time.Second
	}
	return t
}

// Options configures a Registry.
type Options struct {
	// Launcher spawns UI processes. Nil means the real detached launcher.
	Launcher Launcher

	// Program is the binary whose UI subcommands get spawned, usually the
	// running executable itself.
	Program string

	// NoWindow spawns UI processes directly instead of wrapping them in a
	// terminal window.
	NoWindow bool

	// Timings overrides the protocol time constants.
	Timings Timings

	// Logger receives lifecycle diagnostics. Nil means silent.
	Logger func(format string, args ...interface{})
}

// Registry tracks every open chat session and reclaims the dead ones.
// It is the single owner of the session map; tool handlers, per-ask waiters,
// and the background sweep all go through it.
type Registry struct {
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry. Call Start to begin the background sweep
// and Stop to tear everything down.
func NewRegistry(opts Options) *Registry {
	if opts.Launcher == nil {
		opts.Launcher = detachedLauncher{d: &launch.Detached{Logger: opts.Logger}}
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...interface{}) {}
	}
	opts.Timings = opts.Timings.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// DefaultTimeout returns the timeout applied to calls that do not carry one.
func (r *Registry) DefaultTimeout() time.Duration {
	return r.opts.Timings.DefaultTimeout
}

// Start launches the background sweep.
func (r *Registry) Start() {
	r.wg.Add(1)
	go r.sweepLoop()
}

// Stop halts the sweep, closes every live session, and waits for deferred
// cleanup to finish.
func (r *Registry) Stop() {
	r.cancel()
	r.CloseAll()
	r.wg.Wait()
}

// Open allocates a workspace, launches the chat UI, and registers the
// session. The returned id is the handle for every later Ask and Close.
// timeout becomes the session's per-question default; zero or less keeps
// the registry default.
func (r *Registry) Open(title string, timeout time.Duration) (string, error) {
	id := uuid.NewString()

	prefix := "parley-chat"
	if slug := util.Slug(title, 24); slug != "" {
		prefix += "-" + slug
	}
	ws, err := protocol.NewWorkspace(prefix)
	if err != nil {
		return "", fmt.Errorf("creating session workspace: %w", err)
	}

	now := time.Now()
	info := &protocol.SessionInfo{ID: id, Title: title, CreatedAt: now.UTC()}
	if err := protocol.WriteSessionInfo(ws, info); err != nil {
		_ = protocol.RemoveWorkspace(ws)
		return "", fmt.Errorf("writing session info: %w", err)
	}

	handle, err := r.opts.Launcher.Launch(launch.Spec{
		Program:  r.opts.Program,
		Args:     []string{"chat", "--workspace", ws},
		Terminal: !r.opts.NoWindow,
		Title:    title,
	})
	if err != nil {
		_ = protocol.RemoveWorkspace(ws)
		r.opts.Logger("chat spawn failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	mon := heartbeat.NewMonitor(filepath.Join(ws, protocol.HeartbeatFile), now)
	mon.Threshold = r.opts.Timings.Threshold
	mon.Grace = r.opts.Timings.Grace

	if timeout < 0 {
		timeout = 0
	}
	s := &Session{
		ID:        id,
		Title:     title,
		Workspace: ws,
		CreatedAt: now,
		Timeout:   timeout,
		handle:    handle,
		mon:       mon,
		state:     StateStarting,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.opts.Logger("session %s opened (%q, pid %d)", id, title, handle.PID())
	return id, nil
}

// Ask publishes one question into the session and waits for its answer.
// A timeout of zero or less falls back to the session's Open timeout, then
// to the registry default.
//
// A timed-out question leaves the session open: the next Ask replaces the
// pending queue entry, and the expired question is never displayed. A dead
// UI reclaims the session immediately, so the caller's next Ask fails with
// ErrUnknownSession.
func (r *Registry) Ask(ctx context.Context, sessionID, text string, options []string, timeout time.Duration) (Reply, error) {
	s, err := r.lookup(sessionID)
	if err != nil {
		return Reply{}, err
	}
	if timeout <= 0 {
		timeout = s.Timeout
	}
	if timeout <= 0 {
		timeout = r.opts.Timings.DefaultTimeout
	}

	if err := s.beginAsk(); err != nil {
		return Reply{}, err
	}
	defer s.endAsk()

	q := &protocol.Question{
		ID:             uuid.NewString(),
		Text:           text,
		Options:        options,
		TimeoutSeconds: int(timeout / time.Second),
		ExpiresAt:      time.Now().Add(timeout),
	}
	if err := protocol.PublishQuestion(s.Workspace, q); err != nil {
		return Reply{}, fmt.Errorf("publishing question: %w", err)
	}

	slot := mailbox.New(filepath.Join(s.Workspace, protocol.AnswerFileFor(q.ID)))
	res := await.Wait(ctx, slot, liveness{mon: s.mon, handle: s.handle}, await.Config{
		Timeout: timeout,
		Margin:  r.opts.Timings.Margin,
		Poll:    r.opts.Timings.Poll,
	})

	switch res.Kind {
	case await.Answered, await.Empty:
		// The parent consumes the response file; the UI never touches it
		// again after the single write.
		if err := slot.Discard(); err != nil {
			r.opts.Logger("discarding response %s: %v", q.ID, err)
		}
		s.observe(time.Now(), heartbeat.StatusFresh)
	case await.Died:
		r.reap(s, "heartbeat lost during ask")
	}

	return Reply{Kind: res.Kind, Text: res.Answer}, nil
}

// Close writes the close sentinel, grants the UI a grace period to exit on
// its own, escalates to a process-group kill, and schedules the workspace
// for removal. A second Close of the same id fails with ErrUnknownSession.
func (r *Registry) Close(sessionID string) error {
	s, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if !s.beginClose() {
		return ErrUnknownSession
	}
	r.remove(s.ID)

	if err := protocol.WriteCloseSentinel(s.Workspace); err != nil {
		r.opts.Logger("writing close sentinel for %s: %v", s.ID, err)
	}

	select {
	case <-s.handle.Done():
		// Direct spawn, exited on the sentinel.
	case <-time.After(r.opts.Timings.CloseGrace):
	}
	if err := s.handle.Terminate(); err != nil {
		r.opts.Logger("terminating session %s: %v", s.ID, err)
	}
	s.markClosed()

	r.removeLater(s.Workspace)
	r.opts.Logger("session %s closed", s.ID)
	return nil
}

// CloseAll closes every registered session. Used at server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		// ErrUnknownSession here just means someone else won the close.
		if err := r.Close(id); err != nil && !errors.Is(err, ErrUnknownSession) {
			r.opts.Logger("closing session %s: %v", id, err)
		}
	}
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// reap forcefully reclaims a dead session. The sweep and a failing Ask can
// race here; beginClose picks the single winner.
func (r *Registry) reap(s *Session, reason string) {
	if !s.beginClose() {
		return
	}
	r.opts.Logger("session %s reclaimed: %s", s.ID, reason)
	r.remove(s.ID)

	if err := s.handle.Terminate(); err != nil {
		r.opts.Logger("terminating session %s: %v", s.ID, err)
	}
	s.markClosed()
	r.removeLater(s.Workspace)
}

// removeLater deletes a workspace after letting in-flight writes settle.
// Registry shutdown flushes the delay.
func (r *Registry) removeLater(ws string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(r.opts.Timings.RemoveDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.ctx.Done():
		}

		if err := protocol.RemoveWorkspace(ws); err != nil {
			r.opts.Logger("removing workspace %s: %v", ws, err)
		}
	}()
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.opts.Timings.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

// sweep re-evaluates liveness for every session, reclaiming the dead ones.
// It runs regardless of in-flight Asks, so an abandoned session whose owner
// never calls Close cannot leak its process and workspace forever.
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		st := liveness{mon: s.mon, handle: s.handle}.Check(now)
		s.observe(now, st)
		if st.Failed() {
			r.reap(s, "heartbeat "+st.String())
		}
	}
}
