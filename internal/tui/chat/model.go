// Package chat is the long-lived conversation window. It watches the session
// workspace for questions, collects answers one at a time, and keeps a
// transcript of the whole exchange. The window never initiates anything: the
// parent feeds it questions through the input queue and ends it with the
// close sentinel.
package chat

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/ui"
)

const (
	// pollInterval is how often we check the workspace for new questions
	// and the close sentinel.
	pollInterval = 500 * time.Millisecond

	// farewellDelay is how long the goodbye view stays up before the
	// window exits on its own.
	farewellDelay = 1500 * time.Millisecond
)

// InputMode represents the current input mode.
type InputMode int

const (
	// ModeChoose navigates the predefined options.
	ModeChoose InputMode = iota

	// ModeText edits a free-form answer.
	ModeText
)

// exchange is one transcript entry.
type exchange struct {
	question string
	answer   string
	answered bool
}

// Model is the bubbletea model for the chat window.
type Model struct {
	// Dimensions
	width  int
	height int

	// Workspace
	ws      string
	session *protocol.SessionInfo
	title   string

	// Transcript
	transcript []exchange
	viewport   viewport.Model

	// Current question
	current    *protocol.Question
	rendered   string
	selected   int // 1-based option number, 0 = none
	inputMode  InputMode
	textInput  textarea.Model
	submitting bool
	deadline   time.Time
	remaining  time.Duration

	// UI state
	spinner  spinner.Model
	keys     KeyMap
	help     help.Model
	showHelp bool
	closing  bool
	err      error

	logf func(format string, args ...interface{})
}

// New creates a chat window model for the given workspace. info may be nil
// when session.json is missing; the window still works, just untitled.
func New(ws string, info *protocol.SessionInfo, logf func(format string, args ...interface{})) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your answer..."
	ta.SetHeight(3)
	ta.SetWidth(60)
	ta.CharLimit = 0

	s := spinner.New()
	s.Spinner = spinner.Dot

	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	title := "Parley Chat"
	if info != nil && info.Title != "" {
		title = cases.Title(language.English).String(info.Title)
	}

	return &Model{
		ws:        ws,
		session:   info,
		title:     title,
		viewport:  viewport.New(0, 0),
		textInput: ta,
		spinner:   s,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		logf:      logf,
	}
}

// Title returns the session title shown in the window header.
func (m *Model) Title() string { return m.title }

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.poll(),
		tea.SetWindowTitle("Parley: "+m.title),
	)
}

// pollMsg is sent on each workspace poll interval.
type pollMsg time.Time

// questionMsg carries a freshly taken question.
type questionMsg struct {
	q *protocol.Question
}

// expiredQuestionMsg reports a question that expired before display.
type expiredQuestionMsg struct {
	id string
}

// queueErrMsg reports a failed queue read.
type queueErrMsg struct {
	err error
}

// postedMsg is sent when an answer write completes.
type postedMsg struct {
	q    *protocol.Question
	text string
	err  error
}

// closeMsg is sent when the close sentinel appears.
type closeMsg struct{}

// quitMsg ends the program after the farewell view.
type quitMsg struct{}

func (m *Model) poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

// takeQuestion pulls the next question out of the input queue. Expired
// entries are consumed but never displayed: the parent stopped waiting for
// them long ago.
func takeQuestion(ws string) tea.Cmd {
	return func() tea.Msg {
		q, err := protocol.TakeQuestion(ws)
		if err != nil {
			return queueErrMsg{err: err}
		}
		if q == nil {
			return nil
		}
		if q.Expired(time.Now()) {
			return expiredQuestionMsg{id: q.ID}
		}
		return questionMsg{q: q}
	}
}

// checkClose looks for the close sentinel.
func checkClose(ws string) tea.Cmd {
	return func() tea.Msg {
		if protocol.CloseRequested(ws) {
			return closeMsg{}
		}
		return nil
	}
}

// post writes an answer to the question's response file.
func post(ws string, q *protocol.Question, text string) tea.Cmd {
	return func() tea.Msg {
		slot := mailbox.New(filepath.Join(ws, protocol.AnswerFileFor(q.ID)))
		return postedMsg{q: q, text: text, err: slot.Post(protocol.EncodeAnswer(text))}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.SetWidth(max(20, msg.Width-8))
		if m.current != nil {
			m.rendered = ui.RenderMarkdown(m.current.Text, max(20, msg.Width-4))
		}
		m.layout()
		m.refreshTranscript()

	case pollMsg:
		if m.closing {
			return m, nil
		}
		cmds = append(cmds, m.poll(), checkClose(m.ws))
		if m.current == nil {
			cmds = append(cmds, takeQuestion(m.ws))
		} else if !m.deadline.IsZero() {
			m.remaining = time.Until(m.deadline)
			if m.remaining <= 0 {
				m.giveUp()
			}
		}

	case questionMsg:
		if m.current != nil || m.closing {
			// One question at a time; anything else is a protocol bug on
			// the far side. Drop it and let the parent's deadline handle it.
			m.logf("dropping question %s while busy", msg.q.ID)
			return m, nil
		}
		m.present(msg.q)
		if m.inputMode == ModeText {
			cmds = append(cmds, textarea.Blink)
		}

	case expiredQuestionMsg:
		m.logf("question %s expired before display", msg.id)

	case queueErrMsg:
		if errors.Is(msg.err, protocol.ErrMalformedQueue) {
			m.logf("malformed input queue entry dropped")
		} else {
			m.logf("reading input queue: %v", msg.err)
			m.err = msg.err
		}

	case postedMsg:
		m.submitting = false
		if msg.err != nil {
			m.logf("posting answer for %s: %v", msg.q.ID, msg.err)
			m.err = msg.err
		}
		m.transcript = append(m.transcript, exchange{
			question: msg.q.Text,
			answer:   msg.text,
			answered: msg.err == nil,
		})
		m.clearCurrent()
		m.refreshTranscript()

	case closeMsg:
		if !m.closing {
			m.closing = true
			if m.current != nil {
				m.transcript = append(m.transcript, exchange{question: m.current.Text})
				m.clearCurrent()
			}
			return m, tea.Tick(farewellDelay, func(time.Time) tea.Msg {
				return quitMsg{}
			})
		}

	case quitMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey routes key presses by mode.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C closes from any mode. The parent notices the lost heartbeat
	// and reclaims the session.
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.closing || m.submitting {
		return m, nil
	}
	if m.current == nil {
		return m.handleIdleKey(msg)
	}
	if m.inputMode == ModeText {
		return m.handleTextMode(msg)
	}
	return m.handleChooseMode(msg)
}

// handleIdleKey handles keys while no question is pending.
func (m *Model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
	}
	return m, nil
}

// handleChooseMode handles keys while navigating a question's options.
func (m *Model) handleChooseMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.selected > 1 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.current.Options) {
			m.selected++
		}

	case key.Matches(msg, m.keys.Digits):
		n := int(msg.String()[0] - '0')
		if n >= 1 && n <= len(m.current.Options) {
			m.selected = n
		}

	case key.Matches(msg, m.keys.Confirm):
		if m.selected >= 1 && m.selected <= len(m.current.Options) {
			m.submitting = true
			return m, post(m.ws, m.current, m.current.Options[m.selected-1])
		}

	case key.Matches(msg, m.keys.Text):
		m.inputMode = ModeText
		m.textInput.Focus()
		return m, textarea.Blink
	}
	return m, nil
}

// handleTextMode handles keys while editing a free-form answer.
func (m *Model) handleTextMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if len(m.current.Options) > 0 {
			m.inputMode = ModeChoose
			m.textInput.Blur()
		}
		return m, nil

	case tea.KeyEnter:
		m.submitting = true
		m.textInput.Blur()
		return m, post(m.ws, m.current, m.textInput.Value())
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// present puts a new question on screen.
func (m *Model) present(q *protocol.Question) {
	m.current = q
	m.rendered = ui.RenderMarkdown(q.Text, max(20, m.width-4))
	m.err = nil

	if len(q.Options) > 0 {
		m.inputMode = ModeChoose
		m.selected = 1
	} else {
		m.inputMode = ModeText
		m.selected = 0
		m.textInput.Focus()
	}

	if q.TimeoutSeconds > 0 {
		m.deadline = time.Now().Add(time.Duration(q.TimeoutSeconds) * time.Second)
		m.remaining = time.Until(m.deadline)
	} else {
		m.deadline = time.Time{}
	}
	m.layout()
}

// giveUp abandons the current question after its countdown ran out.
func (m *Model) giveUp() {
	m.transcript = append(m.transcript, exchange{question: m.current.Text})
	m.clearCurrent()
	m.refreshTranscript()
}

// clearCurrent resets the input state between questions.
func (m *Model) clearCurrent() {
	m.current = nil
	m.rendered = ""
	m.selected = 0
	m.inputMode = ModeChoose
	m.submitting = false
	m.deadline = time.Time{}
	m.textInput.Reset()
	m.textInput.Blur()
	m.layout()
}

// layout sizes the transcript viewport around the question pane.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	reserved := 8
	if m.current != nil {
		reserved = 14 + len(m.current.Options)
	}
	m.viewport.Width = max(20, m.width-2)
	m.viewport.Height = max(3, m.height-reserved)
}

// refreshTranscript rebuilds the viewport content and scrolls to the end.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the window.
func (m *Model) View() string {
	return m.renderView()
}
