// Package prompt is the single-question window. It renders one question,
// collects one answer, writes it to the response slot exactly once, and
// exits. Closing the window without submitting is a real outcome too: the
// parent reads the silence as the user declining to answer.
package prompt

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/mailbox"
	"github.com/parleyhq/parley/internal/protocol"
	"github.com/parleyhq/parley/internal/ui"
)

// tickInterval is how often the countdown refreshes.
const tickInterval = time.Second

// InputMode represents the current input mode.
type InputMode int

const (
	// ModeChoose navigates the predefined options.
	ModeChoose InputMode = iota

	// ModeText edits a free-form answer.
	ModeText
)

// Model is the bubbletea model for the question window.
type Model struct {
	// Dimensions
	width  int
	height int

	// Data
	question *protocol.Question
	rendered string // markdown-rendered question, refreshed on resize
	slot     *mailbox.Slot

	// Input
	selected   int // 1-based option number, 0 = none
	inputMode  InputMode
	textInput  textarea.Model
	submitting bool

	// Countdown
	deadline  time.Time
	remaining time.Duration

	// UI state
	keys     KeyMap
	help     help.Model
	showHelp bool
	err      error

	// Outcome, for the caller after Run returns
	posted  bool
	expired bool

	logf func(format string, args ...interface{})
}

// New creates a question window model. The slot is where the answer goes;
// the caller owns spawning the heartbeat writer around the program.
func New(q *protocol.Question, slot *mailbox.Slot, logf func(format string, args ...interface{})) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your answer..."
	ta.SetHeight(3)
	ta.SetWidth(60)
	ta.CharLimit = 0

	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	m := &Model{
		question:  q,
		slot:      slot,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		textInput: ta,
		logf:      logf,
	}

	if len(q.Options) > 0 {
		m.selected = 1
	} else {
		m.inputMode = ModeText
		m.textInput.Focus()
	}

	if q.TimeoutSeconds > 0 {
		m.deadline = time.Now().Add(time.Duration(q.TimeoutSeconds) * time.Second)
		m.remaining = time.Until(m.deadline)
	}
	return m
}

// Posted reports whether an answer was written before the program ended.
func (m *Model) Posted() bool { return m.posted }

// Expired reports whether the countdown ran out before any answer.
func (m *Model) Expired() bool { return m.expired }

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, tea.SetWindowTitle("Parley")}
	if !m.deadline.IsZero() {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

// tickMsg drives the countdown.
type tickMsg time.Time

// postedMsg is sent when the answer write completes.
type postedMsg struct {
	err error
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// post writes the answer to the response slot.
func (m *Model) post(text string) tea.Cmd {
	return func() tea.Msg {
		return postedMsg{err: m.slot.Post(protocol.EncodeAnswer(text))}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.SetWidth(max(20, msg.Width-8))
		m.rendered = ui.RenderMarkdown(m.question.Text, max(20, msg.Width-4))

	case tickMsg:
		m.remaining = time.Until(m.deadline)
		if m.remaining <= 0 {
			// Countdown ran out. Exit without writing; the parent's own
			// deadline classifies this as a timeout.
			m.expired = true
			return m, tea.Quit
		}
		return m, m.tick()

	case postedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logf("posting answer: %v", msg.err)
			return m, tea.Quit
		}
		m.posted = true
		return m, tea.Quit

	case tea.KeyMsg:
		// Ctrl+C closes from any mode.
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.submitting {
			return m, nil
		}
		if m.inputMode == ModeText {
			return m.handleTextMode(msg)
		}
		return m.handleChooseMode(msg)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// handleChooseMode handles key presses while navigating options.
func (m *Model) handleChooseMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.selected > 1 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.question.Options) {
			m.selected++
		}

	case key.Matches(msg, m.keys.Digits):
		n := int(msg.String()[0] - '0')
		if n >= 1 && n <= len(m.question.Options) {
			m.selected = n
		}

	case key.Matches(msg, m.keys.Confirm):
		if m.selected >= 1 && m.selected <= len(m.question.Options) {
			m.submitting = true
			return m, m.post(m.question.Options[m.selected-1])
		}

	case key.Matches(msg, m.keys.Text):
		m.inputMode = ModeText
		m.textInput.Focus()
		return m, textarea.Blink
	}

	return m, nil
}

// handleTextMode handles key presses while editing a free-form answer.
func (m *Model) handleTextMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if len(m.question.Options) > 0 {
			m.inputMode = ModeChoose
			m.textInput.Blur()
		}
		return m, nil

	case tea.KeyEnter:
		// An empty submit is deliberate: "I have nothing to add".
		m.submitting = true
		m.textInput.Blur()
		return m, m.post(m.textInput.Value())
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the window.
func (m *Model) View() string {
	return m.renderView()
}
