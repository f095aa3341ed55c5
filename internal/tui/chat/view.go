package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/ui"
)

// renderView renders the entire window
func (m *Model) renderView() string {
	if m.width > 0 && (m.width < 30 || m.height < 8) {
		return "Terminal too small. Please resize."
	}

	if m.closing {
		return m.renderFarewell()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("💬 " + m.title))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	// Transcript
	b.WriteString(m.sectionRule(fmt.Sprintf("Conversation (%d)", len(m.transcript))))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.current != nil {
		m.renderQuestion(&b)
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(statusStyle.Render(" Waiting for the next question..."))
		b.WriteString("\n")
	}

	// Help
	b.WriteString("\n")
	switch {
	case m.showHelp:
		b.WriteString(m.help.View(m.keys))
	case m.current == nil:
		b.WriteString(helpStyle.Render("j/k: scroll  q: close  ?: help"))
	case m.inputMode == ModeText:
		b.WriteString(helpStyle.Render("enter: submit  esc: options  ctrl+c: close"))
	default:
		b.WriteString(helpStyle.Render("j/k: navigate  1-9: pick  enter: submit  t: type an answer  ?: help"))
	}

	return b.String()
}

// sectionRule renders a horizontal section header filled out to the
// window width.
func (m *Model) sectionRule(label string) string {
	header := fmt.Sprintf("─── %s ", label)
	header += strings.Repeat("─", max(0, m.width-lipgloss.Width(header)-2))
	return helpStyle.Render(header)
}

// renderTranscript renders the answered and abandoned exchanges so far.
func (m *Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return statusStyle.Render("No questions yet.")
	}

	w := max(20, m.viewport.Width-4)
	var b strings.Builder
	for i, ex := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render(ui.WrapText("❓ "+ex.question, w)))
		b.WriteString("\n")
		switch {
		case !ex.answered:
			b.WriteString(unansweredStyle.Render("   (went unanswered)"))
		case ex.answer == "":
			b.WriteString(unansweredStyle.Render("   ↳ (empty reply)"))
		default:
			b.WriteString(answerStyle.Render(ui.WrapText("   ↳ "+ex.answer, w)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderQuestion renders the pending question pane
func (m *Model) renderQuestion(b *strings.Builder) {
	b.WriteString(m.sectionRule("Current Question"))
	b.WriteString("\n")

	if m.rendered != "" {
		b.WriteString(m.rendered)
	} else {
		b.WriteString(m.current.Text)
	}
	b.WriteString("\n\n")

	if m.inputMode == ModeText {
		m.renderTextMode(b)
	} else {
		m.renderOptions(b)
	}

	if !m.deadline.IsZero() {
		b.WriteString("\n")
		b.WriteString(m.renderCountdown())
		b.WriteString("\n")
	}
}

// renderOptions renders the numbered option list
func (m *Model) renderOptions(b *strings.Builder) {
	for i, opt := range m.current.Options {
		optNum := i + 1
		numStr := optionNumberStyle.Render(fmt.Sprintf("[%d]", optNum))
		line := fmt.Sprintf("  %s %s", numStr, opt)

		if optNum == m.selected {
			b.WriteString(selectedOptionStyle.Render(line))
			b.WriteString(" ←")
		} else {
			b.WriteString(optionLabelStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.submitting {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("Submitting..."))
	} else if m.selected > 0 {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(fmt.Sprintf("Press Enter to answer %q", m.current.Options[m.selected-1])))
	}
}

// renderTextMode renders the free-form answer editor
func (m *Model) renderTextMode(b *strings.Builder) {
	b.WriteString(inputLabelStyle.Render("Your answer:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.submitting {
		b.WriteString(statusStyle.Render("Submitting..."))
		b.WriteString("\n")
	}
}

// renderCountdown renders the remaining-time line
func (m *Model) renderCountdown() string {
	line := fmt.Sprintf("⏳ %s to answer", ui.FormatRemaining(m.remaining))
	if m.remaining <= 10*time.Second {
		return countdownUrgentStyle.Render(line)
	}
	return countdownStyle.Render(line)
}

// renderFarewell renders the goodbye screen shown once the session closes.
func (m *Model) renderFarewell() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("💬 " + m.title))
	b.WriteString("\n\n")
	b.WriteString(farewellStyle.Render("✅ Conversation over. This window will close itself."))
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("Questions asked: %d", len(m.transcript))))
	return b.String()
}
