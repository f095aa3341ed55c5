package prompt

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/ui"
)

// renderView renders the entire view
func (m *Model) renderView() string {
	var b strings.Builder

	if m.width > 0 && (m.width < 30 || m.height < 8) {
		return "Terminal too small. Please resize."
	}

	b.WriteString(titleStyle.Render("❓ Question for you"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	// Question body
	if m.rendered != "" {
		b.WriteString(m.rendered)
	} else {
		b.WriteString(m.question.Text)
	}
	b.WriteString("\n\n")

	if m.inputMode == ModeText {
		m.renderTextMode(&b)
	} else {
		m.renderOptions(&b)
	}

	// Countdown
	if !m.deadline.IsZero() {
		b.WriteString("\n")
		b.WriteString(m.renderCountdown())
		b.WriteString("\n")
	}

	// Help
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.View(m.keys))
	} else if m.inputMode == ModeText {
		b.WriteString(helpStyle.Render("enter: submit  esc: options  ctrl+c: close"))
	} else {
		b.WriteString(helpStyle.Render("j/k: navigate  1-9: pick  enter: submit  t: type an answer  ?: help  q: close"))
	}

	return b.String()
}

// renderOptions renders the numbered option list
func (m *Model) renderOptions(b *strings.Builder) {
	for i, opt := range m.question.Options {
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
		b.WriteString(successStyle.Render("Submitting..."))
	} else if m.selected > 0 {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(fmt.Sprintf("Press Enter to answer %q", m.question.Options[m.selected-1])))
	}
}

// renderTextMode renders the free-form answer editor
func (m *Model) renderTextMode(b *strings.Builder) {
	b.WriteString(inputLabelStyle.Render("Your answer:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.submitting {
		b.WriteString(successStyle.Render("Submitting..."))
		b.WriteString("\n")
	}
}

// renderCountdown renders the remaining-time line
func (m *Model) renderCountdown() string {
	line := fmt.Sprintf("⏳ %s to answer", ui.FormatRemaining(m.remaining))
	if m.remaining <= 10*tickInterval {
		return countdownUrgentStyle.Render(line)
	}
	return countdownStyle.Render(line)
}
