package prompt

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorAccent = lipgloss.Color("39")  // blue
	colorUrgent = lipgloss.Color("196") // bright red
	colorOK     = lipgloss.Color("76")  // green
	colorMuted  = lipgloss.Color("242") // gray
	colorWhite  = lipgloss.Color("15")
)

// Styles for the question window
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	optionNumberStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	optionLabelStyle = lipgloss.NewStyle().
				Foreground(colorWhite)

	selectedOptionStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(colorWhite).
				Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	countdownUrgentStyle = lipgloss.NewStyle().
				Foreground(colorUrgent).
				Bold(true)

	inputLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorUrgent)

	successStyle = lipgloss.NewStyle().
			Foreground(colorOK)
)
