package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Shared lipgloss styles, kept close to a standard terminal palette.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")) // cyan

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")) // green

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")) // red

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // gray

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // blue

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)
