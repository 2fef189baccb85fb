package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/pipestudio/preview"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	IdleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ActiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	DurationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	LabelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(9)
	ValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	SuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FooterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// StyleForState returns the style of the state badge.
func StyleForState(s preview.State) lipgloss.Style {
	if s == preview.StateIdle {
		return IdleStyle
	}
	return ActiveStyle
}
