package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	App       lipgloss.Style
	Box       lipgloss.Style
	Help      lipgloss.Style
	Label     lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	Muted     lipgloss.Style
	ErrorText lipgloss.Style
}

func DefaultStyles() Styles {
	s := Styles{}
	s.App = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		Padding(1, 2)
	s.Box = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true).
		BorderForeground(highlightColor)
	s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.Label = lipgloss.NewStyle().Bold(true).Width(10)
	s.Playing = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	s.Paused = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	s.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.ErrorText = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	return s
}
