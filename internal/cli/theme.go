// Package cli renders rider search results for the terminal.
package cli

import "github.com/charmbracelet/lipgloss"

// Theme defines the styles used when rendering tables.
type Theme struct {
	Name   string
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
	Accent lipgloss.Style
	Border lipgloss.Style
}

// DefaultTheme returns a colored theme.
func DefaultTheme() Theme {
	return Theme{
		Name:   "default",
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1), // blue
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// MonoTheme returns a theme without colors, for pipes and tests.
func MonoTheme() Theme {
	return Theme{
		Name:   "mono",
		Header: lipgloss.NewStyle().Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Muted:  lipgloss.NewStyle(),
		Accent: lipgloss.NewStyle(),
		Border: lipgloss.NewStyle(),
	}
}
