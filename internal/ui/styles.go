package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by View.
type Styles struct {
	Header    lipgloss.Style
	Cursor    lipgloss.Style
	Open      lipgloss.Style
	Completed lipgloss.Style
	Editing   lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Faint     lipgloss.Style
}

// DefaultStyles returns the built-in styles. Completed tasks are struck
// through and dimmed.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1),
		Cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true),
		Open: lipgloss.NewStyle(),
		Completed: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("8")),
		Editing: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Faint: lipgloss.NewStyle().
			Faint(true),
	}
}
