package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles used by the todo view.
type Styles struct {
	Title     lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Done      lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Input     lipgloss.Style
	Container lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	var (
		primary = lipgloss.Color("#7C3AED")
		muted   = lipgloss.Color("#6C7086")
		success = lipgloss.Color("#A6E3A1")
		failure = lipgloss.Color("#F38BA8")
		border  = lipgloss.Color("#45475A")
	)
	return &Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(primary).MarginBottom(1),
		Item:      lipgloss.NewStyle().PaddingLeft(2),
		Selected:  lipgloss.NewStyle().Foreground(primary).Bold(true),
		Done:      lipgloss.NewStyle().Foreground(success).Strikethrough(true),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Error:     lipgloss.NewStyle().Foreground(failure),
		Input:     lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		Container: lipgloss.NewStyle().Padding(1, 2),
	}
}
