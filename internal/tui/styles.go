package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6b7280")
	colorBorder  = lipgloss.Color("#2a3850")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles used by the views.
type Styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Panel     lipgloss.Style
	Card      lipgloss.Style
	CardOpen  lipgloss.Style
	CardDone  lipgloss.Style
	Cursor    lipgloss.Style
	Choice    lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Muted     lipgloss.Style
	Help      lipgloss.Style
}

// DefaultStyles returns the arcade palette.
func DefaultStyles() Styles {
	card := lipgloss.NewStyle().
		Width(6).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder)

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		Tab:       lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(colorPrimary).Underline(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2),
		Card:     card,
		CardOpen: card.BorderForeground(colorInfo),
		CardDone: card.BorderForeground(colorPrimary).Faint(true),
		Cursor:   card.BorderForeground(colorWarning),
		Choice:   lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.NormalBorder()).BorderForeground(colorBorder),
		Success:  lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(colorWarning),
		Info:     lipgloss.NewStyle().Foreground(colorInfo),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Help:     lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1),
	}
}
