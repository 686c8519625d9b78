package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/domain"
)

var (
	// TitleStyle is used for screen titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")). // Purple
			MarginBottom(1)

	// SelectedItemStyle is used for highlighted/selected items.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")). // Light purple
				Bold(true)

	// NormalItemStyle is used for non-selected items.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light gray

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// SuccessStyle is used for confirmations.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")) // Green

	// WarningStyle is used for the session expiry warning.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")). // Yellow
			Bold(true)

	// PromptStyle is used for prompt text.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")). // Light blue
			MarginBottom(1)

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			MarginTop(1)
)

// statusColor returns the accent color for a card status.
func statusColor(s domain.Status) lipgloss.Color {
	switch s {
	case domain.StatusTodo:
		return lipgloss.Color("33") // Blue
	case domain.StatusDoing:
		return lipgloss.Color("214") // Orange
	case domain.StatusDone:
		return lipgloss.Color("34") // Green
	default:
		return lipgloss.Color("241")
	}
}

// statusBadge renders a status as a colored label.
func statusBadge(s domain.Status) string {
	return lipgloss.NewStyle().Foreground(statusColor(s)).Render(s.Label())
}
