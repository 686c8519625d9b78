package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	// HelpOverlayStyle defines the style for the help overlay container.
	HelpOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		MarginTop(1)
)

// HelpModel wraps the bubbles help component.
type HelpModel struct {
	help    help.Model
	keymap  KeyMap
	devMode bool
}

// NewHelpModel creates a new help overlay model. The sample binding is
// listed only in dev mode.
func NewHelpModel(keymap KeyMap, devMode bool) HelpModel {
	h := help.New()
	h.ShowAll = true

	return HelpModel{
		help:    h,
		keymap:  keymap,
		devMode: devMode,
	}
}

// ShortHelp implements help.KeyMap.
func (m HelpModel) ShortHelp() []key.Binding {
	return m.keymap.ShortHelp()
}

// FullHelp implements help.KeyMap.
func (m HelpModel) FullHelp() [][]key.Binding {
	groups := m.keymap.FullHelp()
	if m.devMode {
		return groups
	}
	out := make([][]key.Binding, 0, len(groups))
	for _, g := range groups {
		kept := make([]key.Binding, 0, len(g))
		for _, b := range g {
			if b.Help().Key == m.keymap.Sample.Help().Key {
				continue
			}
			kept = append(kept, b)
		}
		out = append(out, kept)
	}
	return out
}

// View renders the help overlay.
func (m HelpModel) View(width int) string {
	m.help.Width = width - 8 // Account for padding and border
	return HelpOverlayStyle.Render(m.help.View(m))
}
