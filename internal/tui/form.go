package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/domain"
)

// Form focus order
const (
	focusTitle = iota
	focusDescription
	focusStatus
	focusCount
)

var formLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	Width(13)

// CardFormModel creates or edits a card. A failed save keeps the form open
// with the values as typed so the user can retry.
type CardFormModel struct {
	client *api.Client
	ctx    context.Context

	cardID      string // empty when creating
	title       textinput.Model
	description textarea.Model
	status      int // index into domain.AllStatuses
	focus       int
	spinner     spinner.Model

	saving bool
	err    error
	width  int
}

// NewCardFormModel creates the form, prefilled from card when editing.
func NewCardFormModel(card *domain.Card, client *api.Client, ctx context.Context) CardFormModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Project name"
	ti.Prompt = ""
	ti.CharLimit = 100
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "What needs doing?"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(60)
	ta.SetHeight(5)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle() // No highlight on cursor line

	m := CardFormModel{
		client:      client,
		ctx:         ctx,
		title:       ti,
		description: ta,
		spinner:     sp,
	}
	if card != nil {
		m.cardID = card.ID
		m.title.SetValue(card.Title)
		m.description.SetValue(card.Description)
		for i, s := range domain.AllStatuses {
			if s == card.Status {
				m.status = i
			}
		}
	}
	m.setFocus(focusTitle)
	return m
}

// Init initializes the model.
func (m CardFormModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, tea.WindowSize())
}

// Update handles messages.
func (m CardFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.description.SetWidth(min(max(msg.Width-20, 30), 80))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cardSavedMsg:
		// Only failures reach the form; the app handles success.
		m.saving = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m.updateFocused(msg)
}

func (m CardFormModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.saving {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return closeFormMsg{} }
	case "ctrl+s":
		return m.submit()
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	case "enter":
		if m.focus == focusTitle {
			m.setFocus(focusDescription)
			return m, nil
		}
		if m.focus == focusStatus {
			return m.submit()
		}
	}

	if m.focus == focusStatus {
		switch msg.String() {
		case "left", "h":
			m.status = (m.status + len(domain.AllStatuses) - 1) % len(domain.AllStatuses)
		case "right", "l", " ":
			m.status = (m.status + 1) % len(domain.AllStatuses)
		case "1", "2", "3":
			m.status = int(msg.Runes[0] - '1')
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m CardFormModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *CardFormModel) setFocus(f int) {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusDescription:
		m.description.Focus()
	}
}

// Input returns the card as currently typed.
func (m CardFormModel) Input() domain.CardInput {
	return domain.CardInput{
		Title:       strings.TrimSpace(m.title.Value()),
		Description: strings.TrimSpace(m.description.Value()),
		Status:      domain.AllStatuses[m.status],
	}
}

func (m CardFormModel) submit() (tea.Model, tea.Cmd) {
	in := m.Input()
	if err := in.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	m.saving = true
	m.err = nil
	return m, saveCard(m.ctx, m.client, m.cardID, in)
}

// View renders the form.
func (m CardFormModel) View() string {
	var b strings.Builder

	heading := "New card"
	if m.cardID != "" {
		heading = "Edit card"
	}
	b.WriteString(TitleStyle.Render(heading))
	b.WriteString("\n")

	b.WriteString(formLabelStyle.Render(m.label("Project", focusTitle)))
	b.WriteString(m.title.View())
	b.WriteString("\n\n")

	b.WriteString(formLabelStyle.Render(m.label("Description", focusDescription)))
	b.WriteString("\n")
	b.WriteString(m.description.View())
	b.WriteString("\n\n")

	b.WriteString(formLabelStyle.Render(m.label("Status", focusStatus)))
	for i, s := range domain.AllStatuses {
		label := s.Label()
		if i == m.status {
			b.WriteString(lipgloss.NewStyle().Foreground(statusColor(s)).Bold(true).Render("(•) " + label))
		} else {
			b.WriteString(dimStyle.Render("( ) " + label))
		}
		b.WriteString("  ")
	}
	b.WriteString("\n\n")

	switch {
	case m.saving:
		b.WriteString(m.spinner.View() + " Saving...")
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(m.err.Error()))
	}

	b.WriteString(HelpStyle.Render("tab: next field • ←/→: status • ctrl+s: save • esc: cancel"))
	return b.String()
}

func (m CardFormModel) label(name string, field int) string {
	if m.focus == field {
		return "> " + name
	}
	return "  " + name
}
