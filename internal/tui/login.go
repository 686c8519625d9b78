package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/api"
)

// Login form fields, in display order
const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

// LoginModel is the login and sign-up screen. Tab switches between the two.
type LoginModel struct {
	client *api.Client
	ctx    context.Context

	inputs   [fieldCount]textinput.Model
	focus    int
	register bool
	spinner  spinner.Model

	submitting bool
	notice     string
	err        error
	width      int
	height     int
}

// NewLoginModel creates the login screen. notice is shown above the form.
func NewLoginModel(client *api.Client, ctx context.Context, notice string) LoginModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 32
		inputs[i] = ti
	}
	inputs[fieldUsername].Prompt = "Username: "
	inputs[fieldEmail].Prompt = "Email:    "
	inputs[fieldPassword].Prompt = "Password: "
	inputs[fieldConfirm].Prompt = "Confirm:  "
	for _, i := range []int{fieldPassword, fieldConfirm} {
		inputs[i].EchoMode = textinput.EchoPassword
		inputs[i].EchoCharacter = '•'
	}
	inputs[fieldUsername].Focus()

	return LoginModel{
		client:  client,
		ctx:     ctx,
		inputs:  inputs,
		spinner: sp,
		notice:  notice,
	}
}

// Init initializes the model.
func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, tea.WindowSize())
}

// Update handles messages.
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginFailedMsg:
		m.submitting = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m LoginModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.register = !m.register
		m.err = nil
		m.setFocus(fieldUsername)
		return m, textinput.Blink
	case "up", "shift+tab":
		m.setFocus(m.step(-1))
		return m, nil
	case "down":
		m.setFocus(m.step(1))
		return m, nil
	case "enter":
		if next := m.step(1); next > m.focus {
			m.setFocus(next)
			return m, nil
		}
		return m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// step returns the visible field delta positions away from the focused one,
// stopping at the ends.
func (m LoginModel) step(delta int) int {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	pos = min(max(pos+delta, 0), len(fields)-1)
	return fields[pos]
}

func (m LoginModel) fields() []int {
	if m.register {
		return []int{fieldUsername, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []int{fieldUsername, fieldPassword}
}

func (m *LoginModel) setFocus(field int) {
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	m.focus = field
}

func (m LoginModel) submit() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()

	if m.register {
		r := api.Registration{
			Username: username,
			Email:    strings.TrimSpace(m.inputs[fieldEmail].Value()),
			Password: password,
			Confirm:  m.inputs[fieldConfirm].Value(),
		}
		if err := r.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.submitting = true
		m.err = nil
		return m, m.registerCmd(r)
	}

	cr := api.Credentials{Username: username, Password: password}
	if err := cr.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	m.submitting = true
	m.err = nil
	return m, m.loginCmd(cr)
}

func (m LoginModel) loginCmd(cr api.Credentials) tea.Cmd {
	return func() tea.Msg {
		session, err := m.client.Login(m.ctx, cr)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{session: session}
	}
}

func (m LoginModel) registerCmd(r api.Registration) tea.Cmd {
	return func() tea.Msg {
		session, err := m.client.Register(m.ctx, r)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{session: session}
	}
}

// View renders the form.
func (m LoginModel) View() string {
	var b strings.Builder

	title := "Log in"
	other := "tab: create an account"
	if m.register {
		title = "Create an account"
		other = "tab: log in instead"
	}
	b.WriteString(TitleStyle.Render("cardboard · " + title))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(WarningStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	for _, f := range m.fields() {
		b.WriteString(m.inputs[f].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(m.spinner.View() + " Signing in...")
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(m.err.Error()))
	}

	b.WriteString(HelpStyle.Render("enter: next / submit • ↑/↓: move • " + other + " • esc: quit"))

	if m.width == 0 || m.height == 0 {
		return b.String()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

type loginFailedMsg struct{ err error }
