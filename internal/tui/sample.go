package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/sample"
)

// SampleModel asks for a project name and fills it with demo cards.
type SampleModel struct {
	gen *sample.Generator
	ctx context.Context

	input   textinput.Model
	spinner spinner.Model
	running bool
	err     error
}

// NewSampleModel creates the sample generator prompt.
func NewSampleModel(gen *sample.Generator, ctx context.Context) SampleModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Demo project"
	ti.Prompt = "Project name: "
	ti.CharLimit = 100
	ti.Width = 40
	ti.Focus()

	return SampleModel{
		gen:     gen,
		ctx:     ctx,
		input:   ti,
		spinner: sp,
	}
}

// Init initializes the model.
func (m SampleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages.
func (m SampleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case samplesCreatedMsg:
		// Only rejected names reach the prompt; the app handles the rest.
		m.running = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.running {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return closeSampleMsg{} }
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			m.running = true
			m.err = nil
			return m, generateSamples(m.ctx, m.gen, name)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the prompt.
func (m SampleModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Generate sample cards"))
	b.WriteString("\n")
	b.WriteString(PromptStyle.Render(fmt.Sprintf("Creates %d cards under a new project name.", m.gen.Count())))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.running:
		b.WriteString(m.spinner.View() + " Creating cards...")
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(m.err.Error()))
	}

	b.WriteString(HelpStyle.Render("enter: generate • esc: cancel"))
	return b.String()
}
