package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"
)

// Layout constants
const (
	detailHeaderLines = 4 // title, metadata, blank, separator
	detailFooterLines = 1
	borderSize        = 2 // Top + bottom border
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

var (
	mdRendererMu sync.Mutex
	// Renderers keyed by wrap width. A fixed style avoids terminal
	// background queries that WithAutoStyle would make.
	mdRenderers = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders a card description, falling back to plain wrapped
// text when glamour fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, 10)

	mdRendererMu.Lock()
	r := mdRenderers[width]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return wordwrap.String(md, width)
		}
		mdRenderers[width] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return wordwrap.String(md, width)
	}
	return strings.TrimRight(out, "\n")
}

// DetailModel shows one card with its description rendered as markdown
type DetailModel struct {
	cfg  config.Config
	card domain.Card

	viewport viewport.Model
	notice   string

	// View dimensions
	width  int
	height int
}

// NewDetailModel creates a new detail view model
func NewDetailModel(card domain.Card, cfg config.Config) DetailModel {
	vp := viewport.New(60, 10) // Will be resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	return DetailModel{
		cfg:      cfg,
		card:     card,
		viewport: vp,
	}
}

// Init initializes the detail model
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// resizeComponents sizes the viewport and re-renders the description
func (m *DetailModel) resizeComponents() {
	m.viewport.Width = max(m.width-borderSize-2, 20) // -2 for padding
	m.viewport.Height = max(m.height-detailHeaderLines-detailFooterLines-borderSize, 3)
	m.updateViewportContent()
}

func (m *DetailModel) updateViewportContent() {
	body := renderMarkdown(m.card.Description, m.viewport.Width-2)
	if body == "" {
		body = dimStyle.Render("No description")
	}
	m.viewport.SetContent(body)
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "e":
		card := m.card
		return m, func() tea.Msg { return openFormMsg{card: &card} }
	case "o":
		u := m.cfg.CardURL(m.card.ID)
		if u == "" {
			m.notice = "Set web_url in the config to open cards in the browser"
			return m, nil
		}
		if err := browser.OpenURL(u); err != nil {
			m.notice = fmt.Sprintf("Failed to open browser: %v", err)
		}
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

// View renders the detail view
func (m DetailModel) View() string {
	width := m.width
	if width == 0 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(wordwrap.String(m.card.Title, width-2)))
	b.WriteString("\n")

	meta := []string{
		detailLabelStyle.Render("Status: ") + statusBadge(m.card.Status),
	}
	if !m.card.CreatedAt.IsZero() {
		meta = append(meta, detailLabelStyle.Render("Created: ")+detailValueStyle.Render(formatTimeAgo(m.card.CreatedAt, time.Now())))
	}
	if !m.card.UpdatedAt.IsZero() {
		meta = append(meta, detailLabelStyle.Render("Updated: ")+detailValueStyle.Render(formatTimeAgo(m.card.UpdatedAt, time.Now())))
	}
	b.WriteString(strings.Join(meta, "   "))
	b.WriteString("\n\n")

	panel := panelBorderStyle.
		Width(width - borderSize).
		Padding(0, 1).
		Render(m.viewport.View())
	b.WriteString(panel)
	b.WriteString("\n")
	b.WriteString(m.renderFooter(width))

	return b.String()
}

// renderFooter renders key hints and the scroll position
func (m DetailModel) renderFooter(width int) string {
	left := "[q]back [e]edit [j/k]scroll [g/G]top/bottom"
	if m.cfg.WebURL != "" {
		left += " [o]open"
	}
	if m.notice != "" {
		left = m.notice
	}

	right := ""
	if m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			right = "TOP"
		case m.viewport.AtBottom():
			right = "END"
		default:
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// formatTimeAgo converts a timestamp to relative time
func formatTimeAgo(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	case duration < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	case duration < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(duration.Hours()/24/7))
	case duration < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(duration.Hours()/24/30))
	default:
		return t.Format("2006-01-02")
	}
}
