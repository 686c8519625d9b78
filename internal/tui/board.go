package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/store"
	"github.com/h0rv/cardboard/internal/view"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 40
	gridColumns    = 3 // cards per row in the all view
	cardBodyLines  = 3
	chromeLines    = 4 // header, filter line, notice line, footer
)

// Styles for the dashboard - base styles without width/height (set dynamically)
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("205")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("196")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)

	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// BoardModel is the dashboard: the card grid, the per-project status columns
// and the stats screen, plus the search box and status filters over them.
type BoardModel struct {
	// Dependencies
	coord  *coordinator.Coordinator
	store  *store.Store
	client *api.Client
	cfg    config.Config
	ctx    context.Context

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	searchInput textinput.Model
	paginator   paginator.Model

	// Selection
	selected       int    // index into the current page (all view)
	selectedColumn int    // status column (project view)
	selectedCard   [3]int // per column (project view)

	// View state
	width          int
	height         int
	showHelp       bool
	searchMode     bool
	confirmDelete  bool
	projects       []string
	notice         string
	noticeFailed   bool
	sessionWarning string
}

// NewBoardModel creates a new dashboard model
func NewBoardModel(coord *coordinator.Coordinator, s *store.Store, client *api.Client, cfg config.Config, ctx context.Context) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Search title or description..."
	ti.Prompt = "/ "
	ti.SetValue(coord.Filters().SearchTerm)

	pg := paginator.New()
	pg.Type = paginator.Arabic
	pg.ArabicFormat = "page %d of %d"
	pg.PerPage = coord.PageSize()

	return BoardModel{
		coord:       coord,
		store:       s,
		client:      client,
		cfg:         cfg,
		ctx:         ctx,
		keymap:      DefaultKeyMap(),
		help:        NewHelpModel(DefaultKeyMap(), cfg.DevMode),
		spinner:     sp,
		searchInput: ti,
		paginator:   pg,
	}
}

// Init initializes the dashboard
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeMsg:
		m.notice = msg.text
		m.noticeFailed = msg.failed
		return m, nil

	case projectsLoadedMsg:
		if msg.err == nil {
			m.projects = msg.names
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.searchMode {
		return m.handleSearchKey(msg)
	}

	// Delete confirmation: y deletes, anything else cancels
	if m.confirmDelete {
		m.confirmDelete = false
		if msg.String() != "y" {
			return m, nil
		}
		card := m.getSelectedCard()
		if card == nil {
			return m, nil
		}
		m.notice = "Deleting " + card.Title + "..."
		m.noticeFailed = false
		return m, deleteCard(m.ctx, m.client, card.ID)
	}

	km := m.keymap
	switch {
	case key.Matches(msg, km.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.Help):
		m.showHelp = true
	case msg.String() == "esc":
		m.notice = ""
	case key.Matches(msg, km.Search):
		m.searchMode = true
		return m, m.searchInput.Focus()

	case key.Matches(msg, km.ViewAll):
		return m.setViewMode(domain.ViewAll)
	case key.Matches(msg, km.ViewProjects):
		return m.setViewMode(domain.ViewProject)
	case key.Matches(msg, km.ViewStats):
		return m.setViewMode(domain.ViewStats)
	case key.Matches(msg, km.ToggleTodo):
		return m, m.run(m.coord.ToggleStatus(domain.StatusTodo))
	case key.Matches(msg, km.ToggleDoing):
		return m, m.run(m.coord.ToggleStatus(domain.StatusDoing))
	case key.Matches(msg, km.ToggleDone):
		return m, m.run(m.coord.ToggleStatus(domain.StatusDone))
	case key.Matches(msg, km.PickProject):
		if m.coord.Filters().ViewMode == domain.ViewProject {
			return m, func() tea.Msg { return openPickerMsg{} }
		}

	case key.Matches(msg, km.PrevPage):
		m.coord.PrevPage()
		m.selected = 0
	case key.Matches(msg, km.NextPage):
		m.coord.NextPage()
		m.selected = 0
	case key.Matches(msg, km.Left):
		(&m).moveHorizontal(-1)
	case key.Matches(msg, km.Right):
		(&m).moveHorizontal(1)
	case key.Matches(msg, km.Up):
		(&m).moveVertical(-1)
	case key.Matches(msg, km.Down):
		(&m).moveVertical(1)

	case key.Matches(msg, km.New):
		return m, func() tea.Msg { return openFormMsg{} }
	case key.Matches(msg, km.Edit):
		if card := m.getSelectedCard(); card != nil {
			return m, func() tea.Msg { return openFormMsg{card: card} }
		}
	case key.Matches(msg, km.Delete):
		if m.getSelectedCard() != nil {
			m.confirmDelete = true
		}
	case key.Matches(msg, km.Open):
		if card := m.getSelectedCard(); card != nil {
			return m, func() tea.Msg { return openDetailMsg{card: *card} }
		}
	case key.Matches(msg, km.Browser):
		if card := m.getSelectedCard(); card != nil {
			if u := m.cfg.CardURL(card.ID); u != "" {
				_ = browser.OpenURL(u)
			}
		}
	case key.Matches(msg, km.Refresh):
		return m, m.run(m.coord.Refresh())
	case key.Matches(msg, km.Sample):
		if m.cfg.DevMode {
			return m, func() tea.Msg { return openSampleMsg{} }
		}
	case key.Matches(msg, km.Logout):
		return m, func() tea.Msg { return logoutMsg{} }
	}

	return m, nil
}

// handleSearchKey edits the search term. The term applies on every keystroke;
// enter keeps it and esc clears it.
func (m BoardModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.coord.SetSearchTerm("")
		(&m).resetSelection()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if term := m.searchInput.Value(); term != m.coord.Filters().SearchTerm {
		m.coord.SetSearchTerm(term)
		(&m).resetSelection()
	}
	return m, cmd
}

func (m BoardModel) setViewMode(mode domain.ViewMode) (tea.Model, tea.Cmd) {
	eff := m.coord.SetViewMode(mode)
	(&m).resetSelection()
	return m, m.run(eff)
}

func (m BoardModel) run(eff coordinator.Effect) tea.Cmd {
	return runEffect(m.ctx, m.client, eff)
}

// SetSessionWarning sets or clears the expiry warning in the header.
func (m *BoardModel) SetSessionWarning(text string) {
	m.sessionWarning = text
}

// Refresh re-clamps the selection after the card set changed.
func (m *BoardModel) Refresh() {
	if n := len(m.coord.Page().Cards); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	cols := m.coord.Columns()
	for i, s := range domain.AllStatuses {
		if n := len(cols.For(s)); m.selectedCard[i] >= n {
			m.selectedCard[i] = max(n-1, 0)
		}
	}
}

func (m *BoardModel) resetSelection() {
	m.selected = 0
	m.selectedCard = [3]int{}
}

// moveHorizontal pages in the all view and switches columns in the project view.
func (m *BoardModel) moveHorizontal(delta int) {
	switch m.coord.Filters().ViewMode {
	case domain.ViewAll:
		m.coord.SetPage(m.coord.Page().Number + delta)
		m.selected = 0
	case domain.ViewProject:
		m.selectedColumn = min(max(m.selectedColumn+delta, 0), len(domain.AllStatuses)-1)
	}
}

func (m *BoardModel) moveVertical(delta int) {
	switch m.coord.Filters().ViewMode {
	case domain.ViewAll:
		n := len(m.coord.Page().Cards)
		if n == 0 {
			return
		}
		m.selected = min(max(m.selected+delta, 0), n-1)
	case domain.ViewProject:
		cards := m.coord.Columns().For(domain.AllStatuses[m.selectedColumn])
		if len(cards) == 0 {
			return
		}
		idx := m.selectedCard[m.selectedColumn] + delta
		m.selectedCard[m.selectedColumn] = min(max(idx, 0), len(cards)-1)
	}
}

// getSelectedCard returns the currently selected card
func (m BoardModel) getSelectedCard() *domain.Card {
	switch m.coord.Filters().ViewMode {
	case domain.ViewAll:
		cards := m.coord.Page().Cards
		if len(cards) == 0 {
			return nil
		}
		card := cards[min(m.selected, len(cards)-1)]
		return &card
	case domain.ViewProject:
		if !m.coord.Filters().HasProject() {
			return nil
		}
		cards := m.coord.Columns().For(domain.AllStatuses[m.selectedColumn])
		if len(cards) == 0 {
			return nil
		}
		card := cards[min(m.selectedCard[m.selectedColumn], len(cards)-1)]
		return &card
	}
	return nil
}

// View renders the dashboard - fills entire terminal exactly
func (m BoardModel) View() string {
	// Use sensible defaults if dimensions not yet set
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	sections := []string{
		m.renderHeader(width),
		m.renderFilterLine(width),
		m.renderNoticeLine(),
	}

	bodyHeight := max(height-chromeLines, 5)

	var mainContent string
	switch {
	case m.showHelp:
		helpLines := strings.Split(m.help.View(width), "\n")
		if len(helpLines) > bodyHeight {
			helpLines = helpLines[:bodyHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	case m.coord.Filters().ViewMode == domain.ViewStats:
		mainContent = m.renderStats(width, bodyHeight)
	case m.coord.State() == coordinator.Loading && !m.coord.HasLoaded():
		mainContent = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading cards...")
	case m.coord.State() == coordinator.Error && !m.coord.HasLoaded():
		mainContent = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, "Failed to load cards. Press 'r' to retry.")
	case m.coord.Filters().ViewMode == domain.ViewProject:
		mainContent = m.renderProject(width, bodyHeight)
	default:
		mainContent = m.renderGrid(width, bodyHeight)
	}
	sections = append(sections, mainContent, m.renderFooter(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title, view tabs and the visible card count
func (m BoardModel) renderHeader(width int) string {
	left := titleStyle.Render("cardboard")
	if u := m.store.GetUser(); u != nil && u.Username != "" {
		left += dimStyle.Render(" @" + u.Username)
	}

	var tabs []string
	for i, mode := range []domain.ViewMode{domain.ViewAll, domain.ViewProject, domain.ViewStats} {
		label := fmt.Sprintf("%d %s", i+1, tabLabel(mode))
		if mode == m.coord.Filters().ViewMode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	left += "  " + strings.Join(tabs, "")

	var statusParts []string
	if m.coord.State() == coordinator.Loading || m.coord.StatsLoading() {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	statusParts = append(statusParts, fmt.Sprintf("%d cards", m.coord.Total()))
	statusParts = append(statusParts, "[?]help")
	right := dimStyle.Render(strings.Join(statusParts, " | "))

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", padding) + right
}

func tabLabel(mode domain.ViewMode) string {
	switch mode {
	case domain.ViewProject:
		return "Projects"
	case domain.ViewStats:
		return "Stats"
	default:
		return "All"
	}
}

// renderFilterLine renders the status checkboxes and the search box
func (m BoardModel) renderFilterLine(width int) string {
	filters := m.coord.Filters()

	var boxes []string
	for _, s := range domain.AllStatuses {
		mark := "[ ]"
		if filters.Statuses.Has(s) {
			mark = "[x]"
		}
		boxes = append(boxes, mark+" "+statusBadge(s))
	}
	left := strings.Join(boxes, "  ")

	if filters.ViewMode == domain.ViewProject {
		project := "(none)"
		if filters.HasProject() {
			project = filters.ProjectName
		}
		left += dimStyle.Render("  project: ") + project
	}

	var right string
	switch {
	case m.searchMode:
		m.searchInput.Width = max(width/3, 20)
		right = m.searchInput.View()
	case filters.SearchTerm != "":
		right = dimStyle.Render("/" + filters.SearchTerm)
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", padding) + right
}

// renderNoticeLine renders the delete prompt, the latest notice or the
// session warning
func (m BoardModel) renderNoticeLine() string {
	switch {
	case m.confirmDelete:
		if card := m.getSelectedCard(); card != nil {
			return confirmStyle.Render("DELETE") + fmt.Sprintf(" Delete %q? y to confirm, any other key to cancel", card.Title)
		}
	case m.notice != "" && m.noticeFailed:
		return errorStyle.Render(m.notice)
	case m.notice != "":
		return SuccessStyle.Render(m.notice)
	case m.sessionWarning != "":
		return WarningStyle.Render(m.sessionWarning)
	}
	return ""
}

// renderFooter renders the paginator and key hints
func (m BoardModel) renderFooter(width int) string {
	left := "j/k:card [/]:page /:search t/d/D:status n:new e:edit x:delete enter:view"
	right := ""

	switch m.coord.Filters().ViewMode {
	case domain.ViewAll:
		page := m.coord.Page()
		p := m.paginator
		p.SetTotalPages(page.Total)
		p.Page = page.Number - 1
		right = p.View()
	case domain.ViewProject:
		left = "h/l:col j/k:card p:project /:search n:new e:edit x:delete enter:view"
	case domain.ViewStats:
		left = "r:refresh 1/2:cards /:search"
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderGrid renders the current page of searched cards, three per row
func (m BoardModel) renderGrid(width, height int) string {
	page := m.coord.Page()
	if len(page.Cards) == 0 {
		msg := "No cards yet. Press 'n' to create one."
		if m.coord.Filters().SearchTerm != "" {
			msg = "No cards match your search. Try a different search term."
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	cardWidth := min(max(width/gridColumns, minColumnWidth), maxColumnWidth+10)
	innerWidth := max(cardWidth-4, 10)

	var rows []string
	for start := 0; start < len(page.Cards); start += gridColumns {
		end := min(start+gridColumns, len(page.Cards))
		boxes := make([]string, 0, gridColumns)
		for i := start; i < end; i++ {
			boxes = append(boxes, m.renderCardBox(page.Cards[i], i == m.selected, cardWidth, innerWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCardBox renders one card of the grid
func (m BoardModel) renderCardBox(card domain.Card, selected bool, width, innerWidth int) string {
	title := truncate.StringWithTail(card.Title, uint(innerWidth), "…")
	lines := []string{titleStyle.Render(title), statusBadge(card.Status)}

	body := strings.Split(wordwrap.String(card.Description, innerWidth), "\n")
	if len(body) > cardBodyLines {
		body = body[:cardBodyLines]
		body[cardBodyLines-1] = truncate.StringWithTail(body[cardBodyLines-1], uint(innerWidth-1), "") + "…"
	}
	for len(body) < cardBodyLines {
		body = append(body, "")
	}
	for _, l := range body {
		lines = append(lines, cardStyle.Render(truncate.String(l, uint(innerWidth))))
	}

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}
	return lipgloss.NewStyle().
		Width(width - 2).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(strings.Join(lines, "\n"))
}

// renderProject renders the selected project as three status columns
func (m BoardModel) renderProject(width, height int) string {
	if !m.coord.Filters().HasProject() {
		msg := "No project selected. Press 'p' to choose one."
		if len(m.projects) > 0 {
			msg = fmt.Sprintf("%d projects. Press 'p' to choose one.", len(m.projects))
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	cols := m.coord.Columns()
	colWidth := min(max(width/len(domain.AllStatuses), minColumnWidth), maxColumnWidth)
	innerWidth := max(colWidth-4, 10)
	innerHeight := max(height-2, 3)

	columnViews := make([]string, 0, len(domain.AllStatuses))
	for i, s := range domain.AllStatuses {
		columnViews = append(columnViews, m.renderColumn(i, s, cols.For(s), colWidth, innerWidth, innerHeight))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderColumn renders a single status column with proper sizing
// innerHeight is the content area, not including border
func (m BoardModel) renderColumn(idx int, status domain.Status, cards []domain.Card, width, innerWidth, innerHeight int) string {
	selected := idx == m.selectedColumn
	selectedIdx := m.selectedCard[idx]

	headerText := fmt.Sprintf("[%d] %s (%d)", idx+1, status.Label(), len(cards))
	lines := []string{columnHeaderStyle.Render(truncate.StringWithTail(headerText, uint(innerWidth), "…"))}

	// Keep the selected card in view
	slots := max(innerHeight-2, 1)
	offset := 0
	if selectedIdx >= slots {
		offset = selectedIdx - slots + 1
	}
	if offset > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", offset)))
	}

	end := min(offset+slots, len(cards))
	for i := offset; i < end; i++ {
		text := truncate.StringWithTail(firstLine(cards[i].Description), uint(innerWidth-3), "…")
		if selected && i == selectedIdx {
			lines = append(lines, selectedCardStyle.Render("> "+text))
		} else {
			lines = append(lines, cardStyle.Render("  "+text))
		}
	}

	if remaining := len(cards) - end; remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(cards) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	borderColor := statusColor(status)
	if !selected {
		borderColor = lipgloss.Color("240")
	}
	return lipgloss.NewStyle().
		Width(width-2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(strings.Join(lines, "\n"))
}

// renderStats renders the stat boxes and the per-status bar chart
func (m BoardModel) renderStats(width, height int) string {
	stats := m.coord.Stats()
	if stats == nil {
		msg := "No stats loaded. Press 'r' to refresh."
		if m.coord.StatsLoading() {
			msg = m.spinner.View() + " Loading stats..."
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	sum := view.Summarize(*stats)
	mostActive := sum.MostActive
	if sum.MostActiveCount > 0 {
		mostActive = fmt.Sprintf("%s (%d)", sum.MostActive, sum.MostActiveCount)
	}

	boxes := []string{
		statBox("Total cards", fmt.Sprint(sum.TotalCards)),
		statBox("Projects", fmt.Sprint(sum.TotalProjects)),
		statBox("Created, 7 days", fmt.Sprint(sum.CreatedLast7Days)),
		statBox("Completed, 7 days", fmt.Sprint(sum.CompletedLast7)),
		statBox("Completed per day", fmt.Sprintf("%.1f", sum.AvgCompletedDaily)),
		statBox("Most active, 30 days", mostActive),
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, boxes[:3]...)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, boxes[3:]...)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, "", renderBars(sum, width))
}

func statBox(label, value string) string {
	return statBoxStyle.Width(24).Render(dimStyle.Render(label) + "\n" + titleStyle.Render(value))
}

// renderBars draws one horizontal bar per status, scaled to the largest
func renderBars(sum view.Summary, width int) string {
	const labelWidth = 8
	barWidth := max(width-labelWidth-10, 10)

	lines := []string{columnHeaderStyle.Render("Cards by status")}
	for _, b := range sum.Bars {
		n := 0
		if sum.MaxBar > 0 {
			n = b.Count * barWidth / sum.MaxBar
		}
		bar := lipgloss.NewStyle().Foreground(statusColor(b.Status)).Render(strings.Repeat("█", n))
		label := lipgloss.NewStyle().Width(labelWidth).Render(b.Label)
		lines = append(lines, fmt.Sprintf("%s %s %d", label, bar, b.Count))
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
