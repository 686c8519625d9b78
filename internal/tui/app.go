package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/auth"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/sample"
	"github.com/h0rv/cardboard/internal/store"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLogin AppScreen = iota
	ScreenBoard
	ScreenForm
	ScreenProjectPicker
	ScreenDetail
	ScreenSample
)

const defaultSessionCheck = 5 * time.Minute

// AppModel is the root Bubble Tea model that manages screen transitions.
// Every async result passes through it so the coordinator sees completions
// no matter which screen is showing.
type AppModel struct {
	// Dependencies
	client *api.Client
	store  *store.Store
	coord  *coordinator.Coordinator
	gen    *sample.Generator
	cfg    config.Config
	ctx    context.Context
	logger *slog.Logger

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error

	// Cached models to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates the app. It opens on the dashboard when a usable
// session is stored and on the login screen otherwise.
func NewAppModel(ctx context.Context, cfg config.Config, client *api.Client, coord *coordinator.Coordinator, s *store.Store, gen *sample.Generator) AppModel {
	if cfg.SessionCheckInterval <= 0 {
		cfg.SessionCheckInterval = defaultSessionCheck
	}
	m := AppModel{
		client: client,
		store:  s,
		coord:  coord,
		gen:    gen,
		cfg:    cfg,
		ctx:    ctx,
		logger: slog.Default(),
	}

	session, status := client.Session().Current()
	if session != nil && status.Usable() {
		s.SetUser(&session.User)
		board := NewBoardModel(coord, s, client, cfg, ctx)
		m.boardModel = &board
		m.currentScreen = ScreenBoard
		m.currentModel = board
		return m
	}

	notice := ""
	if status == auth.StatusExpired {
		notice = SessionEnded(apperr.ErrSessionExpired).Notice
	}
	m.currentScreen = ScreenLogin
	m.currentModel = NewLoginModel(client, ctx, notice)
	return m
}

// Init initializes the app model.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.currentModel.Init(), m.sessionTick()}
	if m.currentScreen == ScreenBoard {
		cmds = append(cmds, m.run(m.coord.Mount(m.client.Session().IsValid())))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case loggedInMsg:
		return m.startDashboard(msg)

	case SessionEndedMsg:
		return m.endSession(msg.Notice)

	case logoutMsg:
		return m, logout(m.client)

	case sessionCheckMsg:
		return m.checkSession()

	case cardsLoadedMsg:
		eff := m.coord.LoadFinished(msg.seq, msg.cards, msg.err)
		m.withBoard(func(b *BoardModel) { b.Refresh() })
		return m, m.run(eff)

	case statsLoadedMsg:
		return m, m.run(m.coord.StatsFinished(msg.seq, msg.stats, msg.err))

	case projectsLoadedMsg:
		if msg.err != nil {
			return m, m.run(m.coord.Failed("Failed to load projects", msg.err))
		}
		m.updateBoard(msg)
		return m, nil

	case noticeMsg:
		m.updateBoard(msg)
		return m, nil

	case cardSavedMsg:
		if msg.err == nil {
			text := "Card updated"
			if msg.created {
				text = "Card created"
			}
			m.logger.Info("card saved", "id", msg.card.ID, "created", msg.created)
			return m.backToBoard(m.coord.CardsChanged(), text)
		}
		if apperr.IsSession(msg.err) {
			return m, m.run(m.coord.Failed("Failed to save card", msg.err))
		}
		// Validation and server failures keep the form open.

	case cardDeletedMsg:
		if msg.err != nil {
			return m, m.run(m.coord.DeleteFailed(msg.err))
		}
		eff := m.coord.CardDeleted(msg.id)
		m.withBoard(func(b *BoardModel) { b.Refresh() })
		return m, m.run(eff)

	case samplesCreatedMsg:
		if apperr.IsSession(msg.err) {
			return m, m.run(m.coord.Failed("Failed to generate sample cards", msg.err))
		}
		if msg.err != nil && len(msg.cards) == 0 {
			break
		}
		eff := m.coord.CardsChanged()
		if msg.err != nil {
			eff.Notice = &coordinator.Notice{
				Text:  fmt.Sprintf("Created %d of %d sample cards: %v", len(msg.cards), m.gen.Count(), msg.err),
				Error: true,
			}
			return m.backToBoard(eff, "")
		}
		return m.backToBoard(eff, fmt.Sprintf("Created %d sample cards for %s", len(msg.cards), msg.project))

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detail := NewDetailModel(msg.card, m.cfg)
		m.currentModel = detail
		return m, detail.Init()

	case openFormMsg:
		m.currentScreen = ScreenForm
		form := NewCardFormModel(msg.card, m.client, m.ctx)
		m.currentModel = form
		return m, form.Init()

	case openPickerMsg:
		var names []string
		if m.boardModel != nil {
			names = m.boardModel.projects
		}
		m.currentScreen = ScreenProjectPicker
		picker := NewProjectPickerModel(names, m.coord.Filters().ProjectName)
		m.currentModel = picker
		return m, picker.Init()

	case ProjectSelectedMsg:
		eff := m.coord.SelectProject(msg.Name)
		m.withBoard(func(b *BoardModel) { b.resetSelection() })
		return m.backToBoard(eff, "")

	case openSampleMsg:
		if !m.cfg.DevMode || m.gen == nil {
			return m, nil
		}
		m.currentScreen = ScreenSample
		prompt := NewSampleModel(m.gen, m.ctx)
		m.currentModel = prompt
		return m, prompt.Init()

	case closeDetailMsg, closeFormMsg, closePickerMsg, closeSampleMsg:
		return m.backToBoard(coordinator.Effect{}, "")
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep boardModel in sync when on board screen
		if m.currentScreen == ScreenBoard {
			if bm, ok := m.currentModel.(BoardModel); ok {
				m.boardModel = &bm
			}
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}
	if m.currentModel != nil {
		return m.currentModel.View()
	}
	return "Starting...\n\nPress Ctrl+C to quit"
}

// Screen returns the screen being shown.
func (m AppModel) Screen() AppScreen {
	return m.currentScreen
}

// startDashboard enters the dashboard after a login or sign-up.
func (m AppModel) startDashboard(msg loggedInMsg) (tea.Model, tea.Cmd) {
	m.coord.Reset()
	m.store.SetUser(&msg.session.User)
	m.logger.Info("logged in", "user", msg.session.User.Username)

	board := NewBoardModel(m.coord, m.store, m.client, m.cfg, m.ctx)
	m.boardModel = &board
	m.currentScreen = ScreenBoard
	m.currentModel = board
	return m, tea.Batch(board.Init(), m.run(m.coord.Mount(true)))
}

// endSession drops all user state and shows the login screen. Repeats are
// ignored so the first notice stays visible.
func (m AppModel) endSession(notice string) (tea.Model, tea.Cmd) {
	if m.currentScreen == ScreenLogin {
		return m, nil
	}
	m.logger.Info("session ended", "notice", notice)

	m.coord.Reset()
	m.store.SetUser(nil)
	m.boardModel = nil
	m.currentScreen = ScreenLogin
	login := NewLoginModel(m.client, m.ctx, notice)
	m.currentModel = login
	return m, login.Init()
}

// checkSession is the periodic session monitor: it warns when the session
// is about to expire and logs out once it has.
func (m AppModel) checkSession() (tea.Model, tea.Cmd) {
	next := m.sessionTick()
	if m.currentScreen == ScreenLogin {
		return m, next
	}

	switch m.client.Session().Check() {
	case auth.StatusExpiringSoon:
		left := m.client.Session().Remaining().Round(time.Minute)
		m.withBoard(func(b *BoardModel) {
			b.SetSessionWarning(fmt.Sprintf("Your session expires in %s. Log in again to keep working.", left))
		})
	case auth.StatusExpired:
		return m, tea.Batch(next, func() tea.Msg { return SessionEnded(apperr.ErrSessionExpired) })
	case auth.StatusNone:
		return m, tea.Batch(next, func() tea.Msg { return SessionEnded(apperr.ErrUnauthorized) })
	default:
		m.withBoard(func(b *BoardModel) { b.SetSessionWarning("") })
	}
	return m, next
}

func (m AppModel) sessionTick() tea.Cmd {
	return tea.Tick(m.cfg.SessionCheckInterval, func(time.Time) tea.Msg { return sessionCheckMsg{} })
}

// backToBoard returns to the dashboard and runs eff, showing text as a
// notice when set.
func (m AppModel) backToBoard(eff coordinator.Effect, text string) (tea.Model, tea.Cmd) {
	if text != "" {
		eff.Notice = &coordinator.Notice{Text: text}
	}
	m.currentScreen = ScreenBoard
	if m.boardModel != nil {
		m.boardModel.Refresh()
		m.currentModel = *m.boardModel
	}
	// Request window size to ensure proper rendering
	return m, tea.Batch(m.run(eff), tea.WindowSize())
}

// withBoard applies fn to the cached dashboard.
func (m *AppModel) withBoard(fn func(*BoardModel)) {
	if m.boardModel == nil {
		return
	}
	fn(m.boardModel)
	if m.currentScreen == ScreenBoard {
		m.currentModel = *m.boardModel
	}
}

// updateBoard feeds msg to the cached dashboard even when another screen
// is showing.
func (m *AppModel) updateBoard(msg tea.Msg) {
	if m.boardModel == nil {
		return
	}
	updated, _ := m.boardModel.Update(msg)
	if bm, ok := updated.(BoardModel); ok {
		m.boardModel = &bm
		if m.currentScreen == ScreenBoard {
			m.currentModel = bm
		}
	}
}

func (m AppModel) run(eff coordinator.Effect) tea.Cmd {
	return runEffect(m.ctx, m.client, eff)
}

type sessionCheckMsg struct{}
