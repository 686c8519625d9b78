package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/auth"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/logging"
	"github.com/h0rv/cardboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testApp struct {
	app      AppModel
	coord    *coordinator.Coordinator
	sessions *auth.Store
	clock    *fakeClock
}

// createTestApp builds an app whose client is never asked to send anything;
// commands are inspected, not run.
func createTestApp(t *testing.T, loggedIn bool) *testApp {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	sessions := auth.New(auth.NewMemoryBackend(), auth.WithClock(clock), auth.WithLogger(logging.Discard()))
	if loggedIn {
		_, err := sessions.Establish("token-1", domain.User{ID: "u1", Username: "ada"})
		require.NoError(t, err)
	}

	client := api.New("http://127.0.0.1:1/api", sessions, api.WithLogger(logging.Discard()))
	s := store.New()
	coord := coordinator.New(s, coordinator.WithLogger(logging.Discard()))
	cfg := config.Config{PageSize: 6, SessionCheckInterval: time.Minute}

	app := NewAppModel(context.Background(), cfg, client, coord, s, nil)
	return &testApp{app: app, coord: coord, sessions: sessions, clock: clock}
}

func (ta *testApp) send(msg tea.Msg) tea.Cmd {
	model, cmd := ta.app.Update(msg)
	ta.app = model.(AppModel)
	return cmd
}

// runCmd runs cmd and flattens batches. Only use it on commands that do
// not touch the network or timers.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runCmd(c)...)
	}
	return out
}

func TestAppModel_StartsOnLoginWithoutSession(t *testing.T) {
	ta := createTestApp(t, false)

	assert.Equal(t, ScreenLogin, ta.app.Screen())
	assert.NotNil(t, ta.app.Init())
	assert.Equal(t, coordinator.Idle, ta.coord.State(), "no load without a session")
}

func TestAppModel_StartsOnBoardWithSession(t *testing.T) {
	ta := createTestApp(t, true)

	assert.Equal(t, ScreenBoard, ta.app.Screen())
	require.NotNil(t, ta.app.Init())
	require.NotNil(t, ta.coord.InFlight(), "mount issues the initial load")
	assert.Equal(t, coordinator.Loading, ta.coord.State())
}

func TestAppModel_LoadResultsReachCoordinator(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	require.NotNil(t, req)

	// A stale result is dropped
	ta.send(cardsLoadedMsg{seq: req.Seq + 10, cards: createTestCards(2)})
	assert.False(t, ta.coord.HasLoaded())

	ta.send(cardsLoadedMsg{seq: req.Seq, cards: createTestCards(2)})
	assert.True(t, ta.coord.HasLoaded())
	assert.Equal(t, 2, ta.coord.Total())
	assert.Contains(t, ta.app.View(), "Task 1")
}

func TestAppModel_LoadResultsArriveOnOtherScreens(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	require.NotNil(t, req)

	ta.send(openFormMsg{})
	assert.Equal(t, ScreenForm, ta.app.Screen())

	ta.send(cardsLoadedMsg{seq: req.Seq, cards: createTestCards(3)})
	assert.True(t, ta.coord.HasLoaded())

	ta.send(closeFormMsg{})
	assert.Equal(t, ScreenBoard, ta.app.Screen())
	assert.Contains(t, ta.app.View(), "3 cards")
}

func TestAppModel_SessionErrorEndsSession(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	require.NotNil(t, req)

	expired := apperr.New(apperr.KindSessionExpired, "list cards", "session expired")
	cmd := ta.send(cardsLoadedMsg{seq: req.Seq, err: expired})
	require.NotNil(t, cmd)

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	msg, ok := msgs[0].(SessionEndedMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Notice, "expired")

	ta.send(msg)
	assert.Equal(t, ScreenLogin, ta.app.Screen())
	assert.Equal(t, coordinator.Idle, ta.coord.State())
	assert.Contains(t, ta.app.View(), "Your session has expired")

	// A second notification, e.g. from the logout hook, changes nothing
	cmd = ta.send(SessionEnded(nil))
	assert.Nil(t, cmd)
	assert.Contains(t, ta.app.View(), "Your session has expired")
}

func TestAppModel_LoginStartsDashboard(t *testing.T) {
	ta := createTestApp(t, false)

	session, err := ta.sessions.Establish("token-2", domain.User{Username: "grace"})
	require.NoError(t, err)

	cmd := ta.send(loggedInMsg{session: session})
	assert.NotNil(t, cmd)
	assert.Equal(t, ScreenBoard, ta.app.Screen())
	require.NotNil(t, ta.coord.InFlight())
	assert.Contains(t, ta.app.View(), "@grace")
}

func TestAppModel_SessionMonitor(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()

	t.Run("valid session only reschedules", func(t *testing.T) {
		cmd := ta.send(sessionCheckMsg{})
		assert.NotNil(t, cmd)
		assert.Equal(t, ScreenBoard, ta.app.Screen())
		assert.NotContains(t, ta.app.View(), "Your session expires")
	})

	t.Run("warns in the last hour", func(t *testing.T) {
		ta.clock.Advance(23*time.Hour + 30*time.Minute)
		ta.send(sessionCheckMsg{})
		assert.Contains(t, ta.app.View(), "Your session expires in 30m0s")
	})

	t.Run("expired session returns to login", func(t *testing.T) {
		ta.clock.Advance(time.Hour)
		cmd := ta.send(sessionCheckMsg{})
		require.NotNil(t, cmd)

		// The batch holds the next tick and the logout; deliver the logout.
		ta.send(SessionEnded(apperr.ErrSessionExpired))
		assert.Equal(t, ScreenLogin, ta.app.Screen())
		assert.False(t, ta.sessions.IsValid())
	})
}

func TestAppModel_CardSaved(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	ta.send(cardsLoadedMsg{seq: req.Seq, cards: createTestCards(2)})

	ta.send(openFormMsg{})
	require.Equal(t, ScreenForm, ta.app.Screen())

	t.Run("failure keeps the form open", func(t *testing.T) {
		ta.send(cardSavedMsg{err: apperr.New(apperr.KindServer, "create card", "database down")})
		assert.Equal(t, ScreenForm, ta.app.Screen())
		assert.Contains(t, ta.app.View(), "database down")
	})

	t.Run("success reloads and returns to the board", func(t *testing.T) {
		cmd := ta.send(cardSavedMsg{card: domain.Card{ID: "new"}, created: true})
		assert.NotNil(t, cmd)
		assert.Equal(t, ScreenBoard, ta.app.Screen())
		assert.NotNil(t, ta.coord.InFlight())
	})
}

func TestAppModel_CardDeleted(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	ta.send(cardsLoadedMsg{seq: req.Seq, cards: createTestCards(3)})

	ta.send(cardDeletedMsg{id: "card-2"})
	assert.Equal(t, 2, ta.coord.Total())
	assert.NotNil(t, ta.coord.InFlight())
}

func TestAppModel_ProjectSelection(t *testing.T) {
	ta := createTestApp(t, true)
	ta.app.Init()
	req := ta.coord.InFlight()
	ta.send(cardsLoadedMsg{seq: req.Seq, cards: createTestCards(4)})

	ta.coord.SetViewMode(domain.ViewProject)
	ta.send(projectsLoadedMsg{names: []string{"Project 1", "Project 2"}})

	ta.send(openPickerMsg{})
	require.Equal(t, ScreenProjectPicker, ta.app.Screen())
	assert.Contains(t, ta.app.View(), "Project 2")

	ta.send(ProjectSelectedMsg{Name: "Project 2"})
	assert.Equal(t, ScreenBoard, ta.app.Screen())
	assert.Equal(t, "Project 2", ta.coord.Filters().ProjectName)
	require.NotNil(t, ta.coord.InFlight())
	assert.Equal(t, "Project 2", ta.coord.InFlight().Query.Title)
}

func TestSessionEnded(t *testing.T) {
	assert.Equal(t, "You have been logged out.", SessionEnded(nil).Notice)
	assert.Contains(t, SessionEnded(apperr.ErrSessionExpired).Notice, "expired")
	assert.Contains(t, SessionEnded(apperr.New(apperr.KindUnauthorized, "list cards", "bad token")).Notice, "not logged in")
}
