package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/logging"
	"github.com/h0rv/cardboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCards returns n cards cycling through the three statuses
func createTestCards(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{
			ID:          fmt.Sprintf("card-%d", i+1),
			Title:       fmt.Sprintf("Project %d", i%2+1),
			Description: fmt.Sprintf("Task %d", i+1),
			Status:      domain.AllStatuses[i%3],
			CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		}
	}
	return cards
}

// createTestCoordinator returns a coordinator that has loaded cards
func createTestCoordinator(t *testing.T, cards []domain.Card) (*coordinator.Coordinator, *store.Store) {
	t.Helper()
	s := store.New()
	coord := coordinator.New(s, coordinator.WithLogger(logging.Discard()))

	eff := coord.Mount(true)
	require.NotNil(t, eff.Load)
	coord.LoadFinished(eff.Load.Seq, cards, nil)
	require.True(t, coord.HasLoaded())
	return coord, s
}

// createTestBoard creates a dashboard over loaded cards
func createTestBoard(t *testing.T, cards []domain.Card) (BoardModel, *coordinator.Coordinator) {
	t.Helper()
	coord, s := createTestCoordinator(t, cards)
	s.SetUser(&domain.User{Username: "ada"})
	board := NewBoardModel(coord, s, nil, config.Config{PageSize: 6}, context.Background())
	board.width = 120
	board.height = 40
	return board, coord
}

func press(board BoardModel, keys ...string) (BoardModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var model tea.Model
		model, cmd = board.Update(keyMsg(k))
		board = model.(BoardModel)
	}
	return board, cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestBoardModel_WindowResize(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(3))

	model, _ := board.Update(tea.WindowSizeMsg{Width: 90, Height: 25})
	board = model.(BoardModel)

	assert.Equal(t, 90, board.width)
	assert.Equal(t, 25, board.height)
}

func TestBoardModel_ToggleStatusReloads(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(3))

	board, cmd := press(board, "t")

	assert.NotNil(t, cmd)
	assert.False(t, coord.Filters().Statuses.Todo)
	require.NotNil(t, coord.InFlight())
	assert.Equal(t, []domain.Status{domain.StatusDoing, domain.StatusDone}, coord.InFlight().Query.Statuses)

	// A second toggle while loading is folded into one follow-up
	_, cmd = press(board, "D")
	assert.Nil(t, cmd)
	assert.False(t, coord.Filters().Statuses.Done)
}

func TestBoardModel_SearchIsLocal(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(12))

	board, _ = press(board, "/", "T", "a", "s", "k", " ", "1")
	assert.True(t, board.searchMode)
	assert.Equal(t, "Task 1", coord.Filters().SearchTerm)
	assert.Nil(t, coord.InFlight(), "search must not reload")
	// Task 1, Task 10, Task 11, Task 12
	assert.Equal(t, 4, coord.Total())

	board, _ = press(board, "enter")
	assert.False(t, board.searchMode)
	assert.Equal(t, "Task 1", coord.Filters().SearchTerm)

	board, _ = press(board, "/", "esc")
	assert.False(t, board.searchMode)
	assert.Empty(t, coord.Filters().SearchTerm)
	assert.Equal(t, 12, coord.Total())
}

func TestBoardModel_Paging(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(11))

	assert.Equal(t, 1, coord.Page().Number)

	board, _ = press(board, "]")
	assert.Equal(t, 2, coord.Page().Number)
	assert.Len(t, coord.Page().Cards, 5)

	// Clamped at the last page
	board, _ = press(board, "]")
	assert.Equal(t, 2, coord.Page().Number)

	board, _ = press(board, "[")
	assert.Equal(t, 1, coord.Page().Number)

	// Left and right page in the all view
	board, _ = press(board, "right")
	assert.Equal(t, 2, coord.Page().Number)
	_, _ = press(board, "h")
	assert.Equal(t, 1, coord.Page().Number)
}

func TestBoardModel_CardNavigation(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(4))

	assert.Equal(t, 0, board.selected)

	board, _ = press(board, "j", "j")
	assert.Equal(t, 2, board.selected)

	// Clamped to the page
	board, _ = press(board, "j", "j", "j")
	assert.Equal(t, 3, board.selected)

	board, _ = press(board, "k")
	assert.Equal(t, 2, board.selected)

	card := board.getSelectedCard()
	require.NotNil(t, card)
	assert.Equal(t, "card-3", card.ID)
}

func TestBoardModel_ViewSwitching(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(3))

	board, cmd := press(board, "2")
	assert.Equal(t, domain.ViewProject, coord.Filters().ViewMode)
	assert.NotNil(t, cmd, "entering project view refreshes the project list")

	board, cmd = press(board, "3")
	assert.Equal(t, domain.ViewStats, coord.Filters().ViewMode)
	assert.NotNil(t, cmd)
	assert.True(t, coord.StatsLoading())

	_, _ = press(board, "1")
	assert.Equal(t, domain.ViewAll, coord.Filters().ViewMode)
}

func TestBoardModel_ProjectColumns(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(6))

	board, _ = press(board, "2")
	eff := coord.SelectProject("Project 1")
	require.NotNil(t, eff.Load)
	assert.Equal(t, "Project 1", eff.Load.Query.Title)

	var project []domain.Card
	for _, c := range createTestCards(6) {
		if c.Title == "Project 1" {
			project = append(project, c)
		}
	}
	coord.LoadFinished(eff.Load.Seq, project, nil)
	board.Refresh()

	out := board.View()
	assert.Contains(t, out, "To Do")
	assert.Contains(t, out, "Doing")
	assert.Contains(t, out, "Done")
	assert.Contains(t, out, "Task 1")

	board, _ = press(board, "l", "l", "l")
	assert.Equal(t, 2, board.selectedColumn, "column selection stops at the last column")

	board, _ = press(board, "h")
	assert.Equal(t, 1, board.selectedColumn)

	// Project 1 holds cards 1, 3, 5: todo, done, doing
	card := board.getSelectedCard()
	require.NotNil(t, card)
	assert.Equal(t, domain.StatusDoing, card.Status)
}

func TestBoardModel_PickProjectOnlyInProjectView(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(3))

	_, cmd := press(board, "p")
	assert.Nil(t, cmd)

	board, _ = press(board, "2")
	_, cmd = press(board, "p")
	require.NotNil(t, cmd)
	assert.IsType(t, openPickerMsg{}, cmd())
}

func TestBoardModel_DeleteNeedsConfirmation(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(3))

	board, _ = press(board, "x")
	assert.True(t, board.confirmDelete)
	assert.Contains(t, board.View(), "Delete \"Project 1\"?")

	board, cmd := press(board, "n")
	assert.False(t, board.confirmDelete)
	assert.Nil(t, cmd)

	board, cmd = press(board, "x", "y")
	assert.False(t, board.confirmDelete)
	assert.NotNil(t, cmd)
	assert.Contains(t, board.notice, "Deleting")
}

func TestBoardModel_OpenDetailAndForm(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(3))

	_, cmd := press(board, "enter")
	require.NotNil(t, cmd)
	msg, ok := cmd().(openDetailMsg)
	require.True(t, ok)
	assert.Equal(t, "card-1", msg.card.ID)

	_, cmd = press(board, "e")
	require.NotNil(t, cmd)
	form, ok := cmd().(openFormMsg)
	require.True(t, ok)
	require.NotNil(t, form.card)
	assert.Equal(t, "card-1", form.card.ID)

	_, cmd = press(board, "n")
	require.NotNil(t, cmd)
	form, ok = cmd().(openFormMsg)
	require.True(t, ok)
	assert.Nil(t, form.card)
}

func TestBoardModel_SampleOnlyInDevMode(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(1))

	_, cmd := press(board, "S")
	assert.Nil(t, cmd)

	board.cfg.DevMode = true
	_, cmd = press(board, "S")
	require.NotNil(t, cmd)
	assert.IsType(t, openSampleMsg{}, cmd())
}

func TestBoardModel_Notices(t *testing.T) {
	board, _ := createTestBoard(t, createTestCards(1))

	model, _ := board.Update(noticeMsg{text: "Failed to load cards: boom", failed: true})
	board = model.(BoardModel)
	assert.Contains(t, board.View(), "Failed to load cards: boom")

	board, _ = press(board, "esc")
	assert.Empty(t, board.notice)

	board.SetSessionWarning("Your session expires in 59m0s.")
	assert.Contains(t, board.View(), "Your session expires")
}

func TestBoardModel_StatsView(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(3))

	board, _ = press(board, "3")
	assert.Contains(t, board.View(), "Loading stats")

	coord.StatsFinished(1, domain.Stats{
		TotalCards:           3,
		TotalProjects:        2,
		TotalStatus:          []domain.StatusCount{{Status: domain.StatusTodo, Count: 2}, {Status: domain.StatusDone, Count: 1}},
		CardsCompletedLast30: 9,
		MostActiveProject:    &domain.ProjectActivity{Name: "Project 1", Count: 2},
	}, nil)

	out := board.View()
	assert.Contains(t, out, "Total cards")
	assert.Contains(t, out, "0.3")
	assert.Contains(t, out, "Project 1 (2)")
	assert.Contains(t, out, "Cards by status")
}

func TestBoardModel_View_NotPanic(t *testing.T) {
	coord := coordinator.New(store.New(), coordinator.WithLogger(logging.Discard()))
	board := NewBoardModel(coord, store.New(), nil, config.Config{}, context.Background())

	// Before any load, View should not panic
	require.NotPanics(t, func() {
		assert.NotEmpty(t, board.View())
	})

	board, _ = createTestBoard(t, createTestCards(8))
	require.NotPanics(t, func() {
		out := board.View()
		assert.Contains(t, out, "@ada")
		assert.Contains(t, out, "8 cards")
		assert.Contains(t, out, "page 1 of 2")
	})
}

func TestBoardModel_EmptySearchResult(t *testing.T) {
	board, coord := createTestBoard(t, createTestCards(3))

	coord.SetSearchTerm("nothing like this")
	assert.Contains(t, board.View(), "No cards match your search")
	assert.Nil(t, board.getSelectedCard())
}
