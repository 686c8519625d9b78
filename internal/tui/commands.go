package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/sample"
)

// runEffect starts the work a coordinator transition asked for.
func runEffect(ctx context.Context, client *api.Client, eff coordinator.Effect) tea.Cmd {
	if eff.Empty() {
		return nil
	}

	var cmds []tea.Cmd
	if eff.Load != nil {
		cmds = append(cmds, loadCards(ctx, client, *eff.Load))
	}
	if eff.Stats != nil {
		cmds = append(cmds, loadStats(ctx, client, *eff.Stats))
	}
	if eff.Projects {
		cmds = append(cmds, loadProjects(ctx, client))
	}

	switch {
	case eff.SessionEnded:
		text := "Please log in again."
		if eff.Notice != nil {
			text = eff.Notice.Text
		}
		cmds = append(cmds, func() tea.Msg { return SessionEndedMsg{Notice: text} })
	case eff.Notice != nil:
		n := noticeMsg{text: eff.Notice.Text, failed: eff.Notice.Error}
		cmds = append(cmds, func() tea.Msg { return n })
	}

	return tea.Batch(cmds...)
}

func loadCards(ctx context.Context, client *api.Client, req coordinator.LoadRequest) tea.Cmd {
	return func() tea.Msg {
		cards, err := client.ListCards(ctx, req.Query)
		return cardsLoadedMsg{seq: req.Seq, cards: cards, err: err}
	}
}

func loadStats(ctx context.Context, client *api.Client, req coordinator.StatsRequest) tea.Cmd {
	return func() tea.Msg {
		stats, err := client.Stats(ctx)
		return statsLoadedMsg{seq: req.Seq, stats: stats, err: err}
	}
}

func loadProjects(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		names, err := client.ProjectNames(ctx)
		return projectsLoadedMsg{names: names, err: err}
	}
}

func saveCard(ctx context.Context, client *api.Client, id string, in domain.CardInput) tea.Cmd {
	return func() tea.Msg {
		if id == "" {
			card, err := client.CreateCard(ctx, in)
			return cardSavedMsg{card: card, created: true, err: err}
		}
		card, err := client.UpdateCard(ctx, id, in)
		return cardSavedMsg{card: card, err: err}
	}
}

func deleteCard(ctx context.Context, client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		return cardDeletedMsg{id: id, err: client.DeleteCard(ctx, id)}
	}
}

func generateSamples(ctx context.Context, gen *sample.Generator, project string) tea.Cmd {
	return func() tea.Msg {
		cards, err := gen.Generate(ctx, project)
		return samplesCreatedMsg{project: project, cards: cards, err: err}
	}
}

func logout(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		_ = client.Logout()
		return SessionEnded(nil)
	}
}

// Message types for async results
type (
	cardsLoadedMsg struct {
		seq   uint64
		cards []domain.Card
		err   error
	}
	statsLoadedMsg struct {
		seq   uint64
		stats domain.Stats
		err   error
	}
	projectsLoadedMsg struct {
		names []string
		err   error
	}
	cardSavedMsg struct {
		card    domain.Card
		created bool
		err     error
	}
	cardDeletedMsg struct {
		id  string
		err error
	}
	samplesCreatedMsg struct {
		project string
		cards   []domain.Card
		err     error
	}
)
