package query

import (
	"testing"

	"github.com/h0rv/cardboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		statuses domain.StatusFilters
		project  string
		want     string
	}{
		{"all statuses", domain.DefaultStatusFilters(), "", "status=todo&status=doing&status=done"},
		{"todo only", domain.StatusFilters{Todo: true}, "", "status=todo"},
		{"doing and done", domain.StatusFilters{Doing: true, Done: true}, "", "status=doing&status=done"},
		{"none checked matches any", domain.StatusFilters{}, "", ""},
		{"with project", domain.StatusFilters{Todo: true}, "Alpha", "status=todo&title=Alpha"},
		{"project only", domain.StatusFilters{}, "Alpha Beta", "title=Alpha+Beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.statuses, tt.project).Encode())
		})
	}
}

func TestBuild_EveryCombination(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		f := domain.StatusFilters{Todo: mask&1 != 0, Doing: mask&2 != 0, Done: mask&4 != 0}
		d := Build(f, "")

		assert.Equal(t, f.Enabled(), d.Statuses)
		assert.Empty(t, d.Values()[ParamTitle])
		assert.Len(t, d.Values()[ParamStatus], len(f.Enabled()))
	}
}

func TestDescriptor_Equal(t *testing.T) {
	a := Build(domain.DefaultStatusFilters(), "Alpha")
	assert.True(t, a.Equal(Build(domain.DefaultStatusFilters(), "Alpha")))
	assert.False(t, a.Equal(Build(domain.DefaultStatusFilters(), "Beta")))
	assert.False(t, a.Equal(Build(domain.StatusFilters{Todo: true}, "Alpha")))
}

func TestDescriptor_MatchesAndParse(t *testing.T) {
	d := Build(domain.StatusFilters{Todo: true, Done: true}, "Alpha")
	assert.Equal(t, d, Parse(d.Values()))

	assert.True(t, d.Matches(domain.Card{Title: "Alpha", Status: domain.StatusDone}))
	assert.False(t, d.Matches(domain.Card{Title: "Alpha", Status: domain.StatusDoing}))
	assert.False(t, d.Matches(domain.Card{Title: "alpha", Status: domain.StatusTodo}))

	anyStatus := Build(domain.StatusFilters{}, "")
	assert.True(t, anyStatus.Matches(domain.Card{Title: "x", Status: "archived"}))
}

func createTestCards() []domain.Card {
	return []domain.Card{
		{ID: "1", Title: "Alpha", Description: "write the parser", Status: domain.StatusTodo},
		{ID: "2", Title: "Beta", Description: "Fix ALPHA regressions", Status: domain.StatusDoing},
		{ID: "3", Title: "Gamma", Description: "ship it", Status: domain.StatusDone},
	}
}

func TestFilter(t *testing.T) {
	cards := createTestCards()

	t.Run("case-insensitive over title or description", func(t *testing.T) {
		got := Filter(cards, "alpha")
		assert.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "2", got[1].ID)
	})

	t.Run("blank term keeps everything", func(t *testing.T) {
		assert.Equal(t, cards, Filter(cards, "   "))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter(cards, "zzz"))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		_ = Filter(cards, "ship")
		assert.Len(t, cards, 3)
	})
}
