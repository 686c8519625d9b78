package sample

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCards struct {
	mu       sync.Mutex
	existing []domain.Card
	created  []domain.CardInput
	listErr  error
	failAt   int // fail the Nth create (1-based), 0 never
}

func (f *fakeCards) ListCards(ctx context.Context, d query.Descriptor) ([]domain.Card, error) {
	return f.existing, f.listErr
}

func (f *fakeCards) CreateCard(ctx context.Context, in domain.CardInput) (domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.created)+1 == f.failAt {
		return domain.Card{}, errors.New("backend down")
	}
	f.created = append(f.created, in)
	return domain.Card{ID: fmt.Sprintf("id%d", len(f.created)), Title: in.Title, Description: in.Description, Status: in.Status}, nil
}

func createTestGenerator(cards *fakeCards, opts ...Option) *Generator {
	return New(cards, append([]Option{WithRate(0), WithSeed(7)}, opts...)...)
}

func TestGenerate(t *testing.T) {
	cards := &fakeCards{existing: []domain.Card{{Title: "Alpha"}}}
	g := createTestGenerator(cards)

	out, err := g.Generate(context.Background(), "  Beta  ")
	require.NoError(t, err)
	assert.Len(t, out, DefaultCount)
	require.Len(t, cards.created, DefaultCount)
	for _, in := range cards.created {
		assert.Equal(t, "Beta", in.Title)
		assert.True(t, in.Status.Valid())
		assert.NotEmpty(t, in.Description)
	}
}

func TestGenerate_BlankName(t *testing.T) {
	cards := &fakeCards{}
	_, err := createTestGenerator(cards).Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, cards.created)
}

func TestGenerate_DuplicateProjectIgnoresCase(t *testing.T) {
	cards := &fakeCards{existing: []domain.Card{{Title: "Alpha"}}}
	_, err := createTestGenerator(cards).Generate(context.Background(), "ALPHA")
	assert.ErrorIs(t, err, apperr.ErrDuplicateProject)
	assert.Empty(t, cards.created, "nothing is created")
}

func TestGenerate_ListFailure(t *testing.T) {
	cards := &fakeCards{listErr: apperr.New(apperr.KindNetwork, "GET /cards", "offline")}
	_, err := createTestGenerator(cards).Generate(context.Background(), "Beta")
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Empty(t, cards.created)
}

func TestGenerate_PartialFailure(t *testing.T) {
	cards := &fakeCards{failAt: 3}
	out, err := createTestGenerator(cards, WithConcurrency(1), WithCount(5)).Generate(context.Background(), "Beta")
	require.Error(t, err)
	assert.Len(t, out, 2)
}

func TestWithCount(t *testing.T) {
	g := createTestGenerator(&fakeCards{}, WithCount(3))
	assert.Equal(t, 3, g.Count())
	assert.Equal(t, DefaultCount, createTestGenerator(&fakeCards{}, WithCount(-1)).Count())
}
