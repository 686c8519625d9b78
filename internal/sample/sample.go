// Package sample fills a new project with demo cards. It is only reachable
// in dev mode.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultCount is how many cards Generate creates.
const DefaultCount = 10

var descriptions = []string{
	"Write up the API endpoints with a request and response example each.",
	"Go through the open pull requests and leave reviews.",
	"Track down the login failure that only shows up on small screens.",
	"Rework the dashboard layout and add the missing widgets.",
	"Add filtering and sorting to the search results.",
	"Profile the slow list queries and add the missing indexes.",
	"Set up the build pipeline to run tests on every push.",
	"Draft the new landing page with the updated brand colors.",
	"Cover the session handling with unit tests.",
	"Split the oversized handlers into smaller functions.",
	"Bump dependencies and fix whatever breaks.",
	"Add a dark theme.",
	"Sketch a first-run walkthrough for new users.",
	"Fix layout glitches on narrow terminals.",
}

// CardService is the part of the API client the generator needs.
type CardService interface {
	ListCards(ctx context.Context, d query.Descriptor) ([]domain.Card, error)
	CreateCard(ctx context.Context, in domain.CardInput) (domain.Card, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithCount sets how many cards to create.
func WithCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// WithRate paces creation to rps requests per second. Zero disables pacing.
func WithRate(rps float64) Option {
	return func(g *Generator) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithConcurrency bounds the number of create requests in flight.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithSeed makes the generated cards reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator creates demo cards under a fresh project name.
type Generator struct {
	cards       CardService
	count       int
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator.
func New(cards CardService, opts ...Option) *Generator {
	g := &Generator{
		cards:       cards,
		count:       DefaultCount,
		concurrency: 4,
		limiter:     rate.NewLimiter(rate.Limit(5), 1),
		logger:      slog.Default(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Count returns how many cards Generate creates.
func (g *Generator) Count() int {
	return g.count
}

// Generate creates the demo cards for project. The name must be non-blank
// and must not match an existing project, ignoring case. On failure the
// cards created so far are returned with the error.
func (g *Generator) Generate(ctx context.Context, project string) ([]domain.Card, error) {
	name := strings.TrimSpace(project)
	if name == "" {
		return nil, apperr.Validation("generate samples", "please type a project name")
	}

	existing, err := g.cards.ListCards(ctx, query.Descriptor{})
	if err != nil {
		return nil, fmt.Errorf("failed to validate project name: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Title, name) {
			return nil, apperr.New(apperr.KindDuplicateProject, "generate samples",
				fmt.Sprintf("project %q already exists, pick a different name", c.Title))
		}
	}

	inputs := g.inputs(name)
	created := make([]domain.Card, len(inputs))
	ok := make([]bool, len(inputs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, in := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if g.limiter != nil {
				if err := g.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			card, err := g.cards.CreateCard(ctx, in)
			if err != nil {
				return err
			}
			created[i] = card
			ok[i] = true
			return nil
		})
	}
	err = eg.Wait()

	out := make([]domain.Card, 0, len(inputs))
	for i := range created {
		if ok[i] {
			out = append(out, created[i])
		}
	}
	if err != nil {
		g.logger.Warn("sample generation failed", "project", name, "created", len(out), "error", err)
		return out, fmt.Errorf("failed to generate sample cards: %w", err)
	}
	g.logger.Info("sample cards generated", "project", name, "count", len(out))
	return out, nil
}

func (g *Generator) inputs(name string) []domain.CardInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.CardInput, g.count)
	for i := range out {
		out[i] = domain.CardInput{
			Title:       name,
			Description: descriptions[g.rng.IntN(len(descriptions))],
			Status:      domain.AllStatuses[g.rng.IntN(len(domain.AllStatuses))],
		}
	}
	return out
}
