package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
	"github.com/h0rv/cardboard/internal/view"
)

// ListCards fetches the cards matching d.
func (c *Client) ListCards(ctx context.Context, d query.Descriptor) ([]domain.Card, error) {
	var cards []domain.Card
	if err := c.do(ctx, http.MethodGet, "/cards", d.Values(), nil, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

// GetCard fetches a single card.
func (c *Client) GetCard(ctx context.Context, id string) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodGet, "/cards/"+url.PathEscape(id), nil, nil, &card)
	return card, err
}

// Stats fetches the aggregate statistics.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := c.do(ctx, http.MethodGet, "/cards/stat", nil, nil, &stats)
	return stats, err
}

// ProjectNames lists the distinct project names across all of the user's
// cards, in the order the server returns them.
func (c *Client) ProjectNames(ctx context.Context) ([]string, error) {
	cards, err := c.ListCards(ctx, query.Descriptor{})
	if err != nil {
		return nil, err
	}
	return view.ProjectNames(cards), nil
}
