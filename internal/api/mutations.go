package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/h0rv/cardboard/internal/domain"
)

// CreateCard validates and creates a card.
func (c *Client) CreateCard(ctx context.Context, in domain.CardInput) (domain.Card, error) {
	if err := in.Validate(); err != nil {
		return domain.Card{}, err
	}
	var card domain.Card
	err := c.do(ctx, http.MethodPost, "/cards", nil, in, &card)
	return card, err
}

// UpdateCard validates and replaces the card's fields.
func (c *Client) UpdateCard(ctx context.Context, id string, in domain.CardInput) (domain.Card, error) {
	if err := in.Validate(); err != nil {
		return domain.Card{}, err
	}
	var card domain.Card
	err := c.do(ctx, http.MethodPut, "/cards/"+url.PathEscape(id), nil, in, &card)
	return card, err
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/cards/"+url.PathEscape(id), nil, nil, nil)
}
