package query

import (
	"strings"

	"github.com/h0rv/cardboard/internal/domain"
)

// Match reports whether the card's title or description contains term,
// ignoring case. A blank term matches every card.
func Match(card domain.Card, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(card.Title), term) ||
		strings.Contains(strings.ToLower(card.Description), term)
}

// Filter returns the cards matching term, preserving order. A blank term
// returns cards as is.
func Filter(cards []domain.Card, term string) []domain.Card {
	if strings.TrimSpace(term) == "" {
		return cards
	}
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if Match(c, term) {
			out = append(out, c)
		}
	}
	return out
}
