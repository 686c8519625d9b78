// Package store holds the Loaded Card Set: the ordered snapshot of cards the
// server returned for the most recent successful load. It only ever changes
// by whole replacement from a load, or by removing one card after the server
// confirmed its deletion, so it never contains anything the server did not
// match at load time.
package store

import (
	"errors"

	"github.com/h0rv/cardboard/internal/domain"
)

// ErrCardNotFound indicates the requested card does not exist.
var ErrCardNotFound = errors.New("card not found")

// Store manages the in-memory card set. It is not safe for concurrent use;
// it belongs to the UI update loop.
type Store struct {
	// Current user, shown in the header
	user *domain.User

	// Card storage, in server order
	cards []domain.Card
	index map[string]int // ID -> position in cards

	// Status index: status -> positions in cards, in server order
	columns map[domain.Status][]int
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		index:   make(map[string]int),
		columns: make(map[domain.Status][]int),
	}
}

// SetUser sets the authenticated user.
func (s *Store) SetUser(u *domain.User) {
	s.user = u
}

// GetUser returns the authenticated user, or nil.
func (s *Store) GetUser() *domain.User {
	return s.user
}

// Replace swaps in the result of a successful load.
func (s *Store) Replace(cards []domain.Card) {
	s.cards = make([]domain.Card, len(cards))
	copy(s.cards, cards)
	s.rebuild()
}

// Remove drops exactly one card by ID.
func (s *Store) Remove(id string) error {
	i, ok := s.index[id]
	if !ok {
		return ErrCardNotFound
	}
	s.cards = append(s.cards[:i:i], s.cards[i+1:]...)
	s.rebuild()
	return nil
}

// All returns a copy of the set in server order.
func (s *Store) All() []domain.Card {
	out := make([]domain.Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Len returns the number of loaded cards.
func (s *Store) Len() int {
	return len(s.cards)
}

// ByStatus returns the cards with status st in server order. Cards with a
// status outside domain.AllStatuses are never returned.
func (s *Store) ByStatus(st domain.Status) []domain.Card {
	pos := s.columns[st]
	out := make([]domain.Card, 0, len(pos))
	for _, i := range pos {
		out = append(out, s.cards[i])
	}
	return out
}

// rebuild reconstructs the ID and status indexes from s.cards.
func (s *Store) rebuild() {
	s.index = make(map[string]int, len(s.cards))
	s.columns = make(map[domain.Status][]int, len(domain.AllStatuses))
	for i, c := range s.cards {
		s.index[c.ID] = i
		if c.Status.Valid() {
			s.columns[c.Status] = append(s.columns[c.Status], i)
		}
	}
}

// Clear empties the card set, keeping the user.
func (s *Store) Clear() {
	s.cards = nil
	s.rebuild()
}
