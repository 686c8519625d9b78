// Package view derives what the dashboard shows from the loaded card set:
// the searched and paginated list, the project list and the numbers on the
// stats screen. Columns is the shape the project view is filled into.
// Everything here is a pure function of its inputs.
package view

import (
	"math"

	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
)

// PageSize is the default number of cards per page.
const PageSize = 6

// Page is one page of a card list.
type Page struct {
	Cards      []domain.Card
	Number     int // 1-based, clamped into [1, TotalPages]
	TotalPages int // at least 1
	Total      int // cards across all pages
}

// TotalPages returns ceil(n/size), at least 1.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns page number (1-based) of cards.
func Paginate(cards []domain.Card, page, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := TotalPages(len(cards), size)
	page = ClampPage(page, total)

	start := (page - 1) * size
	end := min(start+size, len(cards))

	out := make([]domain.Card, end-start)
	copy(out, cards[start:end])
	return Page{Cards: out, Number: page, TotalPages: total, Total: len(cards)}
}

// ClampPage keeps page within [1, total].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// All applies the search term and paginates.
func All(loaded []domain.Card, term string, page, size int) Page {
	return Paginate(query.Filter(loaded, term), page, size)
}

// Columns holds the project view's status columns.
type Columns struct {
	Todo  []domain.Card
	Doing []domain.Card
	Done  []domain.Card
}

// For returns the column for status s.
func (c Columns) For(s domain.Status) []domain.Card {
	switch s {
	case domain.StatusTodo:
		return c.Todo
	case domain.StatusDoing:
		return c.Doing
	case domain.StatusDone:
		return c.Done
	default:
		return nil
	}
}

// Len returns the number of cards on the board.
func (c Columns) Len() int {
	return len(c.Todo) + len(c.Doing) + len(c.Done)
}

// ProjectNames returns the distinct card titles in first-seen order.
func ProjectNames(cards []domain.Card) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, c := range cards {
		if c.Title == "" || seen[c.Title] {
			continue
		}
		seen[c.Title] = true
		names = append(names, c.Title)
	}
	return names
}

// StatusBar is one bar of the stats chart.
type StatusBar struct {
	Status domain.Status
	Label  string
	Count  int
}

// Summary holds the display values for the stats screen.
type Summary struct {
	TotalCards        int
	TotalProjects     int
	Bars              []StatusBar // canonical order, zero counts included
	CreatedLast7Days  int
	CompletedLast7    int
	AvgCompletedDaily float64 // over 30 days, one decimal
	MostActive        string  // "-" when unknown
	MostActiveCount   int
	MaxBar            int
}

// Summarize derives the stats screen values.
func Summarize(s domain.Stats) Summary {
	sum := Summary{
		TotalCards:        s.TotalCards,
		TotalProjects:     s.TotalProjects,
		CreatedLast7Days:  s.CardsCreatedLast7Days,
		CompletedLast7:    s.CardsCompletedLast7Days,
		AvgCompletedDaily: math.Round(float64(s.CardsCompletedLast30)/30*10) / 10,
		MostActive:        "-",
	}
	for _, st := range domain.AllStatuses {
		n := s.CountFor(st)
		sum.Bars = append(sum.Bars, StatusBar{Status: st, Label: st.Label(), Count: n})
		sum.MaxBar = max(sum.MaxBar, n)
	}
	if p := s.MostActiveProject; p != nil && p.Name != "" {
		sum.MostActive = p.Name
		sum.MostActiveCount = p.Count
	}
	return sum
}
