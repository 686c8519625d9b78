// Package query turns dashboard filter state into the query string the
// backend's card listing endpoint understands, and applies the client-side
// search that never reaches the server.
package query

import (
	"net/url"

	"github.com/h0rv/cardboard/internal/domain"
)

// Query parameter names understood by GET /cards.
const (
	ParamStatus = "status"
	ParamTitle  = "title"
)

// Descriptor is a server-side card query: zero or more status terms (OR'ed
// by the server) and an optional exact title. The search term is never part
// of it.
type Descriptor struct {
	Statuses []domain.Status
	Title    string
}

// Build derives the descriptor from the status checkboxes and the selected
// project. Every checked box yields one status term in canonical order. When
// no box is checked no status term is sent, so the server matches any status.
// A title term is added only for a non-empty project name.
func Build(statuses domain.StatusFilters, project string) Descriptor {
	return Descriptor{
		Statuses: statuses.Enabled(),
		Title:    project,
	}
}

// Values returns the descriptor as repeated query parameters.
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	for _, s := range d.Statuses {
		v.Add(ParamStatus, string(s))
	}
	if d.Title != "" {
		v.Set(ParamTitle, d.Title)
	}
	return v
}

// Encode returns the URL-encoded query string, status terms first.
func (d Descriptor) Encode() string {
	// url.Values.Encode sorts by key, which keeps status before title.
	return d.Values().Encode()
}

// Equal reports whether two descriptors would produce the same request.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Title != o.Title || len(d.Statuses) != len(o.Statuses) {
		return false
	}
	for i := range d.Statuses {
		if d.Statuses[i] != o.Statuses[i] {
			return false
		}
	}
	return true
}

// MatchesAnyStatus reports whether the descriptor leaves status unconstrained.
func (d Descriptor) MatchesAnyStatus() bool {
	return len(d.Statuses) == 0
}

// Matches reports whether card would be returned by the server for d.
// Used by the fake backend and by tests.
func (d Descriptor) Matches(card domain.Card) bool {
	if d.Title != "" && card.Title != d.Title {
		return false
	}
	if d.MatchesAnyStatus() {
		return true
	}
	for _, s := range d.Statuses {
		if card.Status == s {
			return true
		}
	}
	return false
}

// Parse reads a descriptor back from query parameters. Unknown status values
// are kept so the server can decide what to do with them.
func Parse(v url.Values) Descriptor {
	d := Descriptor{Title: v.Get(ParamTitle)}
	for _, s := range v[ParamStatus] {
		d.Statuses = append(d.Statuses, domain.Status(s))
	}
	return d
}
