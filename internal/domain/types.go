// Package domain defines the normalized domain types for the cards backend.
// These types represent the core concepts independent of the REST wire format,
// except for JSON tags that mirror the backend's field names.
package domain

import (
	"strings"
	"time"

	"github.com/h0rv/cardboard/internal/apperr"
)

// Status is the workflow state of a card.
type Status string

// Status constants in board order.
const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// AllStatuses lists the statuses in their canonical (board) order.
var AllStatuses = []Status{StatusTodo, StatusDoing, StatusDone}

// Label returns the human-readable name of the status.
// Unknown statuses are returned verbatim.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusDoing:
		return "Doing"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus parses a status name (case-insensitive).
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

// Card represents a task item. Its title doubles as the project name.
type Card struct {
	ID          string    `json:"_id"`         // Server-assigned, stable
	Title       string    `json:"title"`       // Card title, also the project name
	Description string    `json:"description"` // Free text, may contain markdown
	Status      Status    `json:"status"`      // One of AllStatuses
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// ProjectName returns the project this card belongs to.
func (c Card) ProjectName() string {
	return c.Title
}

// CardInput is the payload for creating or updating a card.
type CardInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Validate checks the required form fields before anything is sent.
func (in CardInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperr.Validation("validate card", "title is required")
	case strings.TrimSpace(in.Description) == "":
		return apperr.Validation("validate card", "description is required")
	case !in.Status.Valid():
		return apperr.Validation("validate card", "status must be one of todo, doing, done")
	}
	return nil
}

// User is the authenticated identity returned by the backend.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session is the client's credential plus identity, valid for a fixed
// lifetime measured from IssuedAt.
type Session struct {
	Token    string
	IssuedAt time.Time
	User     User
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// StatusCount is a per-status aggregate from the stats endpoint.
type StatusCount struct {
	Status Status `json:"_id"`
	Count  int    `json:"count"`
}

// ProjectActivity names a project and its card count in a window.
type ProjectActivity struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats mirrors the aggregate statistics endpoint.
type Stats struct {
	TotalCards              int              `json:"totalCards"`
	TotalProjects           int              `json:"totalProjects"`
	TotalStatus             []StatusCount    `json:"totalStatus"`
	CardsCreatedLast7Days   int              `json:"cardsCreatedLast7Days"`
	CardsCompletedLast7Days int              `json:"cardsCompletedLast7Days"`
	CardsCompletedLast30    int              `json:"cardsCompletedLast30Days"`
	MostActiveProject       *ProjectActivity `json:"mostActiveProjectLast30Days"`
}

// CountFor returns the aggregate count for a status, zero when absent.
func (s Stats) CountFor(status Status) int {
	for _, sc := range s.TotalStatus {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}
