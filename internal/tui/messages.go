// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import (
	"errors"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/domain"
)

// ProjectSelectedMsg is emitted when the user picks a project name.
type ProjectSelectedMsg struct {
	Name string
}

// SessionEndedMsg switches the app back to the login screen. It is safe to
// deliver more than once.
type SessionEndedMsg struct {
	Notice string
}

// SessionEnded builds the message for a logout caused by reason. A nil
// reason is a user-requested logout.
func SessionEnded(reason error) SessionEndedMsg {
	switch {
	case reason == nil:
		return SessionEndedMsg{Notice: "You have been logged out."}
	case errors.Is(reason, apperr.ErrSessionExpired):
		return SessionEndedMsg{Notice: "Your session has expired. Please log in again."}
	default:
		return SessionEndedMsg{Notice: "You are not logged in. Please log in again."}
	}
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// noticeMsg is shown on the dashboard notice line.
type noticeMsg struct {
	text   string
	failed bool
}

// Internal messages shared between screens.
type (
	loggedInMsg    struct{ session *domain.Session }
	openDetailMsg  struct{ card domain.Card }
	closeDetailMsg struct{}
	openFormMsg    struct{ card *domain.Card } // nil creates a new card
	closeFormMsg   struct{}
	openPickerMsg  struct{}
	closePickerMsg struct{}
	openSampleMsg  struct{}
	closeSampleMsg struct{}
	logoutMsg      struct{}
)
