// Package apperr classifies client-side failures into a small set of kinds
// so every operation boundary can decide between "force logout" and
// "show a notice and keep going".
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindSessionExpired
	KindUnauthorized
	KindValidation
	KindNetwork
	KindServer
	KindDuplicateProject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSessionExpired:
		return "session expired"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation error"
	case KindNetwork:
		return "network failure"
	case KindServer:
		return "server error"
	case KindDuplicateProject:
		return "duplicate project name"
	default:
		return "unknown error"
	}
}

// Sentinel errors, one per kind. Match with errors.Is.
var (
	ErrSessionExpired   = errors.New("session expired")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation error")
	ErrNetwork          = errors.New("network failure")
	ErrServer           = errors.New("server error")
	ErrDuplicateProject = errors.New("duplicate project name")
)

var sentinels = map[Kind]error{
	KindSessionExpired:   ErrSessionExpired,
	KindUnauthorized:     ErrUnauthorized,
	KindValidation:       ErrValidation,
	KindNetwork:          ErrNetwork,
	KindServer:           ErrServer,
	KindDuplicateProject: ErrDuplicateProject,
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "list cards"
	Status  int    // HTTP status for KindServer/KindUnauthorized, else 0
	Message string // user-facing detail
	Err     error  // underlying cause, may be nil
}

// New creates a classified error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind's sentinel.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	return KindUnknown
}

// IsSession reports whether err means the session is gone and the user has
// to log in again.
func IsSession(err error) bool {
	k := KindOf(err)
	return k == KindSessionExpired || k == KindUnauthorized
}

// Validation is shorthand for a KindValidation error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}
