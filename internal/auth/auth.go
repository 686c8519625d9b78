// Package auth owns the persisted client session: the bearer token, the user
// it belongs to, and the time it was issued. Sessions expire on the client
// after a fixed lifetime regardless of what the server thinks, and an expired
// session is cleared the moment anything looks at it.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/h0rv/cardboard/internal/domain"
)

// Storage keys. They match what the web client keeps in localStorage so a
// session file is easy to inspect by hand.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeyTimestamp = "tokenTimestamp"
)

const (
	// DefaultLifetime is how long a session is honored after login.
	DefaultLifetime = 24 * time.Hour
	// WarningWindow is how close to expiry Check starts reporting StatusExpiringSoon.
	WarningWindow = time.Hour
	// MaxClockSkew is how far in the future a stored timestamp may lie
	// before the session is treated as expired.
	MaxClockSkew = time.Minute
)

var allKeys = []string{KeyToken, KeyUser, KeyTimestamp}

var (
	// ErrNoSession is returned when an operation needs a session and none is stored.
	ErrNoSession = errors.New("no session")
	// ErrEmptyToken is returned by Establish when the server returned no token.
	ErrEmptyToken = errors.New("empty token")
)

// Backend is durable key/value storage for the session.
// SetAll and Delete must apply all keys or none.
type Backend interface {
	Get(key string) (string, bool, error)
	SetAll(values map[string]string) error
	Delete(keys ...string) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Status is the result of a session check.
type Status int

const (
	StatusNone Status = iota
	StatusValid
	StatusExpiringSoon
	StatusExpired
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusValid:
		return "valid"
	case StatusExpiringSoon:
		return "expiring soon"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Usable reports whether requests may be sent with the session.
func (s Status) Usable() bool {
	return s == StatusValid || s == StatusExpiringSoon
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLifetime overrides DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithLogger sets the logger used for expiry and persistence events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is the single source of truth for the current session.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	clock    Clock
	lifetime time.Duration
	logger   *slog.Logger
}

// New creates a session store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		clock:    SystemClock{},
		lifetime: DefaultLifetime,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lifetime returns the configured session lifetime.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

// Get returns the stored session without judging its age.
// A missing or partially written session yields nil, nil.
func (s *Store) Get() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Current returns the stored session together with its status. An expired
// session is cleared and returned alongside StatusExpired so the caller still
// knows which token died.
func (s *Store) Current() (*domain.Session, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load()
	if err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		_ = s.backend.Delete(allKeys...)
		return nil, StatusNone
	}
	if sess == nil {
		return nil, StatusNone
	}

	age := s.clock.Now().Sub(sess.IssuedAt)
	switch {
	case age < -MaxClockSkew:
		if err := s.backend.Delete(allKeys...); err != nil {
			s.logger.Error("failed to clear session", "error", err)
		}
		s.logger.Warn("session issued in the future", "user", sess.User.Username, "ahead", (-age).Round(time.Second))
		return sess, StatusExpired
	case age >= s.lifetime:
		if err := s.backend.Delete(allKeys...); err != nil {
			s.logger.Error("failed to clear expired session", "error", err)
		}
		s.logger.Info("session expired", "user", sess.User.Username, "age", age.Round(time.Second))
		return sess, StatusExpired
	case age > s.lifetime-WarningWindow:
		return sess, StatusExpiringSoon
	default:
		return sess, StatusValid
	}
}

// IsValid reports whether a session exists and is younger than the lifetime.
// An expired session is cleared before returning false.
func (s *Store) IsValid() bool {
	_, st := s.Current()
	return st.Usable()
}

// Check runs the periodic session check.
func (s *Store) Check() Status {
	_, st := s.Current()
	return st
}

// Remaining returns the time left on the current session, zero when there is
// no usable session.
func (s *Store) Remaining() time.Duration {
	sess, st := s.Current()
	if !st.Usable() {
		return 0
	}
	return min(s.lifetime-s.clock.Now().Sub(sess.IssuedAt), s.lifetime)
}

// StoredToken returns the persisted token regardless of age.
func (s *Store) StoredToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _, err := s.backend.Get(KeyToken)
	if err != nil {
		return ""
	}
	return v
}

// Establish persists a new session issued now. All keys are written in one
// backend call so a crash never leaves a token without its timestamp.
func (s *Store) Establish(token string, user domain.User) (*domain.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrEmptyToken
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.backend.SetAll(map[string]string{
		KeyToken:     token,
		KeyUser:      string(raw),
		KeyTimestamp: strconv.FormatInt(now.UnixMilli(), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	s.logger.Info("session established", "user", user.Username)
	return &domain.Session{Token: token, IssuedAt: time.UnixMilli(now.UnixMilli()), User: user}, nil
}

// Clear removes the session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(allKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ClearToken removes the session only while token is still the stored one.
// It reports whether anything was removed.
func (s *Store) ClearToken(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok, err := s.backend.Get(KeyToken)
	if err != nil {
		return false, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || cur != token {
		return false, nil
	}
	if err := s.backend.Delete(allKeys...); err != nil {
		return false, fmt.Errorf("failed to clear session: %w", err)
	}
	return true, nil
}

func (s *Store) load() (*domain.Session, error) {
	token, ok, err := s.backend.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || token == "" {
		return nil, nil
	}
	rawUser, ok, err := s.backend.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	rawTS, ok, err := s.backend.Get(KeyTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamp: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	ms, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &domain.Session{Token: token, IssuedAt: time.UnixMilli(ms), User: user}, nil
}
