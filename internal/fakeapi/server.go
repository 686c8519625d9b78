// Package fakeapi is an in-memory implementation of the cards REST backend.
// It backs the api and tui tests and the devserver command. It is not meant
// to be a production server: data lives in memory and disappears on exit.
package fakeapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/h0rv/cardboard/internal/domain"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCardNotFound       = errors.New("card not found")
)

type account struct {
	user domain.User
	hash string
}

type storedCard struct {
	owner string
	card  domain.Card
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by username
	cards    []storedCard        // insertion order
	failNext []int
	latency  time.Duration
	counts   map[string]int
	revoked  map[string]bool

	tokens tokenIssuer
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued JWTs.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokens.ttl = d }
}

// WithSecret sets the HMAC signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) { s.tokens.secret = []byte(secret) }
}

// WithNow replaces the clock used for timestamps and token validation.
func WithNow(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLatency delays every protected response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an empty fake backend.
func New(opts ...Option) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		counts:   make(map[string]int),
		revoked:  make(map[string]bool),
		tokens:   tokenIssuer{secret: []byte("cardboard-dev-secret"), ttl: 24 * time.Hour},
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens.now = s.now
	return s
}

// Handler returns the HTTP routes, mounted under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.injectFailures)
			r.Use(s.requireAuth)
			r.Get("/cards", s.handleListCards)
			r.Get("/cards/stat", s.handleStats)
			r.Get("/cards/{id}", s.handleGetCard)
			r.Post("/cards", s.handleCreateCard)
			r.Put("/cards/{id}", s.handleUpdateCard)
			r.Delete("/cards/{id}", s.handleDeleteCard)
		})
	})
	return r
}

// FailNext makes the next protected request fail with status, before
// authentication is checked. Calls queue up.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = append(s.failNext, status)
}

// Revoke makes the server reject token from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Requests returns how many requests were received for "METHOD /path"
// (route pattern, e.g. "GET /api/cards").
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// TotalRequests returns the number of requests received on any route.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// AddUser registers an account directly and returns it.
func (s *Server) AddUser(username, email, password string) (domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := s.accounts[key]; ok {
		return domain.User{}, ErrUserExists
	}
	u := domain.User{ID: uuid.NewString(), Username: username, Email: email, Role: "user"}
	s.accounts[key] = &account{user: u, hash: hash}
	return u, nil
}

// IssueToken signs a token for an existing user.
func (s *Server) IssueToken(username string) (string, error) {
	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(username)]
	s.mu.Unlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	return s.tokens.issue(acc.user)
}

// SeedCards stores cards for username, assigning ids and timestamps where
// missing.
func (s *Server) SeedCards(username string, cards ...domain.Card) []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, s.insertLocked(username, c))
	}
	return out
}

// Cards returns every card owned by username.
func (s *Server) Cards(username string) []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Card
	for _, sc := range s.cards {
		if sc.owner == username {
			out = append(out, sc.card)
		}
	}
	return out
}

func (s *Server) insertLocked(owner string, c domain.Card) domain.Card {
	now := s.now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.cards = append(s.cards, storedCard{owner: owner, card: c})
	return c
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.Method + " " + r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = r.Method + " " + rctx.RoutePattern()
		}
		s.mu.Lock()
		s.counts[route]++
		s.mu.Unlock()

		s.logger.Debug("request",
			"route", route,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", s.now().Sub(start),
		)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			time.Sleep(s.latency)
		}
		s.mu.Lock()
		var status int
		if len(s.failNext) > 0 {
			status = s.failNext[0]
			s.failNext = s.failNext[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
