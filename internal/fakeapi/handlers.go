package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	u, err := s.AddUser(req.Username, req.Email, req.Password)
	if errors.Is(err, ErrUserExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	token, err := s.tokens.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, domain.AuthResponse{Token: token, User: u, Message: "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(req.Username)]
	s.mu.Unlock()
	if !ok || !verifyPassword(req.Password, acc.hash) {
		writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}

	token, err := s.tokens.issue(acc.user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, domain.AuthResponse{Token: token, User: acc.user})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	owner := usernameFrom(r.Context())
	d := query.Parse(r.URL.Query())

	s.mu.Lock()
	out := make([]domain.Card, 0)
	for _, sc := range s.cards {
		if sc.owner == owner && d.Matches(sc.card) {
			out = append(out, sc.card)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	owner := usernameFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := s.indexLocked(owner, id)
	var c domain.Card
	if idx >= 0 {
		c = s.cards[idx].card
	}
	s.mu.Unlock()

	if idx < 0 {
		writeError(w, http.StatusNotFound, ErrCardNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in domain.CardInput
	if !decodeBody(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	c := s.insertLocked(usernameFrom(r.Context()), domain.Card{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var in domain.CardInput
	if !decodeBody(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := usernameFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := s.indexLocked(owner, id)
	var c domain.Card
	if idx >= 0 {
		c = s.cards[idx].card
		c.Title = in.Title
		c.Description = in.Description
		c.Status = in.Status
		c.UpdatedAt = s.now()
		s.cards[idx].card = c
	}
	s.mu.Unlock()

	if idx < 0 {
		writeError(w, http.StatusNotFound, ErrCardNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	owner := usernameFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := s.indexLocked(owner, id)
	if idx >= 0 {
		s.cards = append(s.cards[:idx], s.cards[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeError(w, http.StatusNotFound, ErrCardNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	owner := usernameFrom(r.Context())

	s.mu.Lock()
	var mine []domain.Card
	for _, sc := range s.cards {
		if sc.owner == owner {
			mine = append(mine, sc.card)
		}
	}
	now := s.now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, computeStats(mine, now))
}

func (s *Server) indexLocked(owner, id string) int {
	for i, sc := range s.cards {
		if sc.owner == owner && sc.card.ID == id {
			return i
		}
	}
	return -1
}

// computeStats aggregates cards the way the real backend's stat endpoint
// does. Completion time is approximated by UpdatedAt of done cards.
func computeStats(cards []domain.Card, now time.Time) domain.Stats {
	week := now.Add(-7 * 24 * time.Hour)
	month := now.Add(-30 * 24 * time.Hour)

	stats := domain.Stats{TotalCards: len(cards), TotalStatus: []domain.StatusCount{}}
	perStatus := make(map[domain.Status]int)
	projects := make(map[string]bool)
	activity := make(map[string]int)

	for _, c := range cards {
		perStatus[c.Status]++
		projects[c.Title] = true
		if c.CreatedAt.After(week) {
			stats.CardsCreatedLast7Days++
		}
		if c.Status == domain.StatusDone && c.UpdatedAt.After(week) {
			stats.CardsCompletedLast7Days++
		}
		if c.Status == domain.StatusDone && c.UpdatedAt.After(month) {
			stats.CardsCompletedLast30++
		}
		if c.UpdatedAt.After(month) {
			activity[c.Title]++
		}
	}
	stats.TotalProjects = len(projects)

	for _, st := range domain.AllStatuses {
		if n := perStatus[st]; n > 0 {
			stats.TotalStatus = append(stats.TotalStatus, domain.StatusCount{Status: st, Count: n})
		}
	}

	for _, name := range sortedKeys(activity) {
		n := activity[name]
		if stats.MostActiveProject == nil || n > stats.MostActiveProject.Count {
			stats.MostActiveProject = &domain.ProjectActivity{Name: name, Count: n}
		}
	}
	return stats
}
