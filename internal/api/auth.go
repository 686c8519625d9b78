package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/domain"
)

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up form. Confirm is checked locally and never sent.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"-"`
}

// Validate checks the login form.
func (cr Credentials) Validate() error {
	if strings.TrimSpace(cr.Username) == "" || cr.Password == "" {
		return apperr.Validation("login", "username and password are required")
	}
	return nil
}

// Validate checks the sign-up form.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return apperr.Validation("register", "username is required")
	case !strings.Contains(r.Email, "@"):
		return apperr.Validation("register", "a valid email is required")
	case r.Password == "":
		return apperr.Validation("register", "password is required")
	case r.Confirm != "" && r.Confirm != r.Password:
		return apperr.Validation("register", "passwords do not match")
	}
	return nil
}

// Login authenticates and stores the new session.
func (c *Client) Login(ctx context.Context, cr Credentials) (*domain.Session, error) {
	if err := cr.Validate(); err != nil {
		return nil, err
	}
	var resp domain.AuthResponse
	if err := c.doPublic(ctx, http.MethodPost, "/auth/login", cr, &resp); err != nil {
		return nil, err
	}
	return c.establish(resp)
}

// Register creates an account and stores the new session.
func (c *Client) Register(ctx context.Context, r Registration) (*domain.Session, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var resp domain.AuthResponse
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register", r, &resp); err != nil {
		return nil, err
	}
	return c.establish(resp)
}

// Logout ends the session at the user's request.
func (c *Client) Logout() error {
	token := c.session.StoredToken()
	if err := c.session.Clear(); err != nil {
		return err
	}
	c.mu.Lock()
	c.ended = token
	c.mu.Unlock()

	c.logger.Info("logged out")
	if c.onLogout != nil {
		c.onLogout(nil)
	}
	return nil
}

func (c *Client) establish(resp domain.AuthResponse) (*domain.Session, error) {
	sess, err := c.session.Establish(resp.Token, resp.User)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	c.sessionStarted()
	return sess, nil
}
