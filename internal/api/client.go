// Package api is the client for the cards REST backend. Every protected call
// goes through one gateway that checks the local session before sending,
// attaches the bearer token, and turns authorization failures into a single
// logout no matter how many requests fail at once.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/auth"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 1 << 20

// LogoutHook is called once per ended session. reason is nil for a
// user-initiated logout.
type LogoutHook func(reason error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogoutHook registers the function run when the session ends.
func WithLogoutHook(h LogoutHook) Option {
	return func(c *Client) { c.onLogout = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client talks to the cards backend on behalf of the stored session.
// It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *auth.Store
	onLogout LogoutHook
	logger   *slog.Logger

	logouts singleflight.Group
	mu      sync.Mutex
	ended   string // last token whose logout already ran
}

// New creates a client for the API rooted at baseURL (e.g.
// "http://localhost:3000/api").
func New(baseURL string, session *auth.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session store the client authenticates with.
func (c *Client) Session() *auth.Store {
	return c.session
}

// do sends an authenticated request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	op := method + " " + path

	sess, st := c.session.Current()
	switch st {
	case auth.StatusNone:
		return apperr.New(apperr.KindUnauthorized, op, "not logged in")
	case auth.StatusExpired:
		err := apperr.New(apperr.KindSessionExpired, op, "session expired, please log in again")
		c.endSession(sess.Token, err)
		return err
	}

	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := c.send(req)
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		aerr := &apperr.Error{
			Kind:    apperr.KindUnauthorized,
			Op:      op,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp),
		}
		c.endSession(sess.Token, aerr)
		return aerr
	}
	return decodeResponse(op, resp, out)
}

// doPublic sends a request that carries no credential.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, op, err)
	}
	resp, err := c.send(req)
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &apperr.Error{
			Kind:    apperr.KindUnauthorized,
			Op:      op,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp),
		}
	}
	return decodeResponse(op, resp, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", req.Header.Get("X-Request-ID"),
			"error", err,
		)
		return nil, err
	}
	c.logger.Debug("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration", time.Since(start),
	)
	return resp, nil
}

// endSession runs the logout sequence for token at most once. Concurrent
// callers share one run; later stragglers for the same token are ignored, and
// a token that is no longer the stored one never clears a newer session.
func (c *Client) endSession(token string, reason error) {
	c.logouts.Do(token, func() (any, error) {
		c.mu.Lock()
		if c.ended == token {
			c.mu.Unlock()
			return nil, nil
		}
		c.ended = token
		c.mu.Unlock()

		if cur := c.session.StoredToken(); cur != "" && cur != token {
			c.logger.Debug("ignoring failure from a replaced session")
			return nil, nil
		}
		if _, err := c.session.ClearToken(token); err != nil {
			c.logger.Error("failed to clear session", "error", err)
		}
		c.logger.Warn("session ended", "reason", reason)
		if c.onLogout != nil {
			c.onLogout(reason)
		}
		return nil, nil
	})
}

func (c *Client) sessionStarted() {
	c.mu.Lock()
	c.ended = ""
	c.mu.Unlock()
}

func decodeResponse(op string, resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.Error{
			Kind:    apperr.KindServer,
			Op:      op,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.KindServer, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// readErrorMessage extracts the server's "error" or "message" field, falling
// back to the status text.
func readErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 200 && !strings.HasPrefix(s, "<") {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
