package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/auth"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/fakeapi"
	"github.com/h0rv/cardboard/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server  *fakeapi.Server
	client  *Client
	session *auth.Store
	clock   *fakeClock
	logouts atomic.Int32
}

func createTestEnv(t *testing.T, opts ...fakeapi.Option) *testEnv {
	t.Helper()
	env := &testEnv{
		server: fakeapi.New(opts...),
		clock:  &fakeClock{now: time.Now()},
	}
	ts := httptest.NewServer(env.server.Handler())
	t.Cleanup(ts.Close)

	_, err := env.server.AddUser("ada", "ada@example.com", "secret")
	require.NoError(t, err)

	env.session = auth.New(auth.NewMemoryBackend(), auth.WithClock(env.clock))
	env.client = New(ts.URL+"/api", env.session, WithLogoutHook(func(error) {
		env.logouts.Add(1)
	}))
	return env
}

func (e *testEnv) login(t *testing.T) *domain.Session {
	t.Helper()
	sess, err := e.client.Login(context.Background(), Credentials{Username: "ada", Password: "secret"})
	require.NoError(t, err)
	return sess
}

func TestLogin(t *testing.T) {
	env := createTestEnv(t)

	sess := env.login(t)
	assert.Equal(t, "ada", sess.User.Username)
	assert.True(t, env.session.IsValid())
	assert.Equal(t, sess.Token, env.session.StoredToken())

	t.Run("bad password does not log out", func(t *testing.T) {
		_, err := env.client.Login(context.Background(), Credentials{Username: "ada", Password: "nope"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.Equal(t, int32(0), env.logouts.Load())
		assert.True(t, env.session.IsValid())
	})

	t.Run("blank fields are rejected locally", func(t *testing.T) {
		before := env.server.TotalRequests()
		_, err := env.client.Login(context.Background(), Credentials{Username: "ada"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, before, env.server.TotalRequests())
	})
}

func TestRegister(t *testing.T) {
	env := createTestEnv(t)
	ctx := context.Background()

	_, err := env.client.Register(ctx, Registration{Username: "bob", Email: "bob@example.com", Password: "pw", Confirm: "px"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = env.client.Register(ctx, Registration{Username: "ada", Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, apperr.ErrServer)

	sess, err := env.client.Register(ctx, Registration{Username: "bob", Email: "bob@example.com", Password: "pw", Confirm: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "bob", sess.User.Username)
	assert.True(t, env.session.IsValid())
}

func TestListCards(t *testing.T) {
	env := createTestEnv(t)
	env.server.SeedCards("ada",
		domain.Card{Title: "Alpha", Description: "one", Status: domain.StatusTodo},
		domain.Card{Title: "Alpha", Description: "two", Status: domain.StatusDone},
		domain.Card{Title: "Beta", Description: "three", Status: domain.StatusTodo},
	)
	env.login(t)

	cards, err := env.client.ListCards(context.Background(), query.Build(domain.StatusFilters{Todo: true}, ""))
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "one", cards[0].Description)
	assert.Equal(t, "three", cards[1].Description)

	cards, err = env.client.ListCards(context.Background(), query.Build(domain.StatusFilters{}, "Alpha"))
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	names, err := env.client.ProjectNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)
}

func TestExpiredSessionSendsNothing(t *testing.T) {
	env := createTestEnv(t)
	env.login(t)
	env.clock.Advance(24*time.Hour + time.Second)

	_, err := env.client.ListCards(context.Background(), query.Descriptor{})
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
	assert.True(t, apperr.IsSession(err))
	assert.Equal(t, 0, env.server.Requests("GET /api/cards"))
	assert.Equal(t, int32(1), env.logouts.Load())
	assert.Equal(t, "", env.session.StoredToken())

	_, err = env.client.Stats(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, int32(1), env.logouts.Load())
}

func TestNoSessionSendsNothing(t *testing.T) {
	env := createTestEnv(t)

	err := env.client.DeleteCard(context.Background(), "c1")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 0, env.server.TotalRequests())
	assert.Equal(t, int32(0), env.logouts.Load())
}

func TestConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	env := createTestEnv(t, fakeapi.WithLatency(50*time.Millisecond))
	sess := env.login(t)
	env.server.Revoke(sess.Token)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.client.ListCards(context.Background(), query.Descriptor{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	}
	assert.Equal(t, int32(1), env.logouts.Load())
	assert.False(t, env.session.IsValid())
}

func TestUnauthorizedFromReplacedSessionKeepsNewSession(t *testing.T) {
	env := createTestEnv(t)
	old := env.login(t)

	env.clock.Advance(time.Second)
	_, err := env.session.Establish("newer-token", old.User)
	require.NoError(t, err)

	env.client.endSession(old.Token, apperr.New(apperr.KindUnauthorized, "test", ""))
	assert.Equal(t, "newer-token", env.session.StoredToken())
	assert.Equal(t, int32(0), env.logouts.Load())
}

func TestForbiddenLogsOut(t *testing.T) {
	env := createTestEnv(t)
	env.login(t)
	env.server.FailNext(http.StatusForbidden)

	_, err := env.client.Stats(context.Background())
	var aerr *apperr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apperr.KindUnauthorized, aerr.Kind)
	assert.Equal(t, http.StatusForbidden, aerr.Status)
	assert.Equal(t, int32(1), env.logouts.Load())
}

func TestServerError(t *testing.T) {
	env := createTestEnv(t)
	env.login(t)
	env.server.FailNext(http.StatusInternalServerError)

	_, err := env.client.ListCards(context.Background(), query.Descriptor{})
	var aerr *apperr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apperr.KindServer, aerr.Kind)
	assert.Equal(t, "Internal Server Error", aerr.Message)
	assert.True(t, env.session.IsValid(), "server errors keep the session")
	assert.Equal(t, int32(0), env.logouts.Load())
}

func TestNetworkError(t *testing.T) {
	session := auth.New(auth.NewMemoryBackend())
	_, err := session.Establish("tok", domain.User{Username: "ada"})
	require.NoError(t, err)

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url, session)
	_, err = c.ListCards(context.Background(), query.Descriptor{})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.True(t, session.IsValid())
}

func TestCardMutations(t *testing.T) {
	env := createTestEnv(t)
	env.login(t)
	ctx := context.Background()

	t.Run("invalid input is not sent", func(t *testing.T) {
		_, err := env.client.CreateCard(ctx, domain.CardInput{Title: "Alpha", Status: domain.StatusTodo})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, 0, env.server.Requests("POST /api/cards"))
	})

	created, err := env.client.CreateCard(ctx, domain.CardInput{Title: "Alpha", Description: "d", Status: domain.StatusTodo})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	updated, err := env.client.UpdateCard(ctx, created.ID, domain.CardInput{Title: "Alpha", Description: "d2", Status: domain.StatusDoing})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDoing, updated.Status)

	got, err := env.client.GetCard(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "d2", got.Description)

	require.NoError(t, env.client.DeleteCard(ctx, created.ID))
	err = env.client.DeleteCard(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrServer)
}

func TestLogout(t *testing.T) {
	env := createTestEnv(t)
	var reasons []error
	env.client.onLogout = func(reason error) { reasons = append(reasons, reason) }
	env.login(t)

	require.NoError(t, env.client.Logout())
	assert.False(t, env.session.IsValid())
	require.Len(t, reasons, 1)
	assert.Nil(t, reasons[0])
}
