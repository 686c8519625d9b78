package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/fakeapi"
	"github.com/h0rv/cardboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCLI struct {
	server *fakeapi.Server
	url    string
	config string
}

// createTestCLI starts a fake backend with user ada and writes a config
// file keeping the session database and log under a temp dir.
func createTestCLI(t *testing.T, devMode bool) *testCLI {
	t.Helper()
	server := fakeapi.New(fakeapi.WithLogger(logging.Discard()))
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	_, err := server.AddUser("ada", "ada@example.com", "secret")
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := strings.Join([]string{
		"session_db: " + filepath.Join(dir, "session.db"),
		"log_file: " + filepath.Join(dir, "cardboard.log"),
		"page_size: 2",
		"sample_count: 3",
		"sample_rps: 100",
		"dev_mode: " + strconv.FormatBool(devMode),
	}, "\n")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return &testCLI{server: server, url: ts.URL + "/api", config: path}
}

func (c *testCLI) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := &App{}
	cmd := newRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", c.config, "--api-url", c.url}, args...))
	err := cmd.Execute()
	require.NoError(t, app.close())
	return out.String(), err
}

func (c *testCLI) login(t *testing.T) {
	t.Helper()
	out, err := c.run(t, "secret\n", "login", "-u", "ada", "--password-stdin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as ada")
}

func TestCLI_RequiresLogin(t *testing.T) {
	cli := createTestCLI(t, false)

	_, err := cli.run(t, "", "cards")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cardboard login")
	assert.Zero(t, cli.server.TotalRequests())
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	cli := createTestCLI(t, false)

	_, err := cli.run(t, "wrong\n", "login", "-u", "ada", "--password-stdin")
	require.Error(t, err)

	cli.login(t)

	out, err := cli.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada <ada@example.com>")
	assert.Contains(t, out, "Session: valid")

	out, err = cli.run(t, "", "whoami", "--json")
	require.NoError(t, err)
	var info whoami
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "ada", info.User.Username)

	out, err = cli.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = cli.run(t, "", "whoami")
	assert.Error(t, err)
}

func TestCLI_Register(t *testing.T) {
	cli := createTestCLI(t, false)

	out, err := cli.run(t, "s3cret\n", "register", "-u", "grace", "--email", "grace@example.com", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as grace")
}

func TestCLI_Cards(t *testing.T) {
	cli := createTestCLI(t, false)
	seeded := cli.server.SeedCards("ada",
		domain.Card{Title: "Alpha", Description: "write docs", Status: domain.StatusTodo},
		domain.Card{Title: "Alpha", Description: "ship it", Status: domain.StatusDone},
		domain.Card{Title: "Beta", Description: "fix login", Status: domain.StatusDoing},
	)
	cli.login(t)

	t.Run("first page", func(t *testing.T) {
		out, err := cli.run(t, "", "cards")
		require.NoError(t, err)
		assert.Contains(t, out, "3 cards, page 1 of 2")
	})

	t.Run("status and project go to the server", func(t *testing.T) {
		out, err := cli.run(t, "", "cards", "--status", "done", "--project", "Alpha", "--json")
		require.NoError(t, err)
		var cards []domain.Card
		require.NoError(t, json.Unmarshal([]byte(out), &cards))
		require.Len(t, cards, 1)
		assert.Equal(t, "ship it", cards[0].Description)
	})

	t.Run("search is local", func(t *testing.T) {
		out, err := cli.run(t, "", "cards", "--search", "LOGIN", "--all")
		require.NoError(t, err)
		assert.Contains(t, out, "fix login")
		assert.Contains(t, out, "1 cards, page 1 of 1")
	})

	t.Run("show one card", func(t *testing.T) {
		out, err := cli.run(t, "", "cards", "show", seeded[2].ID)
		require.NoError(t, err)
		assert.Contains(t, out, "Beta")
		assert.Contains(t, out, "Status:  Doing")
		assert.Contains(t, out, "fix login")

		out, err = cli.run(t, "", "cards", "show", seeded[0].ID, "--json")
		require.NoError(t, err)
		var card domain.Card
		require.NoError(t, json.Unmarshal([]byte(out), &card))
		assert.Equal(t, "write docs", card.Description)

		_, err = cli.run(t, "", "cards", "show", "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := cli.run(t, "", "cards", "--status", "blocked")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked")
	})
}

func TestCLI_Stats(t *testing.T) {
	cli := createTestCLI(t, false)
	cli.server.SeedCards("ada",
		domain.Card{Title: "Alpha", Description: "a", Status: domain.StatusTodo},
		domain.Card{Title: "Beta", Description: "b", Status: domain.StatusTodo},
	)
	cli.login(t)

	out, err := cli.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total cards")
	assert.Contains(t, out, "To Do")

	out, err = cli.run(t, "", "stats", "--json")
	require.NoError(t, err)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.TotalCards)
}

func TestCLI_Sample(t *testing.T) {
	t.Run("needs dev mode", func(t *testing.T) {
		cli := createTestCLI(t, false)
		cli.login(t)
		_, err := cli.run(t, "", "sample", "--project", "Demo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dev_mode")
	})

	t.Run("creates cards once per project", func(t *testing.T) {
		cli := createTestCLI(t, true)
		cli.login(t)

		out, err := cli.run(t, "", "sample", "--project", "Demo")
		require.NoError(t, err)
		assert.Contains(t, out, "Created 3 of 3 sample cards for Demo")
		assert.Len(t, cli.server.Cards("ada"), 3)

		_, err = cli.run(t, "", "sample", "--project", "demo")
		require.Error(t, err)
		assert.Len(t, cli.server.Cards("ada"), 3)
	})
}
