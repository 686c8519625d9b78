package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("hidden")
	l.Info("shown", "seq", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "seq=3")

	buf.Reset()
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSetup_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cardboard.log")
	l, closeFn, err := Setup(path, true)
	require.NoError(t, err)
	l.Info("hello", "status", 200)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "status=200")
}

func TestSetup_EmptyPathDiscards(t *testing.T) {
	l, closeFn, err := Setup("", false)
	require.NoError(t, err)
	l.Info("nowhere")
	assert.NoError(t, closeFn())
}
