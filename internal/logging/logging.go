// Package logging sets up structured slog logging. The client logs to a file
// because the terminal belongs to the TUI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup opens (appending) the log file at path and installs a text handler
// on it as the slog default. Debug records are kept only when verbose is
// set. The returned function closes the file.
func Setup(path string, verbose bool) (*slog.Logger, func() error, error) {
	if path == "" {
		l := Discard()
		slog.SetDefault(l)
		return l, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := New(f, verbose)
	slog.SetDefault(l)
	l.Debug("verbose logging enabled", "file", path)
	return l, f.Close, nil
}

// New returns a text logger writing to w.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
