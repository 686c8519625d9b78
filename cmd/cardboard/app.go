package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/apperr"
	"github.com/h0rv/cardboard/internal/auth"
	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/logging"
)

// App holds the flags and the dependencies every command shares.
type App struct {
	ConfigPath string
	APIURL     string
	Verbose    bool
	Ephemeral  bool

	cfg      config.Config
	logger   *slog.Logger
	sessions *auth.Store
	closers  []func() error
}

// setup loads the config, opens the log file and the session store.
func (a *App) setup() error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.APIURL != "" {
		cfg.APIURL = a.APIURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	cfg.Verbose = cfg.Verbose || a.Verbose
	a.cfg = cfg

	logger, closeLog, err := logging.Setup(cfg.LogFile, cfg.Verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)
	logger.Debug("config loaded", "file", cfg.File, "api_url", cfg.APIURL)

	var backend auth.Backend
	if a.Ephemeral {
		backend = auth.NewMemoryBackend()
	} else {
		db, err := auth.OpenSQLite(context.Background(), cfg.SessionDB)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		backend = db
		a.closers = append(a.closers, db.Close)
	}

	a.sessions = auth.New(backend,
		auth.WithLifetime(cfg.TokenLifetime),
		auth.WithLogger(logger),
	)
	return nil
}

// close releases what setup opened, last opened first.
func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newClient(opts ...api.Option) *api.Client {
	opts = append([]api.Option{api.WithLogger(a.logger)}, opts...)
	return api.New(a.cfg.APIURL, a.sessions, opts...)
}

// requireSession returns the stored session or an error telling the user to
// log in.
func (a *App) requireSession() (*domain.Session, error) {
	session, status := a.sessions.Current()
	switch {
	case session != nil && status.Usable():
		return session, nil
	case status == auth.StatusExpired:
		return nil, fmt.Errorf("%w: run 'cardboard login'", apperr.ErrSessionExpired)
	default:
		return nil, fmt.Errorf("%w: run 'cardboard login'", apperr.ErrUnauthorized)
	}
}
