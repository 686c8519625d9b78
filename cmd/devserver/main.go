package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/h0rv/cardboard/internal/config"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/fakeapi"
	"github.com/h0rv/cardboard/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		addr       string
		user       string
		password   string
		seed       bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:          "devserver",
		Short:        "Run an in-memory cards backend for local development",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.DevServer.Addr = addr
			}

			logger := logging.New(os.Stderr, verbose || cfg.Verbose)
			slog.SetDefault(logger)

			server := fakeapi.New(
				fakeapi.WithSecret(cfg.DevServer.Secret),
				fakeapi.WithTokenTTL(cfg.DevServer.TokenTTL),
				fakeapi.WithLatency(cfg.DevServer.Latency),
				fakeapi.WithLogger(logger),
			)
			if user != "" {
				if _, err := server.AddUser(user, user+"@example.com", password); err != nil {
					return fmt.Errorf("failed to create user %s: %w", user, err)
				}
				if seed {
					server.SeedCards(user, demoCards()...)
				}
				logger.Info("user created", "username", user, "seeded", seed)
			}

			return serve(cmd.Context(), cfg.DevServer.Addr, server.Handler(), logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/cardboard/config.yaml)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides devserver.addr")
	cmd.Flags().StringVar(&user, "user", "demo", "Create this user at startup; empty to skip")
	cmd.Flags().StringVar(&password, "password", "demo", "Password for --user")
	cmd.Flags().BoolVar(&seed, "seed", true, "Give --user a few cards")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains for up to
// ten seconds.
func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "api", "http://"+addr+"/api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func demoCards() []domain.Card {
	return []domain.Card{
		{Title: "Website", Description: "Draft the **landing page** copy", Status: domain.StatusTodo},
		{Title: "Website", Description: "Pick a color palette", Status: domain.StatusDoing},
		{Title: "Website", Description: "Register the domain", Status: domain.StatusDone},
		{Title: "Mobile", Description: "Sketch the onboarding flow", Status: domain.StatusTodo},
		{Title: "Mobile", Description: "Set up push notifications\n\n- iOS\n- Android", Status: domain.StatusDoing},
		{Title: "Mobile", Description: "Ship the beta build", Status: domain.StatusTodo},
		{Title: "Infra", Description: "Nightly database backups", Status: domain.StatusDone},
	}
}
