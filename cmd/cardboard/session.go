package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/auth"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	var cr api.Credentials
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if cr.Username == "" {
				if cr.Username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			if cr.Password, err = readPassword(cmd, in, "Password: ", passwordStdin); err != nil {
				return err
			}

			session, err := app.newClient().Login(cmd.Context(), cr)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cr.Username, "username", "u", "", "Username (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var r api.Registration
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if r.Username == "" {
				if r.Username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			if r.Email == "" {
				if r.Email, err = prompt(cmd, in, "Email: "); err != nil {
					return err
				}
			}
			if r.Password, err = readPassword(cmd, in, "Password: ", passwordStdin); err != nil {
				return err
			}
			if !passwordStdin {
				if r.Confirm, err = readPassword(cmd, in, "Confirm password: ", false); err != nil {
					return err
				}
			}

			session, err := app.newClient().Register(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("failed to register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", session.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&r.Username, "username", "u", "", "Username (prompted when empty)")
	cmd.Flags().StringVar(&r.Email, "email", "", "Email (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.newClient().Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and session expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.requireSession()
			if err != nil {
				return err
			}
			info := whoami{
				User:      session.User,
				IssuedAt:  session.IssuedAt,
				ExpiresAt: session.IssuedAt.Add(app.sessions.Lifetime()),
				Status:    app.sessions.Check().String(),
			}
			// Token claims are informational; opaque tokens are fine.
			if claims, err := auth.TokenClaims(session.Token); err == nil {
				info.Subject = claims.Subject
				info.Issuer = claims.Issuer
				if !claims.ExpiresAt.IsZero() {
					info.TokenExpiresAt = &claims.ExpiresAt
				}
			} else if !errors.Is(err, auth.ErrNotJWT) {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s", info.User.Username)
			if info.User.Email != "" {
				fmt.Fprintf(out, " <%s>", info.User.Email)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Session: %s, expires %s (in %s)\n",
				info.Status, info.ExpiresAt.Format(time.RFC3339), app.sessions.Remaining().Round(time.Minute))
			if info.TokenExpiresAt != nil {
				fmt.Fprintf(out, "Token:   issued by %q, expires %s\n", info.Issuer, info.TokenExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

type whoami struct {
	User           domain.User `json:"user"`
	IssuedAt       time.Time   `json:"issuedAt"`
	ExpiresAt      time.Time   `json:"expiresAt"`
	Status         string      `json:"status"`
	Subject        string      `json:"subject,omitempty"`
	Issuer         string      `json:"issuer,omitempty"`
	TokenExpiresAt *time.Time  `json:"tokenExpiresAt,omitempty"`
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal and falls back to a plain
// line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader, label string, fromStdin bool) (string, error) {
	if !fromStdin {
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(cmd.ErrOrStderr(), label)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return string(b), nil
		}
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
