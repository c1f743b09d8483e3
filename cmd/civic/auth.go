package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/gateway"
	"github.com/heartmarshall/civic-client/internal/service/auth"
)

const passwordEnv = "CIVIC_PASSWORD"

// readPassword takes the password from the flag, then $CIVIC_PASSWORD, then
// the first line of stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			user, err := c.app.Auth.Login(cmd.Context(), auth.LoginInput{Username: username, Password: pw})
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s\n", displayName(user, username))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or $"+passwordEnv+", or stdin)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var username, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			user, err := c.app.Auth.Register(cmd.Context(), auth.RegisterInput{
				Username:        username,
				Password:        pw,
				ConfirmPassword: confirm,
			})
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered and logged in as %s\n", displayName(user, username))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or $"+passwordEnv+", or stdin)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the password to guard against typos")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the stored token belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.Auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s (id %d)\n", user.Username, user.ID)
				return err
			})
		},
	}
}

// sessionView is the offline view of the stored credential.
type sessionView struct {
	State     domain.AuthState `json:"state"                yaml:"state"`
	Username  string           `json:"username,omitempty"   yaml:"username,omitempty"`
	Subject   string           `json:"subject,omitempty"    yaml:"subject,omitempty"`
	IssuedAt  *time.Time       `json:"issued_at,omitempty"  yaml:"issued_at,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool             `json:"expired"              yaml:"expired"`
}

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the stored credential without contacting the server",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Decode the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := c.sessionView(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, view, func(w io.Writer) error {
				return writeSession(w, view)
			})
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print session changes made by other processes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, ok := c.app.Store.(interface {
				Watch(ctx context.Context, fn func(token string)) error
			})
			if !ok {
				return fmt.Errorf("session store %q cannot be watched", c.app.Config.Session.Store)
			}
			out := cmd.OutOrStdout()
			err := w.Watch(cmd.Context(), func(token string) {
				if token == "" {
					fmt.Fprintf(out, "%s\t%s\n", time.Now().Format(time.TimeOnly), domain.AuthStateUnauthenticated)
					return
				}
				name := "?"
				if claims, err := gateway.Inspect(token); err == nil {
					name = claims.Username
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", time.Now().Format(time.TimeOnly), domain.AuthStateAuthenticated, name)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.AddCommand(show, watch)
	return cmd
}

func (c *cli) sessionView(ctx context.Context) (sessionView, error) {
	token, err := c.app.Store.Get(ctx)
	if err != nil {
		return sessionView{}, err
	}
	if token == "" {
		return sessionView{State: domain.AuthStateUnauthenticated}, nil
	}

	view := sessionView{State: domain.AuthStateAuthenticated}
	claims, err := gateway.Inspect(token)
	if err != nil {
		// Opaque tokens are still valid credentials.
		c.app.Logger.Debug("token is not a JWT", slog.String("error", err.Error()))
		return view, nil
	}
	view.Username = claims.Username
	view.Subject = claims.Subject
	if !claims.IssuedAt.IsZero() {
		view.IssuedAt = &claims.IssuedAt
	}
	if !claims.ExpiresAt.IsZero() {
		view.ExpiresAt = &claims.ExpiresAt
	}
	view.Expired = claims.Expired(time.Now())
	return view, nil
}

func writeSession(w io.Writer, v sessionView) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "State:\t%s\n", v.State)
	if v.Username != "" {
		fmt.Fprintf(tw, "User:\t%s\n", v.Username)
	}
	if v.ExpiresAt != nil {
		fmt.Fprintf(tw, "Expires:\t%s\n", v.ExpiresAt.Local().Format(time.DateTime))
	}
	if v.Expired {
		fmt.Fprintln(tw, "Expired:\tyes")
	}
	return tw.Flush()
}

func displayName(u *domain.User, fallback string) string {
	if u != nil && u.Username != "" {
		return u.Username
	}
	return fallback
}
