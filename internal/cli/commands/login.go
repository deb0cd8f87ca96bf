package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanda-claim/kanda/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string
	var open bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Kanda Claim",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, WithOpenBrowser(open))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set KANDA_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set KANDA_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the dashboard in the browser after login")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("KANDA_EMAIL")
	}
	if password == "" {
		password = os.Getenv("KANDA_PASSWORD")
	}

	// Validate email
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or KANDA_EMAIL env var)")
	}

	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		password, err = rc.readPassword("Password: ")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(rc.out, "Logging in as %s...\n", email)

	sess, err := rc.store.Login(ctx, session.Credentials{Email: email, Password: password})
	if err != nil && sess == nil {
		var actErr *session.ActivationRequiredError
		if errors.As(err, &actErr) {
			fmt.Fprintf(rc.out, "Your account is not activated yet.\n")
			if navErr := rc.nav.Navigate(ctx, activationPath(actErr.Email)); navErr != nil {
				return navErr
			}
			return fmt.Errorf("account %s needs activation before logging in", actErr.Email)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(rc.out, "✓ Login successful!")
	fmt.Fprintf(rc.out, "  User: %s (%s)\n", sess.User.FullName(), sess.User.Email)
	fmt.Fprintf(rc.out, "  Role: %s\n", sess.User.Role.Name)

	// Still logged in when err is set; only the dashboard failed to open
	return err
}

// activationPath is the web route that finishes account activation
func activationPath(email string) string {
	return "/activate?" + url.Values{"email": {email}}.Encode()
}
