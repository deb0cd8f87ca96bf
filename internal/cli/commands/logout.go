package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context())
		},
	}
}

func runLogout(ctx context.Context, opts ...Option) error {
	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	wasLoggedIn := rc.store.IsAuthenticated()

	if err := rc.store.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	if wasLoggedIn {
		fmt.Fprintln(rc.out, "✓ Logged out")
	} else {
		fmt.Fprintln(rc.out, "Not logged in.")
	}
	return nil
}
