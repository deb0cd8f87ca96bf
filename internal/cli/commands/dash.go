package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open your role dashboard in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(cmd.Context(), WithOpenBrowser(!noBrowser))
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the dashboard URL instead of opening it")

	return cmd
}

func runDash(ctx context.Context, opts ...Option) error {
	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	sess, err := rc.requireLogin()
	if err != nil {
		return err
	}

	fmt.Fprintf(rc.out, "Opening %s dashboard for %s...\n", sess.User.Role.Name, sess.User.Email)
	return rc.nav.Navigate(ctx, sess.User.DashboardPath())
}
