package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanda-claim/kanda/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"status"},
		Short:   "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context())
		},
	}
}

func runWhoami(ctx context.Context, opts ...Option) error {
	rc, err := newRunContext(ctx, opts...)
	if err != nil {
		return err
	}

	sess, ok := rc.store.Snapshot()
	if !ok {
		fmt.Fprintf(rc.out, "Session: %s\n", rc.store.State())
		fmt.Fprintln(rc.out, "\nLog in with: kanda login --email <email>")
		return nil
	}

	u := sess.User
	w := tabwriter.NewWriter(rc.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Session:\t%s\n", session.StateLoggedIn)
	fmt.Fprintf(w, "User:\t%s (%s)\n", u.FullName(), u.Email)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role.Name)
	if u.Tenant != nil && u.Tenant.Name != "" {
		fmt.Fprintf(w, "Tenant:\t%s (%s)\n", u.Tenant.Name, sess.TenantID)
	} else if sess.TenantID != "" {
		fmt.Fprintf(w, "Tenant:\t%s\n", sess.TenantID)
	}
	if u.Garage != nil {
		fmt.Fprintf(w, "Garage:\t%s\n", u.Garage.Name)
	}
	if u.Department != nil {
		fmt.Fprintf(w, "Department:\t%s\n", u.Department.Name)
	}
	fmt.Fprintf(w, "Dashboard:\t%s\n", u.DashboardPath())
	if exp, ok := rc.store.TokenExpiry(); ok {
		fmt.Fprintf(w, "Expires:\t%s (in %s)\n", exp.Format(time.RFC3339), time.Until(exp).Round(time.Minute))
	}
	return w.Flush()
}
