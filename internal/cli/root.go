package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanda-claim/kanda/internal/cli/commands"
	"github.com/kanda-claim/kanda/internal/config"
	"github.com/kanda-claim/kanda/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the kanda command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kanda",
		Short: "Kanda Claim - auto-insurance claims from the terminal",
		Long: `Kanda Claim CLI - log in to Kanda Claim and call its API.

Drivers, garages, assessors and insurers share one session: log in once and
every request is sent with your token until you log out or it expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			cmd.SetContext(config.NewContext(cmd.Context(), cfg))
			return nil
		},
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kanda version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
	rootCmd.AddCommand(commands.NewRequestCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
