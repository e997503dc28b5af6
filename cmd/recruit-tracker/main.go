package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recruit-tracker",
		Short: "Recruit status and audit tracking for the forum",
		Long: `recruit-tracker serves the recruit onboarding board: status transitions,
staff notes, manual tracking and the bounded audit trail.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.AuditCmd())
	rootCmd.AddCommand(cli.TrimAuditCmd())

	// Developer tools
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
