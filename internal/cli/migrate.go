package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the recruit tracker tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			external, _ := cmd.Flags().GetBool("external")
			if !cmd.Flags().Changed("external") {
				external = a.cfg.MigrateExternal
			}
			if err := a.store.AutoMigrate(cmd.Context(), external); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().Bool("external", false, "Also create forum-owned tables (local sqlite only)")
	return cmd
}
