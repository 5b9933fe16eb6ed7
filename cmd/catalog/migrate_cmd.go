package main

import (
	"fmt"

	pgstore "github.com/OFFIS-RIT/dramatis/pkg/store/pgx"

	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *storeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
	}
	run := func(up bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if flags.cfg.DatabaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return pgstore.Migrate(flags.cfg.DatabaseURL, flags.cfg.MigrationsPath, up)
		}
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(true),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE:  run(false),
	})
	return cmd
}
