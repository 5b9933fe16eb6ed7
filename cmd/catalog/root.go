package main

import (
	"github.com/OFFIS-RIT/dramatis/internal/server"
	"github.com/OFFIS-RIT/dramatis/internal/storage"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/spf13/cobra"
)

type storeFlags struct {
	cfg storage.GraphConfig
}

func (f *storeFlags) register(cmd *cobra.Command) {
	f.cfg = storage.GraphConfigFromEnv()
	cmd.PersistentFlags().StringVar(&f.cfg.Backend, "store", f.cfg.Backend, "Graph store backend (pgx or sqlite)")
	cmd.PersistentFlags().StringVar(&f.cfg.DatabaseURL, "database-url", f.cfg.DatabaseURL, "PostgreSQL connection string")
	cmd.PersistentFlags().StringVar(&f.cfg.SQLitePath, "sqlite-path", f.cfg.SQLitePath, "SQLite database file")
	cmd.PersistentFlags().StringVar(&f.cfg.MigrationsPath, "migrations", f.cfg.MigrationsPath, "Directory holding the SQL migrations")
}

// open returns the graph store and a catalog over it. Schema changes are
// left to the migrate command.
func (f *storeFlags) open(cmd *cobra.Command) (store.GraphStorage, *catalog.Service, error) {
	cfg := f.cfg
	cfg.Migrate = false
	gs, err := storage.OpenGraph(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return gs, catalog.New(gs, server.CatalogOptionsFromEnv()...), nil
}

func newRootCmd() *cobra.Command {
	flags := &storeFlags{}
	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Theatre catalogue admin tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags.register(cmd)

	cmd.AddCommand(newMigrateCmd(flags))
	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newEditCmd(flags))
	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newAwardsCmd(flags))
	return cmd
}
