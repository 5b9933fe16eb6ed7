package storage

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
	pgstore "github.com/OFFIS-RIT/dramatis/pkg/store/pgx"
	"github.com/OFFIS-RIT/dramatis/pkg/store/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	BackendPgx    = "pgx"
	BackendSQLite = "sqlite"
)

type GraphConfig struct {
	Backend        string
	DatabaseURL    string
	SQLitePath     string
	MigrationsPath string
	Migrate        bool
}

func GraphConfigFromEnv() GraphConfig {
	return GraphConfig{
		Backend:        util.GetEnvString("GRAPH_STORE", BackendPgx),
		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		SQLitePath:     util.GetEnvString("SQLITE_PATH", "dramatis.db"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "migrations"),
		Migrate:        util.GetEnvBool("AUTO_MIGRATE", true),
	}
}

// OpenGraph opens the configured graph store. The PostgreSQL store is
// migrated first when cfg.Migrate is set; SQLite applies its embedded schema
// on open.
func OpenGraph(ctx context.Context, cfg GraphConfig) (store.GraphStorage, error) {
	switch cfg.Backend {
	case BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("[Storage] Using SQLite graph store", "path", cfg.SQLitePath)
		return s, nil
	case BackendPgx:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s graph store", BackendPgx)
		}
		if cfg.Migrate {
			if err := pgstore.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, true); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("[Storage] Using PostgreSQL graph store")
		return pgstore.NewGraphDBStorageWithConnection(pool, pgstore.WithCloser(pool.Close)), nil
	}
	return nil, fmt.Errorf("unknown graph store %q", cfg.Backend)
}
