package pgx

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies (up) or rolls back (down) the SQL migrations in dir
// against databaseURL. Being already current is not an error.
func Migrate(databaseURL, dir string, up bool) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer m.Close()

	if up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug("[Migrate] Schema already current", "up", up)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("[Migrate] Schema migrated", "up", up, "version", version, "dirty", dirty)
	return nil
}
