package pgx

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, pgErr.ConstraintName)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", store.ErrReferenced, pgErr.ConstraintName)
	}
	return err
}
