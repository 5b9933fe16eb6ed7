package pgx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"Unique", &pgconn.PgError{Code: "23505", ConstraintName: "nodes_identity_idx"}, store.ErrUniqueViolation},
		{"ForeignKey", &pgconn.PgError{Code: "23503"}, store.ErrReferenced},
		{"Wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), store.ErrUniqueViolation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapPgError(tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := errors.New("connection reset")
	if got := mapPgError(other); got != other {
		t.Fatalf("expected passthrough, got %v", got)
	}
}
