package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
	SendBatch(ctx context.Context, b *pgxv5.Batch) pgxv5.BatchResults
}

// GraphDBStorage implements the graph store on PostgreSQL. Nodes and edges
// live in two tables; edge and node attributes are kept as JSONB.
type GraphDBStorage struct {
	conn  pgxIConn
	inTx  bool
	close func()
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)

type GraphDBStorageOption func(*GraphDBStorage)

// WithCloser registers the function run by Close, typically the pool's Close.
func WithCloser(fn func()) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		s.close = fn
	}
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage using an existing
// pool or connection.
func NewGraphDBStorageWithConnection(conn pgxIConn, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{conn: conn}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// WithTx runs fn in a transaction. Nested calls run inside a savepoint.
func (s *GraphDBStorage) WithTx(ctx context.Context, fn func(ctx context.Context, w store.Writer) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &GraphDBStorage{conn: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		logger.Error("[Graph][WithTx] Commit failed", "err", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *GraphDBStorage) Close() error {
	if s.close != nil && !s.inTx {
		s.close()
	}
	return nil
}
