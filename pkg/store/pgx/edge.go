package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const edgeColumns = "id, type, source_id, target_id, position, props"

func scanEdge(row pgxv5.Row) (store.Edge, error) {
	var (
		e     store.Edge
		typ   string
		pos   int32
		props []byte
	)
	if err := row.Scan(&e.ID, &typ, &e.SourceID, &e.TargetID, &pos, &props); err != nil {
		return store.Edge{}, err
	}
	e.Type = common.EdgeType(typ)
	e.Position = int(pos)
	p, err := store.UnmarshalProps(props)
	if err != nil {
		return store.Edge{}, fmt.Errorf("failed to decode edge props: %w", err)
	}
	e.Props = p
	return e, nil
}

func (s *GraphDBStorage) OutEdges(ctx context.Context, sourceIDs []string, types ...common.EdgeType) ([]store.Edge, error) {
	return s.edgesBy(ctx, "source_id", sourceIDs, types)
}

func (s *GraphDBStorage) InEdges(ctx context.Context, targetIDs []string, types ...common.EdgeType) ([]store.Edge, error) {
	return s.edgesBy(ctx, "target_id", targetIDs, types)
}

func (s *GraphDBStorage) edgesBy(ctx context.Context, column string, ids []string, types []common.EdgeType) ([]store.Edge, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT " + edgeColumns + " FROM edges WHERE " + column + " = ANY($1)"
	args := []any{ids}
	if len(types) > 0 {
		query += " AND type = ANY($2)"
		args = append(args, store.EdgeTypeStrings(types))
	}
	query += " ORDER BY " + column + ` COLLATE "C", type COLLATE "C", position, id`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var out []store.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edges: %w", err)
	}
	return out, nil
}

// CreateEdges inserts the edges in one batch round trip.
func (s *GraphDBStorage) CreateEdges(ctx context.Context, edges []store.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	batch := &pgxv5.Batch{}
	for _, e := range edges {
		props, err := store.MarshalProps(e.Props)
		if err != nil {
			return err
		}
		batch.Queue(
			"INSERT INTO edges (type, source_id, target_id, position, props) VALUES ($1, $2, $3, $4, $5::jsonb)",
			string(e.Type), e.SourceID, e.TargetID, e.Position, string(props),
		)
	}

	logger.Debug("[Graph][CreateEdges] Inserting edges", "count", len(edges))
	br := s.conn.SendBatch(ctx, batch)
	defer br.Close()

	for range edges {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create edge: %w", mapPgError(err))
		}
	}
	return nil
}

func (s *GraphDBStorage) DeleteOutEdges(ctx context.Context, sourceID string, types ...common.EdgeType) error {
	query := "DELETE FROM edges WHERE source_id = $1"
	args := []any{sourceID}
	if len(types) > 0 {
		query += " AND type = ANY($2)"
		args = append(args, store.EdgeTypeStrings(types))
	}
	if _, err := s.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete edges of %s: %w", sourceID, err)
	}
	return nil
}
