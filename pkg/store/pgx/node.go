package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const nodeColumns = "id, label, name, differentiator, props"

func scanNode(row pgxv5.Row) (store.Node, error) {
	var (
		n     store.Node
		label string
		props []byte
	)
	if err := row.Scan(&n.ID, &label, &n.Name, &n.Differentiator, &props); err != nil {
		return store.Node{}, err
	}
	n.Label = common.Label(label)
	p, err := store.UnmarshalProps(props)
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to decode node props: %w", err)
	}
	n.Props = p
	return n, nil
}

func (s *GraphDBStorage) GetNode(ctx context.Context, id string) (store.Node, error) {
	row := s.conn.QueryRow(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = $1", id)
	n, err := scanNode(row)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Node{}, store.ErrNotFound
	}
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return n, nil
}

func (s *GraphDBStorage) GetNodes(ctx context.Context, ids []string) (map[string]store.Node, error) {
	ids = store.DedupeStrings(ids)
	out := make(map[string]store.Node, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	nodes, err := s.queryNodes(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		out[n.ID] = n
	}
	return out, nil
}

func (s *GraphDBStorage) FindNode(ctx context.Context, label common.Label, name, differentiator string) (store.Node, error) {
	row := s.conn.QueryRow(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE label = $1 AND name = $2 AND differentiator = $3 ORDER BY id LIMIT 1",
		string(label), name, differentiator,
	)
	n, err := scanNode(row)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Node{}, store.ErrNotFound
	}
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to find %s node: %w", label, err)
	}
	return n, nil
}

func (s *GraphDBStorage) ListNodes(ctx context.Context, label common.Label) ([]store.Node, error) {
	return s.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE label = $1
		 ORDER BY name COLLATE "C", differentiator COLLATE "C", id COLLATE "C"`,
		string(label),
	)
}

func (s *GraphDBStorage) queryNodes(ctx context.Context, query string, args ...any) ([]store.Node, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []store.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	return nodes, nil
}

func (s *GraphDBStorage) CreateNode(ctx context.Context, node store.Node) error {
	props, err := store.MarshalProps(node.Props)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(ctx,
		"INSERT INTO nodes (id, label, name, differentiator, props) VALUES ($1, $2, $3, $4, $5::jsonb)",
		node.ID, string(node.Label), node.Name, node.Differentiator, string(props),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s node: %w", node.Label, mapPgError(err))
	}
	return nil
}

func (s *GraphDBStorage) UpdateNode(ctx context.Context, node store.Node) error {
	props, err := store.MarshalProps(node.Props)
	if err != nil {
		return err
	}
	tag, err := s.conn.Exec(ctx,
		"UPDATE nodes SET name = $1, differentiator = $2, props = $3::jsonb, updated_at = now() WHERE id = $4",
		node.Name, node.Differentiator, string(props), node.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", node.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GraphDBStorage) DeleteNode(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, "DELETE FROM nodes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
