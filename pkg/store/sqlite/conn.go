package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/mattn/go-sqlite3"
)

// SQLite caps bound parameters per statement; id lists are chunked below it.
const maxParams = 500

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements store.Writer over either the pool or a transaction.
type conn struct {
	q queryer
}

const nodeColumns = "id, label, name, differentiator, props"
const edgeColumns = "id, type, source_id, target_id, position, props"

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (store.Node, error) {
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

func scanEdge(row scanner) (store.Edge, error) {
	var (
		e     store.Edge
		typ   string
		props []byte
	)
	if err := row.Scan(&e.ID, &typ, &e.SourceID, &e.TargetID, &e.Position, &props); err != nil {
		return store.Edge{}, err
	}
	e.Type = common.EdgeType(typ)
	p, err := store.UnmarshalProps(props)
	if err != nil {
		return store.Edge{}, fmt.Errorf("failed to decode edge props: %w", err)
	}
	e.Props = p
	return e, nil
}

func (c *conn) GetNode(ctx context.Context, id string) (store.Node, error) {
	row := c.q.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Node{}, store.ErrNotFound
	}
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return n, nil
}

func (c *conn) GetNodes(ctx context.Context, ids []string) (map[string]store.Node, error) {
	ids = store.DedupeStrings(ids)
	out := make(map[string]store.Node, len(ids))
	err := store.ChunkRange(len(ids), maxParams, func(start, end int) error {
		chunk := ids[start:end]
		query := "SELECT " + nodeColumns + " FROM nodes WHERE id IN (" + placeholders(len(chunk)) + ")"
		nodes, err := c.queryNodes(ctx, query, toArgs(chunk)...)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			out[n.ID] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *conn) FindNode(ctx context.Context, label common.Label, name, differentiator string) (store.Node, error) {
	row := c.q.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE label = ? AND name = ? AND differentiator = ? ORDER BY id LIMIT 1",
		string(label), name, differentiator,
	)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Node{}, store.ErrNotFound
	}
	if err != nil {
		return store.Node{}, fmt.Errorf("failed to find %s node: %w", label, err)
	}
	return n, nil
}

func (c *conn) ListNodes(ctx context.Context, label common.Label) ([]store.Node, error) {
	return c.queryNodes(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE label = ? ORDER BY name, differentiator, id",
		string(label),
	)
}

func (c *conn) queryNodes(ctx context.Context, query string, args ...any) ([]store.Node, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
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

func (c *conn) OutEdges(ctx context.Context, sourceIDs []string, types ...common.EdgeType) ([]store.Edge, error) {
	return c.edgesBy(ctx, "source_id", sourceIDs, types)
}

func (c *conn) InEdges(ctx context.Context, targetIDs []string, types ...common.EdgeType) ([]store.Edge, error) {
	return c.edgesBy(ctx, "target_id", targetIDs, types)
}

func (c *conn) edgesBy(ctx context.Context, column string, ids []string, types []common.EdgeType) ([]store.Edge, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	var out []store.Edge
	err := store.ChunkRange(len(ids), maxParams-len(types), func(start, end int) error {
		chunk := ids[start:end]
		query := "SELECT " + edgeColumns + " FROM edges WHERE " + column + " IN (" + placeholders(len(chunk)) + ")"
		args := toArgs(chunk)
		if len(types) > 0 {
			query += " AND type IN (" + placeholders(len(types)) + ")"
			args = append(args, toArgs(store.EdgeTypeStrings(types))...)
		}
		query += " ORDER BY " + column + ", type, position, id"

		rows, err := c.q.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query edges: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEdge(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	store.SortEdges(out, column == "target_id")
	return out, nil
}

func (c *conn) CreateNode(ctx context.Context, node store.Node) error {
	props, err := store.MarshalProps(node.Props)
	if err != nil {
		return err
	}
	_, err = c.q.ExecContext(ctx,
		"INSERT INTO nodes (id, label, name, differentiator, props) VALUES (?, ?, ?, ?, ?)",
		node.ID, string(node.Label), node.Name, node.Differentiator, string(props),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s node: %w", node.Label, mapError(err))
	}
	return nil
}

func (c *conn) UpdateNode(ctx context.Context, node store.Node) error {
	props, err := store.MarshalProps(node.Props)
	if err != nil {
		return err
	}
	res, err := c.q.ExecContext(ctx,
		"UPDATE nodes SET name = ?, differentiator = ?, props = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		node.Name, node.Differentiator, string(props), node.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", node.ID, mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *conn) DeleteNode(ctx context.Context, id string) error {
	res, err := c.q.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *conn) CreateEdges(ctx context.Context, edges []store.Edge) error {
	for _, e := range edges {
		props, err := store.MarshalProps(e.Props)
		if err != nil {
			return err
		}
		_, err = c.q.ExecContext(ctx,
			"INSERT INTO edges (type, source_id, target_id, position, props) VALUES (?, ?, ?, ?, ?)",
			string(e.Type), e.SourceID, e.TargetID, e.Position, string(props),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s edge: %w", e.Type, mapError(err))
		}
	}
	return nil
}

func (c *conn) DeleteOutEdges(ctx context.Context, sourceID string, types ...common.EdgeType) error {
	query := "DELETE FROM edges WHERE source_id = ?"
	args := []any{sourceID}
	if len(types) > 0 {
		query += " AND type IN (" + placeholders(len(types)) + ")"
		args = append(args, toArgs(store.EdgeTypeStrings(types))...)
	}
	if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete edges of %s: %w", sourceID, err)
	}
	return nil
}

func mapError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", store.ErrUniqueViolation, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", store.ErrReferenced, err)
	}
	return err
}
