// Package storetest builds SQLite-backed graphs for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
	"github.com/OFFIS-RIT/dramatis/pkg/store/sqlite"

	"github.com/stretchr/testify/require"
)

// Fixture collects nodes and edges to insert in one transaction.
type Fixture struct {
	Nodes []store.Node
	Edges []store.Edge
}

// Node adds a node whose differentiator is empty.
func (f *Fixture) Node(id string, label common.Label, name string) *Fixture {
	return f.NodeWith(id, label, name, "", nil)
}

func (f *Fixture) NodeWith(id string, label common.Label, name, differentiator string, props store.Props) *Fixture {
	f.Nodes = append(f.Nodes, store.Node{
		ID:             id,
		Label:          label,
		Name:           name,
		Differentiator: differentiator,
		Props:          props,
	})
	return f
}

func (f *Fixture) Edge(typ common.EdgeType, source, target string, pos int, props store.Props) *Fixture {
	f.Edges = append(f.Edges, store.Edge{
		Type:     typ,
		SourceID: source,
		TargetID: target,
		Position: pos,
		Props:    props,
	})
	return f
}

// Open creates a fresh database in a temp dir and loads f into it.
func Open(t testing.TB, f *Fixture) *sqlite.Storage {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if f == nil {
		return s
	}
	err = s.WithTx(context.Background(), func(ctx context.Context, w store.Writer) error {
		for _, n := range f.Nodes {
			if err := w.CreateNode(ctx, n); err != nil {
				return err
			}
		}
		return w.CreateEdges(ctx, f.Edges)
	})
	require.NoError(t, err)
	return s
}

// Counts returns the number of nodes and edges in the store.
func Counts(t testing.TB, s *sqlite.Storage) (nodes, edges int) {
	t.Helper()
	db := s.DB()
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges))
	return nodes, edges
}
