package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Storage, nodes []store.Node, edges []store.Edge) {
	t.Helper()
	err := s.WithTx(context.Background(), func(ctx context.Context, w store.Writer) error {
		for _, n := range nodes {
			if err := w.CreateNode(ctx, n); err != nil {
				return err
			}
		}
		return w.CreateEdges(ctx, edges)
	})
	require.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestNodeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed(t, s, []store.Node{{
		ID:    "w1",
		Label: common.LabelWork,
		Name:  "Hamlet",
		Props: store.Props{common.PropFormat: "play", common.PropYear: 1600},
	}}, nil)

	n, err := s.GetNode(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, common.LabelWork, n.Label)
	assert.Equal(t, "play", n.Props.String(common.PropFormat))
	assert.Equal(t, 1600, n.Props.Int(common.PropYear))

	found, err := s.FindNode(ctx, common.LabelWork, "Hamlet", "")
	require.NoError(t, err)
	assert.Equal(t, "w1", found.ID)

	_, err = s.GetNode(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUniqueIdentity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s, []store.Node{{ID: "p1", Label: common.LabelPerson, Name: "Ann"}}, nil)

	err := s.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		return w.CreateNode(ctx, store.Node{ID: "p2", Label: common.LabelPerson, Name: "Ann"})
	})
	assert.ErrorIs(t, err, store.ErrUniqueViolation)

	// Stagings carry no identity constraint.
	seed(t, s, []store.Node{
		{ID: "s1", Label: common.LabelStaging, Name: "Hamlet"},
		{ID: "s2", Label: common.LabelStaging, Name: "Hamlet"},
	}, nil)
}

func TestEdgesOrderedAndFiltered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s,
		[]store.Node{
			{ID: "sur", Label: common.LabelWork, Name: "Sur"},
			{ID: "a", Label: common.LabelWork, Name: "A"},
			{ID: "b", Label: common.LabelWork, Name: "B"},
			{ID: "p", Label: common.LabelPerson, Name: "P"},
		},
		[]store.Edge{
			{Type: common.EdgeComposedOf, SourceID: "sur", TargetID: "b", Position: 1},
			{Type: common.EdgeComposedOf, SourceID: "sur", TargetID: "a", Position: 0},
			{Type: common.EdgeContributedBy, SourceID: "sur", TargetID: "p", Position: 0, Props: store.Props{common.PropCreditName: "by"}},
		},
	)

	subs, err := s.OutEdges(ctx, []string{"sur"}, common.EdgeComposedOf)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "a", subs[0].TargetID)
	assert.Equal(t, "b", subs[1].TargetID)

	all, err := s.OutEdges(ctx, []string{"sur"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	in, err := s.InEdges(ctx, []string{"p"}, common.EdgeContributedBy)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "by", in[0].Props.String(common.PropCreditName))
}

func TestDeleteNodeGuardsIncomingEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s,
		[]store.Node{
			{ID: "st", Label: common.LabelStaging, Name: "Run"},
			{ID: "v", Label: common.LabelVenue, Name: "Globe"},
		},
		[]store.Edge{{Type: common.EdgeStagedAt, SourceID: "st", TargetID: "v"}},
	)

	err := s.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		return w.DeleteNode(ctx, "v")
	})
	assert.ErrorIs(t, err, store.ErrReferenced)

	// Removing the owner cascades its outgoing edges.
	err = s.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		return w.DeleteNode(ctx, "st")
	})
	require.NoError(t, err)

	in, err := s.InEdges(ctx, []string{"v"})
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestWithTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		if err := w.CreateNode(ctx, store.Node{ID: "x", Label: common.LabelVenue, Name: "X"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetNode(ctx, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteOutEdgesByType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s,
		[]store.Node{
			{ID: "w", Label: common.LabelWork, Name: "W"},
			{ID: "o", Label: common.LabelWork, Name: "O"},
			{ID: "c", Label: common.LabelCharacter, Name: "C"},
		},
		[]store.Edge{
			{Type: common.EdgeVersionOf, SourceID: "w", TargetID: "o"},
			{Type: common.EdgeDepicts, SourceID: "w", TargetID: "c"},
		},
	)

	err := s.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		return w.DeleteOutEdges(ctx, "w", common.EdgeVersionOf)
	})
	require.NoError(t, err)

	edges, err := s.OutEdges(ctx, []string{"w"})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, common.EdgeDepicts, edges[0].Type)
}
