package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrUniqueViolation = errors.New("store: unique violation")
	ErrReferenced      = errors.New("store: node is still referenced")
)

// Node is a typed vertex of the property graph.
type Node struct {
	ID             string       `json:"id"`
	Label          common.Label `json:"label"`
	Name           string       `json:"name"`
	Differentiator string       `json:"differentiator"`
	Props          Props        `json:"props"`
}

// Edge is a typed, directed relationship. Position carries the stored ordinal
// used for deterministic ordering.
type Edge struct {
	ID       int64           `json:"id"`
	Type     common.EdgeType `json:"type"`
	SourceID string          `json:"sourceId"`
	TargetID string          `json:"targetId"`
	Position int             `json:"position"`
	Props    Props           `json:"props"`
}

// Reader exposes the read side of the graph store.
//
// OutEdges and InEdges return edges ordered by the queried endpoint, edge
// type, position and id. An empty types list matches every type.
type Reader interface {
	GetNode(ctx context.Context, id string) (Node, error)
	GetNodes(ctx context.Context, ids []string) (map[string]Node, error)
	FindNode(ctx context.Context, label common.Label, name, differentiator string) (Node, error)
	ListNodes(ctx context.Context, label common.Label) ([]Node, error)
	OutEdges(ctx context.Context, sourceIDs []string, types ...common.EdgeType) ([]Edge, error)
	InEdges(ctx context.Context, targetIDs []string, types ...common.EdgeType) ([]Edge, error)
}

// Writer is only handed out inside a transaction.
type Writer interface {
	Reader
	CreateNode(ctx context.Context, node Node) error
	UpdateNode(ctx context.Context, node Node) error
	// DeleteNode removes the node together with its outgoing edges. It fails
	// with ErrReferenced while incoming edges remain.
	DeleteNode(ctx context.Context, id string) error
	CreateEdges(ctx context.Context, edges []Edge) error
	DeleteOutEdges(ctx context.Context, sourceID string, types ...common.EdgeType) error
}

// GraphStorage is the property-graph datastore. Writes run through WithTx so
// a failing callback leaves the graph untouched.
type GraphStorage interface {
	Reader
	WithTx(ctx context.Context, fn func(ctx context.Context, w Writer) error) error
	Close() error
}
