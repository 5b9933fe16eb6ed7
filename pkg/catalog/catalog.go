// Package catalog is the operation layer over the graph: create, update,
// show, edit, list and destroy per entity kind.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/projection"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"github.com/go-playground/validator"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Notifier receives change events once a write has committed.
type Notifier interface {
	Notify(ctx context.Context, event common.ChangeEvent) error
}

type Service struct {
	store       store.GraphStorage
	validate    *validator.Validate
	newID       func() (string, error)
	notifier    Notifier
	parallelism int
	listLimit   int
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithIDs replaces the id generator for new nodes.
func WithIDs(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

func New(gs store.GraphStorage, opts ...Option) *Service {
	s := &Service{
		store:       gs,
		validate:    newValidator(),
		newID:       func() (string, error) { return gonanoid.New() },
		parallelism: graph.DefaultParallelism,
		listLimit:   projection.DefaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// builder returns a projection builder over the committed graph. trace may
// be nil.
func (s *Service) builder(trace graph.Tracer) *projection.Builder {
	return projection.New(graph.NewNavigator(s.store,
		graph.WithParallelism(s.parallelism),
		graph.WithTracer(trace),
	))
}

// load fetches id and checks it belongs to kind.
func load(ctx context.Context, r store.Reader, kind common.Kind, id string) (store.Node, error) {
	node, err := r.GetNode(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Node{}, ErrNotFound
	}
	if err != nil {
		return store.Node{}, err
	}
	if node.Label != kind.Label() {
		return store.Node{}, ErrNotFound
	}
	return node, nil
}

// Show returns the read projection of the record.
func (s *Service) Show(ctx context.Context, kind common.Kind, id string) (any, error) {
	node, err := load(ctx, s.store, kind, id)
	if err != nil {
		return nil, classify("show", err)
	}
	trace := graph.NewTraversalTrace()
	out, err := s.builder(trace).Show(ctx, node)
	if err != nil {
		logger.Error("[Catalog] Failed to build show projection", "kind", kind, "id", id, "err", err)
		return nil, classify("show", err)
	}
	snap := trace.Snapshot()
	for _, ch := range snap.Channels {
		logger.Debug("[Catalog] Traversal", "kind", kind, "id", id, "channel", ch.Channel, "queries", ch.Queries, "nodes", len(ch.NodeIDs))
	}
	return out, nil
}

// Edit returns the edit projection with padded lists.
func (s *Service) Edit(ctx context.Context, kind common.Kind, id string) (projection.EditView, error) {
	node, err := load(ctx, s.store, kind, id)
	if err != nil {
		return projection.EditView{}, classify("edit", err)
	}
	out, err := s.builder(nil).Edit(ctx, node)
	if err != nil {
		return projection.EditView{}, classify("edit", err)
	}
	return out.(projection.EditView), nil
}

// List returns ordered summaries capped at the list limit.
func (s *Service) List(ctx context.Context, kind common.Kind) ([]projection.Summary, error) {
	out, err := s.builder(nil).List(ctx, kind.Label(), s.listLimit)
	return out, classify("list", err)
}

// Awards resolves the award view of a work, staging, person or company.
func (s *Service) Awards(ctx context.Context, kind common.Kind, id string, view awards.View) ([]awards.Award, error) {
	node, err := load(ctx, s.store, kind, id)
	if err != nil {
		return nil, classify("awards", err)
	}
	nav := graph.NewNavigator(s.store, graph.WithParallelism(s.parallelism))
	out, err := awards.New(nav).AwardsFor(ctx, node.ID, node.Label, view)
	if errors.Is(err, awards.ErrUnsupportedView) {
		return nil, invalid(common.FieldErrors{"view": {MsgInvalidValue}})
	}
	return out, classify("awards", err)
}

// Deleted describes a destroyed record.
type Deleted struct {
	Model          common.Label `json:"model"`
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Differentiator string       `json:"differentiator"`
}

// Destroy removes the record unless other records still point at it. A
// ceremony takes its categories with it.
func (s *Service) Destroy(ctx context.Context, kind common.Kind, id string) (*Deleted, error) {
	var out *Deleted
	err := s.store.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		node, err := load(ctx, w, kind, id)
		if err != nil {
			return err
		}

		incoming, err := w.InEdges(ctx, []string{id})
		if err != nil {
			return err
		}
		if len(incoming) > 0 {
			owners, err := w.GetNodes(ctx, store.SourceIDs(incoming))
			if err != nil {
				return err
			}
			seen := make(map[string]struct{})
			var kinds []string
			for _, o := range owners {
				k := o.Label.DisplayKind()
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					kinds = append(kinds, k)
				}
			}
			sort.Strings(kinds)
			return invalid(common.FieldErrors{KeyAssociations: kinds})
		}

		if node.Label == common.LabelAwardCeremony {
			if err := deleteCategories(ctx, w, id); err != nil {
				return err
			}
		}
		if err := w.DeleteNode(ctx, id); err != nil {
			return err
		}
		out = &Deleted{Model: node.Label, ID: node.ID, Name: node.Name, Differentiator: node.Differentiator}
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			rejectedWrites.WithLabelValues(string(kind)).Inc()
			logger.Debug("[Catalog] Delete blocked", "kind", kind, "id", id, "errors", verr.Errors.String())
		}
		return nil, s.failed("destroy", kind, id, err)
	}

	logger.Info("[Catalog] Deleted", "kind", kind, "id", id)
	s.committed(ctx, kind, id, common.ActionDeleted)
	return out, nil
}

// deleteCategories drops the ceremony's category edges and nodes.
func deleteCategories(ctx context.Context, w store.Writer, ceremonyID string) error {
	edges, err := w.OutEdges(ctx, []string{ceremonyID}, common.EdgePresentsCategory)
	if err != nil {
		return err
	}
	if err := w.DeleteOutEdges(ctx, ceremonyID, common.EdgePresentsCategory); err != nil {
		return err
	}
	for _, id := range store.TargetIDs(edges) {
		if err := w.DeleteNode(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) failed(op string, kind common.Kind, id string, err error) error {
	err = classify(op, err)
	var sf *StoreFailure
	if errors.As(err, &sf) {
		logger.Error("[Catalog] Store failure", "op", op, "kind", kind, "id", id, "err", sf.Err)
	}
	return err
}

func (s *Service) committed(ctx context.Context, kind common.Kind, id string, action common.ChangeAction) {
	writesTotal.WithLabelValues(string(kind), string(action)).Inc()
	if s.notifier == nil {
		return
	}
	event := common.ChangeEvent{Kind: kind, ID: id, Action: action}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Warn("[Catalog] Failed to publish change event", "kind", kind, "id", id, "err", err)
	}
}
