package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Channel is a traversal direction from a subject node.
type Channel string

const (
	ChannelSur               Channel = "SUR"
	ChannelSub               Channel = "SUB"
	ChannelVersionOriginal   Channel = "VERSION_ORIGINAL"
	ChannelVersionSubsequent Channel = "VERSION_SUBSEQUENT"
	ChannelSourcedBy         Channel = "SOURCED_BY"
	ChannelSources           Channel = "SOURCES"
)

// NodeRef is a neighbour returned by the navigator. Position is the stored
// ordinal of the edge it was reached through.
type NodeRef struct {
	ID             string       `json:"id"`
	Label          common.Label `json:"model"`
	Name           string       `json:"name"`
	Differentiator string       `json:"differentiator"`
	Position       int          `json:"-"`
}

func RefOf(n store.Node) NodeRef {
	return NodeRef{ID: n.ID, Label: n.Label, Name: n.Name, Differentiator: n.Differentiator}
}

const DefaultParallelism = 4

// Navigator answers bounded neighbour queries over the graph store.
// It holds no request state and may be shared.
type Navigator struct {
	r           store.Reader
	parallelism int
	trace       Tracer
}

type Option func(*Navigator)

// WithParallelism bounds concurrent channel queries. Use 1 when the reader is
// a transaction.
func WithParallelism(n int) Option {
	return func(nav *Navigator) {
		if n > 0 {
			nav.parallelism = n
		}
	}
}

func WithTracer(t Tracer) Option {
	return func(nav *Navigator) {
		nav.trace = t
	}
}

func NewNavigator(r store.Reader, opts ...Option) *Navigator {
	nav := &Navigator{r: r, parallelism: DefaultParallelism}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(nav)
	}
	return nav
}

func (n *Navigator) Reader() store.Reader {
	return n.r
}

func (n *Navigator) Parallelism() int {
	return n.parallelism
}

// Neighbors returns the ordered neighbours of id on one channel. Absent
// relationships yield an empty list.
func (n *Navigator) Neighbors(ctx context.Context, id string, ch Channel) ([]NodeRef, error) {
	out, err := n.NeighborsMany(ctx, []string{id}, ch)
	if err != nil {
		return nil, err
	}
	return out[id], nil
}

// NeighborsMany answers one channel for many subjects with a single edge
// query.
func (n *Navigator) NeighborsMany(ctx context.Context, ids []string, ch Channel) (map[string][]NodeRef, error) {
	ids = store.DedupeStrings(ids)
	out := make(map[string][]NodeRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var (
		edges    []store.Edge
		err      error
		outgoing bool
	)
	switch ch {
	case ChannelSur:
		edges, err = n.r.InEdges(ctx, ids, common.EdgeComposedOf)
	case ChannelSub:
		edges, err = n.r.OutEdges(ctx, ids, common.EdgeComposedOf)
		outgoing = true
	case ChannelVersionOriginal:
		edges, err = n.r.OutEdges(ctx, ids, common.EdgeVersionOf)
		outgoing = true
	case ChannelVersionSubsequent:
		edges, err = n.r.InEdges(ctx, ids, common.EdgeVersionOf)
	case ChannelSources:
		edges, err = n.r.OutEdges(ctx, ids, common.EdgeContributedBy)
		outgoing = true
	case ChannelSourcedBy:
		edges, err = n.r.InEdges(ctx, ids, common.EdgeContributedBy)
	default:
		return nil, fmt.Errorf("unknown channel %q", ch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", ch, err)
	}

	subject := func(e store.Edge) string { return e.TargetID }
	other := func(e store.Edge) string { return e.SourceID }
	if outgoing {
		subject, other = other, subject
	}

	lookup := make([]string, 0, len(edges)+len(ids))
	for _, e := range edges {
		lookup = append(lookup, other(e))
	}
	if ch == ChannelSourcedBy {
		lookup = append(lookup, ids...)
	}
	nodes, err := n.r.GetNodes(ctx, lookup)
	if err != nil {
		return nil, err
	}

	if ch == ChannelSources {
		sort.SliceStable(edges, func(i, j int) bool {
			a, b := edges[i], edges[j]
			if a.SourceID != b.SourceID {
				return a.SourceID < b.SourceID
			}
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.Props.Int(common.PropEntityPosition) < b.Props.Int(common.PropEntityPosition)
		})
	}

	seen := make(map[string]map[string]struct{}, len(ids))
	var visited []string
	for _, e := range edges {
		subj, oth := subject(e), other(e)
		node, ok := nodes[oth]
		if !ok {
			continue
		}
		switch ch {
		case ChannelSources:
			if node.Label != common.LabelWork {
				continue
			}
		case ChannelSourcedBy:
			if nodes[subj].Label != common.LabelWork || node.Label != common.LabelWork {
				continue
			}
		}
		if seen[subj] == nil {
			seen[subj] = make(map[string]struct{})
		}
		if _, dup := seen[subj][oth]; dup {
			continue
		}
		seen[subj][oth] = struct{}{}

		ref := RefOf(node)
		ref.Position = e.Position
		out[subj] = append(out[subj], ref)
		visited = append(visited, oth)
	}

	for subj, refs := range out {
		switch ch {
		case ChannelSur, ChannelVersionOriginal:
			// Single-valued channels; the validator keeps these at one.
			if len(refs) > 1 {
				logger.Warn("[Navigator] Multiple neighbours on single-valued channel", "channel", ch, "id", subj, "count", len(refs))
				out[subj] = refs[:1]
			}
		case ChannelVersionSubsequent, ChannelSourcedBy:
			SortRefs(refs)
		}
	}

	logger.Debug("[Navigator] Channel query", "channel", ch, "subjects", len(ids), "neighbours", len(visited))
	recordChannel(n.trace, ch, ids, visited)
	return out, nil
}

// Channels queries several channels for one subject concurrently and waits
// for all of them.
func (n *Navigator) Channels(ctx context.Context, id string, chs ...Channel) (map[Channel][]NodeRef, error) {
	results := make([][]NodeRef, len(chs))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(n.parallelism)
	for i := range chs {
		idx := i
		ch := chs[i]
		eg.Go(func() error {
			refs, err := n.Neighbors(ectx, id, ch)
			if err != nil {
				return err
			}
			results[idx] = refs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Channel][]NodeRef, len(chs))
	for i, ch := range chs {
		out[ch] = results[i]
	}
	return out, nil
}

// Ancestors follows SUR up to limit hops, nearest first.
func (n *Navigator) Ancestors(ctx context.Context, id string, limit int) ([]NodeRef, error) {
	var out []NodeRef
	seen := map[string]struct{}{id: {}}
	current := id
	for i := 0; i < limit; i++ {
		surs, err := n.Neighbors(ctx, current, ChannelSur)
		if err != nil {
			return nil, err
		}
		if len(surs) == 0 {
			break
		}
		if _, loop := seen[surs[0].ID]; loop {
			break
		}
		seen[surs[0].ID] = struct{}{}
		out = append(out, surs[0])
		current = surs[0].ID
	}
	return out, nil
}

// Height is the number of COMPOSED_OF hops below id, capped at limit.
func (n *Navigator) Height(ctx context.Context, id string, limit int) (int, error) {
	frontier := []string{id}
	seen := map[string]struct{}{id: {}}
	height := 0
	for height < limit {
		subs, err := n.NeighborsMany(ctx, frontier, ChannelSub)
		if err != nil {
			return 0, err
		}
		var next []string
		for _, refs := range subs {
			for _, r := range refs {
				if _, ok := seen[r.ID]; ok {
					continue
				}
				seen[r.ID] = struct{}{}
				next = append(next, r.ID)
			}
		}
		if len(next) == 0 {
			break
		}
		height++
		frontier = next
	}
	return height, nil
}

// VersionChain follows VERSION_ORIGINAL from id until the chain ends or
// loops, nearest first.
func (n *Navigator) VersionChain(ctx context.Context, id string) ([]NodeRef, error) {
	var out []NodeRef
	seen := map[string]struct{}{id: {}}
	current := id
	for {
		originals, err := n.Neighbors(ctx, current, ChannelVersionOriginal)
		if err != nil {
			return nil, err
		}
		if len(originals) == 0 {
			return out, nil
		}
		next := originals[0]
		if _, loop := seen[next.ID]; loop {
			return out, nil
		}
		seen[next.ID] = struct{}{}
		out = append(out, next)
		current = next.ID
	}
}

// SortRefs orders refs by name, differentiator and id.
func SortRefs(refs []NodeRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Differentiator != b.Differentiator {
			return a.Differentiator < b.Differentiator
		}
		return a.ID < b.ID
	})
}
