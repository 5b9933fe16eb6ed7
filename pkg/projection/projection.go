// Package projection assembles show, edit and list shapes from the graph.
package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

var ErrUnsupportedLabel = errors.New("projection: unsupported label")

// Builder turns graph data into response trees. It holds no request state.
type Builder struct {
	nav *graph.Navigator
	agg *credits.Aggregator
	res *awards.Resolver
}

func New(nav *graph.Navigator) *Builder {
	return &Builder{
		nav: nav,
		agg: credits.New(nav),
		res: awards.New(nav),
	}
}

func (b *Builder) reader() store.Reader {
	return b.nav.Reader()
}

// Show builds the read projection of node.
func (b *Builder) Show(ctx context.Context, node store.Node) (any, error) {
	switch node.Label {
	case common.LabelWork:
		return b.showWork(ctx, node)
	case common.LabelStaging:
		return b.showStaging(ctx, node)
	case common.LabelVenue:
		return b.showVenue(ctx, node)
	case common.LabelPerson, common.LabelCompany:
		return b.showEntity(ctx, node)
	case common.LabelCharacter:
		return b.showCharacter(ctx, node)
	case common.LabelAward:
		return b.showAward(ctx, node)
	case common.LabelAwardCeremony:
		return b.showCeremony(ctx, node)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLabel, node.Label)
}

// Edit builds the edit projection of node with padded lists.
func (b *Builder) Edit(ctx context.Context, node store.Node) (any, error) {
	payload, err := b.Payload(ctx, node)
	if err != nil {
		return nil, err
	}
	Pad(payload)
	return EditShape(node.Label, node.ID, payload), nil
}

func refPtr(refs []graph.NodeRef) *graph.NodeRef {
	if len(refs) == 0 {
		return nil
	}
	r := refs[0]
	return &r
}

func orEmptyRefs(refs []graph.NodeRef) []graph.NodeRef {
	if refs == nil {
		return []graph.NodeRef{}
	}
	return refs
}

func orEmptyCredits(c []credits.Credit) []credits.Credit {
	if c == nil {
		return []credits.Credit{}
	}
	return c
}

func orEmptyAwards(a []awards.Award) []awards.Award {
	if a == nil {
		return []awards.Award{}
	}
	return a
}

// workEntities resolves works for display with their sur-work and writing
// credits.
func (b *Builder) workEntities(ctx context.Context, refs []graph.NodeRef) ([]credits.Entity, error) {
	out := make([]credits.Entity, 0, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	surs, err := b.nav.NeighborsMany(ctx, ids, graph.ChannelSur)
	if err != nil {
		return nil, err
	}
	wc, err := b.agg.WritingCreditsMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		out = append(out, credits.Entity{
			NodeRef:        r,
			SurWork:        refPtr(surs[r.ID]),
			WritingCredits: orEmptyCredits(wc[r.ID]),
		})
	}
	return out, nil
}
