package projection

import (
	"context"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// VenueStaging is a staging at a venue; SubVenue is set when it played a
// sub-venue.
type VenueStaging struct {
	StagingSummary
	SubVenue *graph.NodeRef `json:"subVenue"`
}

type VenueShow struct {
	Model          common.Label    `json:"model"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Differentiator string          `json:"differentiator"`
	SurVenue       *graph.NodeRef  `json:"surVenue"`
	SubVenues      []graph.NodeRef `json:"subVenues"`
	Stagings       []VenueStaging  `json:"stagings"`
}

func (b *Builder) showVenue(ctx context.Context, node store.Node) (*VenueShow, error) {
	chans, err := b.nav.Channels(ctx, node.ID, graph.ChannelSur, graph.ChannelSub)
	if err != nil {
		return nil, err
	}
	subs := chans[graph.ChannelSub]
	show := &VenueShow{
		Model:          node.Label,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
		SurVenue:       refPtr(chans[graph.ChannelSur]),
		SubVenues:      orEmptyRefs(subs),
	}

	venueIDs := append([]string{node.ID}, refIDs(subs)...)
	edges, err := b.reader().InEdges(ctx, venueIDs, common.EdgeStagedAt)
	if err != nil {
		return nil, err
	}
	stagings, err := b.loadStagings(ctx, store.SourceIDs(edges))
	if err != nil {
		return nil, err
	}

	show.Stagings = make([]VenueStaging, 0, len(stagings))
	for _, s := range stagings {
		vs := VenueStaging{StagingSummary: s.StagingSummary}
		if s.Venue != nil && s.Venue.ID != node.ID {
			sub := s.Venue.NodeRef
			vs.SubVenue = &sub
		}
		show.Stagings = append(show.Stagings, vs)
	}
	return show, nil
}

func (b *Builder) venuePayload(ctx context.Context, node store.Node) (*common.VenuePayload, error) {
	p := &common.VenuePayload{Name: node.Name, Differentiator: node.Differentiator}
	subs, err := b.nav.Neighbors(ctx, node.ID, graph.ChannelSub)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		p.SubVenues = append(p.SubVenues, common.NamedRef{Name: s.Name, Differentiator: s.Differentiator})
	}
	return p, nil
}
