package projection

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// VenueRef is a venue with its sur-venue.
type VenueRef struct {
	graph.NodeRef
	SurVenue *graph.NodeRef `json:"surVenue"`
}

// StagingSummary is the short form of a staging used inside other shows.
type StagingSummary struct {
	graph.NodeRef
	Subtitle   string         `json:"subtitle"`
	StartDate  string         `json:"startDate"`
	EndDate    string         `json:"endDate"`
	SurStaging *graph.NodeRef `json:"surStaging"`
}

// StagingAtVenue is a staging summary with the venue it played.
type StagingAtVenue struct {
	StagingSummary
	Venue *VenueRef `json:"venue"`
}

// loadStagings resolves summaries with venue and sur-staging for ids,
// ordered by start date descending then name.
func (b *Builder) loadStagings(ctx context.Context, ids []string) ([]StagingAtVenue, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return []StagingAtVenue{}, nil
	}
	r := b.reader()
	nodes, err := r.GetNodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	venueEdges, err := r.OutEdges(ctx, ids, common.EdgeStagedAt)
	if err != nil {
		return nil, err
	}
	venueIDs := store.TargetIDs(venueEdges)
	venues, err := r.GetNodes(ctx, venueIDs)
	if err != nil {
		return nil, err
	}
	venueSurs, err := b.nav.NeighborsMany(ctx, venueIDs, graph.ChannelSur)
	if err != nil {
		return nil, err
	}
	stagingSurs, err := b.nav.NeighborsMany(ctx, ids, graph.ChannelSur)
	if err != nil {
		return nil, err
	}

	venueOf := make(map[string]*VenueRef)
	for _, e := range venueEdges {
		v, ok := venues[e.TargetID]
		if !ok {
			continue
		}
		if _, dup := venueOf[e.SourceID]; dup {
			continue
		}
		venueOf[e.SourceID] = &VenueRef{NodeRef: graph.RefOf(v), SurVenue: refPtr(venueSurs[v.ID])}
	}

	out := make([]StagingAtVenue, 0, len(ids))
	for _, id := range ids {
		n, ok := nodes[id]
		if !ok {
			continue
		}
		out = append(out, StagingAtVenue{
			StagingSummary: summarize(n, refPtr(stagingSurs[id])),
			Venue:          venueOf[id],
		})
	}
	sortStagings(out)
	return out, nil
}

func summarize(n store.Node, sur *graph.NodeRef) StagingSummary {
	return StagingSummary{
		NodeRef:    graph.RefOf(n),
		Subtitle:   n.Props.String(common.PropSubtitle),
		StartDate:  n.Props.String(common.PropStartDate),
		EndDate:    n.Props.String(common.PropEndDate),
		SurStaging: sur,
	}
}

// sortStagings orders by start date descending with undated stagings last,
// then name and id.
func sortStagings(s []StagingAtVenue) {
	sort.SliceStable(s, func(i, j int) bool {
		return stagingLess(s[i].StagingSummary, s[j].StagingSummary)
	})
}

func stagingLess(a, b StagingSummary) bool {
	if a.StartDate != b.StartDate {
		if a.StartDate == "" {
			return false
		}
		if b.StartDate == "" {
			return true
		}
		return a.StartDate > b.StartDate
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
