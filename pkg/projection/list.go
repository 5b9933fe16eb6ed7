package projection

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

const DefaultListLimit = 100

// Summary is a list row. Kind-specific fields are only encoded for the
// kind they belong to.
type Summary struct {
	graph.NodeRef
	Format     string
	Year       *int
	Subtitle   string
	StartDate  string
	EndDate    string
	SurWork    *graph.NodeRef
	SurStaging *graph.NodeRef
	SurVenue   *graph.NodeRef
	Venue      *graph.NodeRef
	Award      *graph.NodeRef
}

func (s Summary) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"model":          s.Label,
		"id":             s.ID,
		"name":           s.Name,
		"differentiator": s.Differentiator,
	}
	switch s.Label {
	case common.LabelWork:
		out["format"] = s.Format
		out["year"] = s.Year
		out["surWork"] = s.SurWork
	case common.LabelStaging:
		out["subtitle"] = s.Subtitle
		out["startDate"] = s.StartDate
		out["endDate"] = s.EndDate
		out["surStaging"] = s.SurStaging
		out["venue"] = s.Venue
	case common.LabelVenue:
		out["surVenue"] = s.SurVenue
	case common.LabelAwardCeremony:
		delete(out, "differentiator")
		out["award"] = s.Award
	}
	return json.Marshal(out)
}

// List returns up to limit summaries of label in list order. A limit of
// zero or less uses DefaultListLimit.
func (b *Builder) List(ctx context.Context, label common.Label, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	nodes, err := b.reader().ListNodes(ctx, label)
	if err != nil {
		return nil, err
	}

	rows := make([]Summary, 0, len(nodes))
	for _, n := range nodes {
		s := Summary{NodeRef: graph.RefOf(n)}
		switch label {
		case common.LabelWork:
			s.Format = n.Props.String(common.PropFormat)
			if y, ok := n.Props.OptInt(common.PropYear); ok {
				s.Year = &y
			}
		case common.LabelStaging:
			s.Subtitle = n.Props.String(common.PropSubtitle)
			s.StartDate = n.Props.String(common.PropStartDate)
			s.EndDate = n.Props.String(common.PropEndDate)
		}
		rows = append(rows, s)
	}
	sortSummaries(label, rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	if err := b.decorate(ctx, label, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// decorate attaches the related refs shown in list rows.
func (b *Builder) decorate(ctx context.Context, label common.Label, rows []Summary) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	switch label {
	case common.LabelWork, common.LabelStaging, common.LabelVenue:
		surs, err := b.nav.NeighborsMany(ctx, ids, graph.ChannelSur)
		if err != nil {
			return err
		}
		for i := range rows {
			sur := refPtr(surs[rows[i].ID])
			switch label {
			case common.LabelWork:
				rows[i].SurWork = sur
			case common.LabelStaging:
				rows[i].SurStaging = sur
			case common.LabelVenue:
				rows[i].SurVenue = sur
			}
		}
	}

	var edgeType common.EdgeType
	switch label {
	case common.LabelStaging:
		edgeType = common.EdgeStagedAt
	case common.LabelAwardCeremony:
		edgeType = common.EdgePresentedAt
	default:
		return nil
	}
	edges, err := b.reader().OutEdges(ctx, ids, edgeType)
	if err != nil {
		return err
	}
	targets, err := b.reader().GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return err
	}
	byRow := make(map[string]*graph.NodeRef, len(edges))
	for _, e := range edges {
		if t, ok := targets[e.TargetID]; ok {
			ref := graph.RefOf(t)
			byRow[e.SourceID] = &ref
		}
	}
	for i := range rows {
		if label == common.LabelStaging {
			rows[i].Venue = byRow[rows[i].ID]
		} else {
			rows[i].Award = byRow[rows[i].ID]
		}
	}
	return nil
}

func sortSummaries(label common.Label, rows []Summary) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch label {
		case common.LabelWork:
			if (a.Year == nil) != (b.Year == nil) {
				return a.Year != nil
			}
			if a.Year != nil && *a.Year != *b.Year {
				return *a.Year > *b.Year
			}
		case common.LabelStaging:
			if a.StartDate != b.StartDate {
				if a.StartDate == "" || b.StartDate == "" {
					return b.StartDate == ""
				}
				return a.StartDate > b.StartDate
			}
		case common.LabelAwardCeremony:
			if a.Name != b.Name {
				return a.Name > b.Name
			}
			return a.ID < b.ID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Differentiator != b.Differentiator {
			return a.Differentiator < b.Differentiator
		}
		return a.ID < b.ID
	})
}
