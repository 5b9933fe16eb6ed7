// Package credits groups contribution edges into ordered, named credits.
package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Entity is a contributor on a credit. Work entities carry their sur-work
// and writing credits; companies on staging credits carry their members.
type Entity struct {
	graph.NodeRef
	SurWork        *graph.NodeRef
	WritingCredits []Credit
	Members        []graph.NodeRef
}

func (e Entity) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"model":          e.Label,
		"id":             e.ID,
		"name":           e.Name,
		"differentiator": e.Differentiator,
	}
	switch e.Label {
	case common.LabelWork:
		out["surWork"] = e.SurWork
		out["writingCredits"] = nonNil(e.WritingCredits)
	case common.LabelCompany:
		members := e.Members
		if members == nil {
			members = []graph.NodeRef{}
		}
		out["members"] = members
	}
	return json.Marshal(out)
}

// Credit is a named group of entities.
type Credit struct {
	Name       string            `json:"name"`
	CreditType common.CreditType `json:"creditType,omitempty"`
	Position   int               `json:"-"`
	Entities   []Entity          `json:"entities"`
}

// CastMember is a performer on a staging with the roles they play.
type CastMember struct {
	graph.NodeRef
	Roles []common.Role `json:"roles"`
}

// StagingCredits holds the three credit lists of a staging.
type StagingCredits struct {
	Producer []Credit `json:"producerCredits"`
	Creative []Credit `json:"creativeCredits"`
	Crew     []Credit `json:"crewCredits"`
}

func nonNil(c []Credit) []Credit {
	if c == nil {
		return []Credit{}
	}
	return c
}

// Aggregator resolves credits through a navigator's reader.
type Aggregator struct {
	nav *graph.Navigator
}

func New(nav *graph.Navigator) *Aggregator {
	return &Aggregator{nav: nav}
}

// WritingCredits returns the writing credits of one work.
func (a *Aggregator) WritingCredits(ctx context.Context, workID string) ([]Credit, error) {
	all, err := a.WritingCreditsMany(ctx, []string{workID})
	if err != nil {
		return nil, err
	}
	return all[workID], nil
}

// WritingCreditsMany returns writing credits per work. Credited works are
// resolved one level deep with their sur-work and their own credits.
func (a *Aggregator) WritingCreditsMany(ctx context.Context, workIDs []string) (map[string][]Credit, error) {
	out, nestedIDs, err := a.writingCredits(ctx, workIDs)
	if err != nil {
		return nil, err
	}
	if len(nestedIDs) == 0 {
		return out, nil
	}

	var (
		surs   map[string][]graph.NodeRef
		nested map[string][]Credit
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(a.nav.Parallelism())
	eg.Go(func() error {
		var err error
		surs, err = a.nav.NeighborsMany(ectx, nestedIDs, graph.ChannelSur)
		return err
	})
	eg.Go(func() error {
		var err error
		nested, _, err = a.writingCredits(ectx, nestedIDs)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, credits := range out {
		for i := range credits {
			for j := range credits[i].Entities {
				e := &credits[i].Entities[j]
				if e.Label != common.LabelWork {
					continue
				}
				if s := surs[e.ID]; len(s) > 0 {
					sur := s[0]
					e.SurWork = &sur
				}
				e.WritingCredits = nested[e.ID]
			}
		}
	}
	return out, nil
}

// writingCredits groups CONTRIBUTED_BY edges without resolving nested works.
// It also returns the ids of credited works.
func (a *Aggregator) writingCredits(ctx context.Context, workIDs []string) (map[string][]Credit, []string, error) {
	r := a.nav.Reader()
	edges, err := r.OutEdges(ctx, workIDs, common.EdgeContributedBy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load writing credits: %w", err)
	}
	nodes, err := r.GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, nil, err
	}

	out := make(map[string][]Credit, len(workIDs))
	var nestedIDs []string
	for source, group := range store.GroupBySource(edges) {
		credits := groupCredits(group, nodes, func(c *Credit, e store.Edge) {
			c.CreditType = common.ParseCreditType(e.Props.String(common.PropCreditType))
		})
		for _, c := range credits {
			for _, ent := range c.Entities {
				if ent.Label == common.LabelWork {
					nestedIDs = append(nestedIDs, ent.ID)
				}
			}
		}
		out[source] = credits
	}
	return out, store.DedupeStrings(nestedIDs), nil
}

// StagingCredits returns the producer, creative and crew credits of a
// staging with company members attached to their companies.
func (a *Aggregator) StagingCredits(ctx context.Context, stagingID string) (StagingCredits, error) {
	r := a.nav.Reader()
	edges, err := r.OutEdges(ctx, []string{stagingID},
		common.EdgeProducerEntity, common.EdgeCreativeEntity, common.EdgeCrewEntity)
	if err != nil {
		return StagingCredits{}, fmt.Errorf("failed to load staging credits: %w", err)
	}
	nodes, err := r.GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return StagingCredits{}, err
	}

	byType := make(map[common.EdgeType][]store.Edge)
	for _, e := range edges {
		byType[e.Type] = append(byType[e.Type], e)
	}

	return StagingCredits{
		Producer: stagingCreditList(byType[common.EdgeProducerEntity], nodes),
		Creative: stagingCreditList(byType[common.EdgeCreativeEntity], nodes),
		Crew:     stagingCreditList(byType[common.EdgeCrewEntity], nodes),
	}, nil
}

func stagingCreditList(edges []store.Edge, nodes map[string]store.Node) []Credit {
	var entityEdges, memberEdges []store.Edge
	for _, e := range edges {
		if e.Props.String(common.PropCreditedCompanyID) != "" {
			memberEdges = append(memberEdges, e)
		} else {
			entityEdges = append(entityEdges, e)
		}
	}

	credits := groupCredits(entityEdges, nodes, nil)
	attachMembers(credits, memberEdges, nodes)
	return credits
}

// attachMembers places member edges under the company with the same credit
// position, ordered by member position.
func attachMembers(credits []Credit, memberEdges []store.Edge, nodes map[string]store.Node) {
	if len(memberEdges) == 0 {
		return
	}
	sort.SliceStable(memberEdges, func(i, j int) bool {
		return memberEdges[i].Props.Int(common.PropMemberPosition) < memberEdges[j].Props.Int(common.PropMemberPosition)
	})
	for _, e := range memberEdges {
		node, ok := nodes[e.TargetID]
		if !ok {
			continue
		}
		companyID := e.Props.String(common.PropCreditedCompanyID)
		for i := range credits {
			if credits[i].Position != e.Position {
				continue
			}
			for j := range credits[i].Entities {
				ent := &credits[i].Entities[j]
				if ent.ID == companyID {
					ent.Members = append(ent.Members, graph.RefOf(node))
				}
			}
		}
	}
}

type creditKey struct {
	position int
	name     string
}

// groupCredits folds edges into credits keyed by credit position and name.
// Credits follow position order; entities follow entity position then id.
func groupCredits(edges []store.Edge, nodes map[string]store.Node, decorate func(*Credit, store.Edge)) []Credit {
	index := make(map[creditKey]int)
	var credits []Credit
	for _, e := range edges {
		node, ok := nodes[e.TargetID]
		if !ok {
			continue
		}
		key := creditKey{position: e.Position, name: e.Props.String(common.PropCreditName)}
		i, ok := index[key]
		if !ok {
			i = len(credits)
			index[key] = i
			credits = append(credits, Credit{Name: key.name, Position: key.position})
			if decorate != nil {
				decorate(&credits[i], e)
			}
		}
		ref := graph.RefOf(node)
		ref.Position = e.Props.Int(common.PropEntityPosition)
		credits[i].Entities = append(credits[i].Entities, Entity{NodeRef: ref})
	}

	sort.SliceStable(credits, func(i, j int) bool {
		return credits[i].Position < credits[j].Position
	})
	for i := range credits {
		ents := credits[i].Entities
		sort.SliceStable(ents, func(x, y int) bool {
			if ents[x].Position != ents[y].Position {
				return ents[x].Position < ents[y].Position
			}
			return ents[x].ID < ents[y].ID
		})
	}
	return credits
}

// Cast returns the performers of a staging ordered by position.
func (a *Aggregator) Cast(ctx context.Context, stagingID string) ([]CastMember, error) {
	r := a.nav.Reader()
	edges, err := r.OutEdges(ctx, []string{stagingID}, common.EdgeCastMember)
	if err != nil {
		return nil, fmt.Errorf("failed to load cast: %w", err)
	}
	nodes, err := r.GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, err
	}

	out := make([]CastMember, 0, len(edges))
	for _, e := range edges {
		node, ok := nodes[e.TargetID]
		if !ok {
			continue
		}
		var roles []common.Role
		if err := e.Props.Decode(common.PropRoles, &roles); err != nil {
			return nil, fmt.Errorf("failed to decode roles of %s: %w", node.ID, err)
		}
		if roles == nil {
			roles = []common.Role{}
		}
		ref := graph.RefOf(node)
		ref.Position = e.Position
		out = append(out, CastMember{NodeRef: ref, Roles: roles})
	}
	return out, nil
}

// EntityIDs lists every entity and member id referenced by credits.
func EntityIDs(credits []Credit) []string {
	var ids []string
	for _, c := range credits {
		for _, e := range c.Entities {
			ids = append(ids, e.ID)
			for _, m := range e.Members {
				ids = append(ids, m.ID)
			}
		}
	}
	return store.DedupeStrings(ids)
}
