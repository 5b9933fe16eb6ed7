package projection

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

// CreditedStaging is a staging crediting the entity under CreditName.
// CreditedCompany is set when a person is credited as a company member.
type CreditedStaging struct {
	StagingAtVenue
	CreditName      string         `json:"creditName"`
	CreditedCompany *graph.NodeRef `json:"creditedCompany"`
}

type CastStaging struct {
	StagingAtVenue
	Roles []RoleShow `json:"roles"`
}

// EntityShow is the read shape of persons and companies. Only persons carry
// cast stagings.
type EntityShow struct {
	Model                       common.Label      `json:"model"`
	ID                          string            `json:"id"`
	Name                        string            `json:"name"`
	Differentiator              string            `json:"differentiator"`
	Works                       []credits.Entity  `json:"works"`
	SubsequentVersionWorks      []credits.Entity  `json:"subsequentVersionWorks"`
	SourcingWorks               []credits.Entity  `json:"sourcingWorks"`
	RightsGrantorWorks          []credits.Entity  `json:"rightsGrantorWorks"`
	ProducerStagings            []CreditedStaging `json:"producerStagings"`
	CreativeStagings            []CreditedStaging `json:"creativeStagings"`
	CrewStagings                []CreditedStaging `json:"crewStagings"`
	CastStagings                *[]CastStaging    `json:"castStagings,omitempty"`
	Awards                      []awards.Award    `json:"awards"`
	SubsequentVersionWorkAwards []awards.Award    `json:"subsequentVersionWorkAwards"`
	SourcingWorkAwards          []awards.Award    `json:"sourcingWorkAwards"`
	RightsGrantorWorkAwards     []awards.Award    `json:"rightsGrantorWorkAwards"`
}

func (b *Builder) showEntity(ctx context.Context, node store.Node) (*EntityShow, error) {
	show := &EntityShow{
		Model:          node.Label,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(b.nav.Parallelism())
	eg.Go(func() error {
		return b.entityWorks(ectx, node.ID, show)
	})
	eg.Go(func() error {
		return b.entityStagingCredits(ectx, node.ID, show)
	})
	if node.Label == common.LabelPerson {
		eg.Go(func() error {
			cast, err := b.castStagings(ectx, node.ID)
			show.CastStagings = &cast
			return err
		})
	}
	eg.Go(func() error {
		views, err := b.res.AwardsForViews(ectx, node.ID, node.Label, awards.ViewsFor(node.Label)...)
		if err != nil {
			return err
		}
		show.Awards = orEmptyAwards(views[awards.ViewDirect])
		show.SubsequentVersionWorkAwards = orEmptyAwards(views[awards.ViewSubsequentVersion])
		show.SourcingWorkAwards = orEmptyAwards(views[awards.ViewSourcing])
		show.RightsGrantorWorkAwards = orEmptyAwards(views[awards.ViewRightsGrantor])
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return show, nil
}

// entityWorks fills the four work lists. A work appears in one list only:
// writing beats rights grants; derived lists already skip written works.
func (b *Builder) entityWorks(ctx context.Context, id string, show *EntityShow) error {
	written, err := b.nav.CreditedWorks(ctx, id, common.CreditWriter)
	if err != nil {
		return err
	}
	granted, err := b.nav.CreditedWorks(ctx, id, common.CreditRightsGrantor)
	if err != nil {
		return err
	}
	writtenIDs := make(map[string]struct{}, len(written))
	for _, w := range written {
		writtenIDs[w.ID] = struct{}{}
	}
	var grantedOnly []graph.NodeRef
	for _, g := range granted {
		if _, ok := writtenIDs[g.ID]; !ok {
			grantedOnly = append(grantedOnly, g)
		}
	}

	subsequent, err := b.nav.EntitySubsequentVersionSet(ctx, id)
	if err != nil {
		return err
	}
	sourcing, err := b.nav.EntitySourcingSet(ctx, id)
	if err != nil {
		return err
	}

	if show.Works, err = b.workEntities(ctx, written); err != nil {
		return err
	}
	if show.RightsGrantorWorks, err = b.workEntities(ctx, grantedOnly); err != nil {
		return err
	}
	if show.SubsequentVersionWorks, err = b.workEntities(ctx, anchors(subsequent, graph.RoleSubsequentVersion)); err != nil {
		return err
	}
	show.SourcingWorks, err = b.workEntities(ctx, anchors(sourcing, graph.RoleSourcing))
	return err
}

func anchors(set *graph.ExposureSet, role graph.Role) []graph.NodeRef {
	var out []graph.NodeRef
	for _, m := range set.Members() {
		if m.Roles.Has(role) {
			out = append(out, m.NodeRef)
		}
	}
	return out
}

func (b *Builder) entityStagingCredits(ctx context.Context, id string, show *EntityShow) error {
	edges, err := b.reader().InEdges(ctx, []string{id},
		common.EdgeProducerEntity, common.EdgeCreativeEntity, common.EdgeCrewEntity)
	if err != nil {
		return err
	}
	stagings, err := b.loadStagings(ctx, store.SourceIDs(edges))
	if err != nil {
		return err
	}
	byID := make(map[string]StagingAtVenue, len(stagings))
	for _, s := range stagings {
		byID[s.ID] = s
	}

	var companyIDs []string
	for _, e := range edges {
		companyIDs = append(companyIDs, e.Props.String(common.PropCreditedCompanyID))
	}
	companies, err := b.reader().GetNodes(ctx, companyIDs)
	if err != nil {
		return err
	}

	type key struct {
		staging, credit, company string
	}
	seen := make(map[key]struct{})
	lists := map[common.EdgeType][]CreditedStaging{}
	for _, e := range edges {
		s, ok := byID[e.SourceID]
		if !ok {
			continue
		}
		companyID := e.Props.String(common.PropCreditedCompanyID)
		k := key{staging: e.SourceID, credit: e.Props.String(common.PropCreditName), company: companyID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		cs := CreditedStaging{StagingAtVenue: s, CreditName: k.credit}
		if c, ok := companies[companyID]; ok {
			ref := graph.RefOf(c)
			cs.CreditedCompany = &ref
		}
		lists[e.Type] = append(lists[e.Type], cs)
	}

	for _, l := range lists {
		sort.SliceStable(l, func(i, j int) bool {
			if l[i].ID != l[j].ID {
				return stagingLess(l[i].StagingSummary, l[j].StagingSummary)
			}
			return l[i].CreditName < l[j].CreditName
		})
	}
	show.ProducerStagings = orEmptyCreditedStagings(lists[common.EdgeProducerEntity])
	show.CreativeStagings = orEmptyCreditedStagings(lists[common.EdgeCreativeEntity])
	show.CrewStagings = orEmptyCreditedStagings(lists[common.EdgeCrewEntity])
	return nil
}

func orEmptyCreditedStagings(l []CreditedStaging) []CreditedStaging {
	if l == nil {
		return []CreditedStaging{}
	}
	return l
}

// castStagings lists the stagings a person performs in with roles linked to
// the characters of each staged work.
func (b *Builder) castStagings(ctx context.Context, personID string) ([]CastStaging, error) {
	edges, err := b.reader().InEdges(ctx, []string{personID}, common.EdgeCastMember)
	if err != nil {
		return nil, err
	}
	stagingIDs := store.SourceIDs(edges)
	stagings, err := b.loadStagings(ctx, stagingIDs)
	if err != nil {
		return nil, err
	}
	indexes, err := b.roleIndexes(ctx, stagingIDs)
	if err != nil {
		return nil, err
	}

	rolesOf := make(map[string][]common.Role)
	for _, e := range edges {
		var roles []common.Role
		if err := e.Props.Decode(common.PropRoles, &roles); err != nil {
			return nil, err
		}
		rolesOf[e.SourceID] = append(rolesOf[e.SourceID], roles...)
	}

	out := make([]CastStaging, 0, len(stagings))
	for _, s := range stagings {
		out = append(out, CastStaging{StagingAtVenue: s, Roles: indexes[s.ID].showAll(rolesOf[s.ID])})
	}
	return out, nil
}

// roleIndexes builds a role index per staging from the characters its work
// depicts.
func (b *Builder) roleIndexes(ctx context.Context, stagingIDs []string) (map[string]roleIndex, error) {
	out := make(map[string]roleIndex, len(stagingIDs))
	if len(stagingIDs) == 0 {
		return out, nil
	}
	workEdges, err := b.reader().OutEdges(ctx, stagingIDs, common.EdgeOfWork)
	if err != nil {
		return nil, err
	}
	depEdges, err := b.reader().OutEdges(ctx, store.TargetIDs(workEdges), common.EdgeDepicts)
	if err != nil {
		return nil, err
	}
	chars, err := b.reader().GetNodes(ctx, store.TargetIDs(depEdges))
	if err != nil {
		return nil, err
	}

	byWork := make(map[string]roleIndex)
	for workID, group := range store.GroupBySource(depEdges) {
		byWork[workID] = newRoleIndex(decodeDepictions(group), chars)
	}
	for _, e := range workEdges {
		out[e.SourceID] = byWork[e.TargetID]
	}
	return out, nil
}
