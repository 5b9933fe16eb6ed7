package projection

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

type CeremonyShow struct {
	graph.NodeRef
	Categories []awards.Category `json:"categories"`
}

type AwardShow struct {
	Model          common.Label   `json:"model"`
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Differentiator string         `json:"differentiator"`
	Ceremonies     []CeremonyShow `json:"ceremonies"`
}

type AwardCeremonyShow struct {
	Model      common.Label      `json:"model"`
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Award      *graph.NodeRef    `json:"award"`
	Categories []awards.Category `json:"categories"`
}

func (b *Builder) showAward(ctx context.Context, node store.Node) (*AwardShow, error) {
	edges, err := b.reader().InEdges(ctx, []string{node.ID}, common.EdgePresentedAt)
	if err != nil {
		return nil, err
	}
	nodes, err := b.reader().GetNodes(ctx, store.SourceIDs(edges))
	if err != nil {
		return nil, err
	}
	var ceremonies []graph.NodeRef
	for _, id := range store.SourceIDs(edges) {
		if n, ok := nodes[id]; ok {
			ceremonies = append(ceremonies, graph.RefOf(n))
		}
	}
	sortCeremonies(ceremonies)

	shows := make([]CeremonyShow, len(ceremonies))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(b.nav.Parallelism())
	for i := range ceremonies {
		idx := i
		eg.Go(func() error {
			cats, err := b.res.CeremonyCategories(ectx, ceremonies[idx].ID)
			if err != nil {
				return err
			}
			shows[idx] = CeremonyShow{NodeRef: ceremonies[idx], Categories: cats}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &AwardShow{
		Model:          node.Label,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
		Ceremonies:     shows,
	}, nil
}

// sortCeremonies orders by name descending, then id.
func sortCeremonies(refs []graph.NodeRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name > refs[j].Name
		}
		return refs[i].ID < refs[j].ID
	})
}

func (b *Builder) ceremonyAward(ctx context.Context, ceremonyID string) (*graph.NodeRef, error) {
	edges, err := b.reader().OutEdges(ctx, []string{ceremonyID}, common.EdgePresentedAt)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}
	award, err := b.reader().GetNode(ctx, edges[0].TargetID)
	if err != nil {
		return nil, err
	}
	ref := graph.RefOf(award)
	return &ref, nil
}

func (b *Builder) showCeremony(ctx context.Context, node store.Node) (*AwardCeremonyShow, error) {
	award, err := b.ceremonyAward(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	cats, err := b.res.CeremonyCategories(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	return &AwardCeremonyShow{
		Model:      node.Label,
		ID:         node.ID,
		Name:       node.Name,
		Award:      award,
		Categories: cats,
	}, nil
}

func (b *Builder) ceremonyPayload(ctx context.Context, node store.Node) (*common.AwardCeremonyPayload, error) {
	p := &common.AwardCeremonyPayload{Name: node.Name}
	award, err := b.ceremonyAward(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	if award != nil {
		p.Award = common.NamedRef{Name: award.Name, Differentiator: award.Differentiator}
	}

	cats, err := b.res.CeremonyCategories(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		cat := common.CategoryPayload{Name: c.Name}
		for _, n := range c.Nominations {
			cat.Nominations = append(cat.Nominations, nominationPayload(n))
		}
		p.Categories = append(p.Categories, cat)
	}
	return p, nil
}

func nominationPayload(n awards.Nomination) common.NominationPayload {
	p := common.NominationPayload{IsWinner: n.IsWinner}
	if n.Type != awards.NominationType("", n.IsWinner) {
		p.CustomType = n.Type
	}
	for _, e := range n.Entities {
		ent := common.CreditedEntity{
			Model:          string(e.Label),
			Name:           e.Name,
			Differentiator: e.Differentiator,
		}
		for _, m := range e.Members {
			ent.Members = append(ent.Members, common.NamedRef{Name: m.Name, Differentiator: m.Differentiator})
		}
		p.Entities = append(p.Entities, ent)
	}
	for _, s := range n.Stagings {
		p.Stagings = append(p.Stagings, common.StagingRef{ID: s.ID})
	}
	for _, w := range n.Works {
		p.Works = append(p.Works, common.NamedRef{Name: w.Name, Differentiator: w.Differentiator})
	}
	return p
}
