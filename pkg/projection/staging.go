package projection

import (
	"context"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

type SurStaging struct {
	graph.NodeRef
	SurStaging *graph.NodeRef `json:"surStaging"`
}

type SubStaging struct {
	graph.NodeRef
	SubStagings []graph.NodeRef `json:"subStagings"`
}

type CastShow struct {
	graph.NodeRef
	Roles []RoleShow `json:"roles"`
}

type StagingShow struct {
	Model           common.Label     `json:"model"`
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Subtitle        string           `json:"subtitle"`
	StartDate       string           `json:"startDate"`
	PressDate       string           `json:"pressDate"`
	EndDate         string           `json:"endDate"`
	Work            *credits.Entity  `json:"work"`
	Venue           *VenueRef        `json:"venue"`
	SurStaging      *SurStaging      `json:"surStaging"`
	SubStagings     []SubStaging     `json:"subStagings"`
	ProducerCredits []credits.Credit `json:"producerCredits"`
	Cast            []CastShow       `json:"cast"`
	CreativeCredits []credits.Credit `json:"creativeCredits"`
	CrewCredits     []credits.Credit `json:"crewCredits"`
	Awards          []awards.Award   `json:"awards"`
}

func (b *Builder) showStaging(ctx context.Context, node store.Node) (*StagingShow, error) {
	show := &StagingShow{
		Model:     node.Label,
		ID:        node.ID,
		Name:      node.Name,
		Subtitle:  node.Props.String(common.PropSubtitle),
		StartDate: node.Props.String(common.PropStartDate),
		PressDate: node.Props.String(common.PropPressDate),
		EndDate:   node.Props.String(common.PropEndDate),
	}

	var (
		channels map[graph.Channel][]graph.NodeRef
		cast     []credits.CastMember
		self     []StagingAtVenue
		roles    roleIndex
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(b.nav.Parallelism())
	eg.Go(func() error {
		var err error
		channels, err = b.nav.Channels(ectx, node.ID, graph.ChannelSur, graph.ChannelSub)
		return err
	})
	eg.Go(func() error {
		var err error
		self, err = b.loadStagings(ectx, []string{node.ID})
		return err
	})
	eg.Go(func() error {
		sc, err := b.agg.StagingCredits(ectx, node.ID)
		if err != nil {
			return err
		}
		show.ProducerCredits = orEmptyCredits(sc.Producer)
		show.CreativeCredits = orEmptyCredits(sc.Creative)
		show.CrewCredits = orEmptyCredits(sc.Crew)
		return nil
	})
	eg.Go(func() error {
		var err error
		cast, err = b.agg.Cast(ectx, node.ID)
		return err
	})
	eg.Go(func() error {
		work, ix, err := b.stagedWork(ectx, node.ID)
		show.Work = work
		roles = ix
		return err
	})
	eg.Go(func() error {
		a, err := b.res.AwardsFor(ectx, node.ID, node.Label, awards.ViewDirect)
		show.Awards = orEmptyAwards(a)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(self) > 0 {
		show.Venue = self[0].Venue
	}
	if sur := refPtr(channels[graph.ChannelSur]); sur != nil {
		surSur, err := b.nav.Neighbors(ctx, sur.ID, graph.ChannelSur)
		if err != nil {
			return nil, err
		}
		show.SurStaging = &SurStaging{NodeRef: *sur, SurStaging: refPtr(surSur)}
	}
	subs := channels[graph.ChannelSub]
	show.SubStagings = make([]SubStaging, 0, len(subs))
	if len(subs) > 0 {
		grand, err := b.nav.NeighborsMany(ctx, refIDs(subs), graph.ChannelSub)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			show.SubStagings = append(show.SubStagings, SubStaging{NodeRef: s, SubStagings: orEmptyRefs(grand[s.ID])})
		}
	}

	show.Cast = make([]CastShow, 0, len(cast))
	for _, m := range cast {
		show.Cast = append(show.Cast, CastShow{NodeRef: m.NodeRef, Roles: roles.showAll(m.Roles)})
	}
	return show, nil
}

// stagedWork resolves the work of a staging and an index of the characters
// it depicts.
func (b *Builder) stagedWork(ctx context.Context, stagingID string) (*credits.Entity, roleIndex, error) {
	edges, err := b.reader().OutEdges(ctx, []string{stagingID}, common.EdgeOfWork)
	if err != nil {
		return nil, nil, err
	}
	if len(edges) == 0 {
		return nil, roleIndex{}, nil
	}
	work, err := b.reader().GetNode(ctx, edges[0].TargetID)
	if err != nil {
		return nil, nil, err
	}
	ents, err := b.workEntities(ctx, []graph.NodeRef{graph.RefOf(work)})
	if err != nil {
		return nil, nil, err
	}

	depEdges, err := b.reader().OutEdges(ctx, []string{work.ID}, common.EdgeDepicts)
	if err != nil {
		return nil, nil, err
	}
	chars, err := b.reader().GetNodes(ctx, store.TargetIDs(depEdges))
	if err != nil {
		return nil, nil, err
	}
	return &ents[0], newRoleIndex(decodeDepictions(depEdges), chars), nil
}

func (b *Builder) stagingPayload(ctx context.Context, node store.Node) (*common.StagingPayload, error) {
	p := &common.StagingPayload{
		Name:      node.Name,
		Subtitle:  node.Props.String(common.PropSubtitle),
		StartDate: node.Props.String(common.PropStartDate),
		PressDate: node.Props.String(common.PropPressDate),
		EndDate:   node.Props.String(common.PropEndDate),
	}

	edges, err := b.reader().OutEdges(ctx, []string{node.ID}, common.EdgeOfWork, common.EdgeStagedAt)
	if err != nil {
		return nil, err
	}
	targets, err := b.reader().GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		t, ok := targets[e.TargetID]
		if !ok {
			continue
		}
		ref := common.NamedRef{Name: t.Name, Differentiator: t.Differentiator}
		switch e.Type {
		case common.EdgeOfWork:
			p.Work = ref
		case common.EdgeStagedAt:
			p.Venue = ref
		}
	}

	subs, err := b.nav.Neighbors(ctx, node.ID, graph.ChannelSub)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		p.SubStagings = append(p.SubStagings, common.StagingRef{ID: s.ID})
	}

	sc, err := b.agg.StagingCredits(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	p.ProducerCredits = stagingCreditPayloads(sc.Producer)
	p.CreativeCredits = stagingCreditPayloads(sc.Creative)
	p.CrewCredits = stagingCreditPayloads(sc.Crew)

	cast, err := b.agg.Cast(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range cast {
		member := common.CastMember{Name: m.Name, Differentiator: m.Differentiator}
		if len(m.Roles) > 0 {
			member.Roles = append([]common.Role{}, m.Roles...)
		}
		p.Cast = append(p.Cast, member)
	}
	return p, nil
}

func stagingCreditPayloads(list []credits.Credit) []common.StagingCredit {
	var out []common.StagingCredit
	for _, c := range list {
		credit := common.StagingCredit{Name: c.Name}
		for _, e := range c.Entities {
			ent := common.CreditedEntity{
				Model:          string(e.Label),
				Name:           e.Name,
				Differentiator: e.Differentiator,
			}
			for _, m := range e.Members {
				ent.Members = append(ent.Members, common.NamedRef{Name: m.Name, Differentiator: m.Differentiator})
			}
			credit.Entities = append(credit.Entities, ent)
		}
		out = append(out, credit)
	}
	return out
}
