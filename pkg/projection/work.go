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

// SurWork is a work's sur-work with its own sur-work.
type SurWork struct {
	graph.NodeRef
	SurWork *graph.NodeRef `json:"surWork"`
}

// SubWork is a sub-work with its own sub-works.
type SubWork struct {
	graph.NodeRef
	SubWorks []graph.NodeRef `json:"subWorks"`
}

type WorkShow struct {
	Model                       common.Label     `json:"model"`
	ID                          string           `json:"id"`
	Name                        string           `json:"name"`
	Differentiator              string           `json:"differentiator"`
	Format                      string           `json:"format"`
	Year                        *int             `json:"year"`
	SurWork                     *SurWork         `json:"surWork"`
	SubWorks                    []SubWork        `json:"subWorks"`
	OriginalVersionWork         *credits.Entity  `json:"originalVersionWork"`
	SubsequentVersionWorks      []credits.Entity `json:"subsequentVersionWorks"`
	SourcingWorks               []credits.Entity `json:"sourcingWorks"`
	WritingCredits              []credits.Credit `json:"writingCredits"`
	CharacterGroups             []CharacterGroup `json:"characterGroups"`
	Stagings                    []StagingAtVenue `json:"stagings"`
	Awards                      []awards.Award   `json:"awards"`
	SubsequentVersionWorkAwards []awards.Award   `json:"subsequentVersionWorkAwards"`
	SourcingWorkAwards          []awards.Award   `json:"sourcingWorkAwards"`
}

func (b *Builder) showWork(ctx context.Context, node store.Node) (*WorkShow, error) {
	show := &WorkShow{
		Model:          node.Label,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
		Format:         node.Props.String(common.PropFormat),
	}
	if y, ok := node.Props.OptInt(common.PropYear); ok {
		show.Year = &y
	}

	var channels map[graph.Channel][]graph.NodeRef
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(b.nav.Parallelism())
	eg.Go(func() error {
		var err error
		channels, err = b.nav.Channels(ectx, node.ID,
			graph.ChannelSur, graph.ChannelSub, graph.ChannelVersionOriginal,
			graph.ChannelVersionSubsequent, graph.ChannelSourcedBy)
		return err
	})
	eg.Go(func() error {
		wc, err := b.agg.WritingCredits(ectx, node.ID)
		show.WritingCredits = orEmptyCredits(wc)
		return err
	})
	eg.Go(func() error {
		var err error
		show.CharacterGroups, err = b.workCharacterGroups(ectx, node.ID)
		return err
	})
	eg.Go(func() error {
		edges, err := b.reader().InEdges(ectx, []string{node.ID}, common.EdgeOfWork)
		if err != nil {
			return err
		}
		show.Stagings, err = b.loadStagings(ectx, store.SourceIDs(edges))
		return err
	})
	eg.Go(func() error {
		views, err := b.res.AwardsForViews(ectx, node.ID, node.Label, awards.ViewsFor(node.Label)...)
		if err != nil {
			return err
		}
		show.Awards = orEmptyAwards(views[awards.ViewDirect])
		show.SubsequentVersionWorkAwards = orEmptyAwards(views[awards.ViewSubsequentVersion])
		show.SourcingWorkAwards = orEmptyAwards(views[awards.ViewSourcing])
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if sur := refPtr(channels[graph.ChannelSur]); sur != nil {
		surSur, err := b.nav.Neighbors(ctx, sur.ID, graph.ChannelSur)
		if err != nil {
			return nil, err
		}
		show.SurWork = &SurWork{NodeRef: *sur, SurWork: refPtr(surSur)}
	}

	subs := channels[graph.ChannelSub]
	show.SubWorks = make([]SubWork, 0, len(subs))
	if len(subs) > 0 {
		grand, err := b.nav.NeighborsMany(ctx, refIDs(subs), graph.ChannelSub)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			show.SubWorks = append(show.SubWorks, SubWork{NodeRef: s, SubWorks: orEmptyRefs(grand[s.ID])})
		}
	}

	versions, err := b.workEntities(ctx, channels[graph.ChannelVersionOriginal])
	if err != nil {
		return nil, err
	}
	if len(versions) > 0 {
		show.OriginalVersionWork = &versions[0]
	}
	if show.SubsequentVersionWorks, err = b.workEntities(ctx, channels[graph.ChannelVersionSubsequent]); err != nil {
		return nil, err
	}
	if show.SourcingWorks, err = b.workEntities(ctx, channels[graph.ChannelSourcedBy]); err != nil {
		return nil, err
	}
	return show, nil
}

func (b *Builder) workCharacterGroups(ctx context.Context, workID string) ([]CharacterGroup, error) {
	edges, err := b.reader().OutEdges(ctx, []string{workID}, common.EdgeDepicts)
	if err != nil {
		return nil, err
	}
	nodes, err := b.reader().GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, err
	}
	return characterGroups(decodeDepictions(edges), nodes), nil
}

func refIDs(refs []graph.NodeRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func (b *Builder) workPayload(ctx context.Context, node store.Node) (*common.WorkPayload, error) {
	p := &common.WorkPayload{
		Name:           node.Name,
		Differentiator: node.Differentiator,
		Format:         node.Props.String(common.PropFormat),
	}
	if y, ok := node.Props.OptInt(common.PropYear); ok {
		p.Year = common.IntOf(y)
	}

	chans, err := b.nav.Channels(ctx, node.ID, graph.ChannelSub, graph.ChannelVersionOriginal)
	if err != nil {
		return nil, err
	}
	if orig := refPtr(chans[graph.ChannelVersionOriginal]); orig != nil {
		p.OriginalVersionWork = common.NamedRef{Name: orig.Name, Differentiator: orig.Differentiator}
	}
	for _, s := range chans[graph.ChannelSub] {
		p.SubWorks = append(p.SubWorks, common.NamedRef{Name: s.Name, Differentiator: s.Differentiator})
	}

	wc, err := b.agg.WritingCredits(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range wc {
		credit := common.WritingCredit{Name: c.Name, CreditType: string(c.CreditType)}
		for _, e := range c.Entities {
			credit.Entities = append(credit.Entities, common.WritingEntity{
				Model:          string(e.Label),
				Name:           e.Name,
				Differentiator: e.Differentiator,
			})
		}
		p.WritingCredits = append(p.WritingCredits, credit)
	}

	edges, err := b.reader().OutEdges(ctx, []string{node.ID}, common.EdgeDepicts)
	if err != nil {
		return nil, err
	}
	nodes, err := b.reader().GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, err
	}
	for _, g := range characterGroups(decodeDepictions(edges), nodes) {
		group := common.CharacterGroup{Name: g.Name}
		for _, c := range g.Characters {
			d := common.CharacterDepiction{
				Name:           c.Name,
				Differentiator: c.Differentiator,
				Qualifier:      c.Qualifier,
			}
			if c.UnderlyingName != nil {
				d.UnderlyingName = *c.UnderlyingName
			}
			group.Characters = append(group.Characters, d)
		}
		p.CharacterGroups = append(p.CharacterGroups, group)
	}
	return p, nil
}
