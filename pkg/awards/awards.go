// Package awards resolves the award nominations a subject is exposed to.
package awards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

var ErrUnsupportedView = errors.New("awards: view does not apply to this kind")

// Resolver combines the navigator and credit aggregator. It keeps no
// request state.
type Resolver struct {
	nav *graph.Navigator
	agg *credits.Aggregator
}

func New(nav *graph.Navigator) *Resolver {
	return &Resolver{nav: nav, agg: credits.New(nav)}
}

// match is a nomination reached through a member of an exposure set.
type match struct {
	key       NominationKey
	recipient graph.Member
	edge      store.Edge
}

// Exposure computes the exposure set of a subject for one view.
func (r *Resolver) Exposure(ctx context.Context, id string, label common.Label, view View) (*graph.ExposureSet, error) {
	switch label {
	case common.LabelWork:
		switch view {
		case ViewDirect:
			return r.nav.AssociatedSet(ctx, id)
		case ViewSubsequentVersion:
			return r.nav.SubsequentVersionSet(ctx, id)
		case ViewSourcing:
			return r.nav.SourcingSet(ctx, id)
		}
	case common.LabelStaging:
		if view == ViewDirect {
			return r.nav.AssociatedSet(ctx, id)
		}
	case common.LabelPerson, common.LabelCompany:
		switch view {
		case ViewDirect:
			node, err := r.nav.Reader().GetNode(ctx, id)
			if err != nil {
				return nil, err
			}
			set := graph.NewExposureSet()
			set.Add(graph.RefOf(node), graph.RoleSubject, id)
			return set, nil
		case ViewSubsequentVersion:
			return r.nav.EntitySubsequentVersionSet(ctx, id)
		case ViewSourcing:
			return r.nav.EntitySourcingSet(ctx, id)
		case ViewRightsGrantor:
			return r.nav.RightsGrantorSet(ctx, id)
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedView, label, view)
}

// AwardsFor returns the awards the subject is exposed to through one view.
func (r *Resolver) AwardsFor(ctx context.Context, id string, label common.Label, view View) ([]Award, error) {
	start := time.Now()
	awards, err := r.awardsFor(ctx, id, label, view)
	recordResolution(view, start, err)
	if err != nil {
		return nil, err
	}
	recordNominations(view, CountNominations(awards))
	return awards, nil
}

func (r *Resolver) awardsFor(ctx context.Context, id string, label common.Label, view View) ([]Award, error) {
	set, err := r.Exposure(ctx, id, label, view)
	if err != nil {
		return nil, err
	}
	matches, err := r.matches(ctx, set)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, matches)
}

// AwardsForViews resolves several views concurrently. Each view is
// deduplicated on its own, so a nomination reached through two views is
// listed under both.
func (r *Resolver) AwardsForViews(ctx context.Context, id string, label common.Label, views ...View) (map[View][]Award, error) {
	start := time.Now()
	perView := make([][]match, len(views))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(r.nav.Parallelism())
	for i := range views {
		idx := i
		view := views[i]
		eg.Go(func() error {
			set, err := r.Exposure(ectx, id, label, view)
			if err != nil {
				return err
			}
			m, err := r.matches(ectx, set)
			if err != nil {
				return err
			}
			perView[idx] = m
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, v := range views {
			recordResolution(v, start, err)
		}
		return nil, err
	}

	results := make([][]Award, len(views))
	eg, ectx = errgroup.WithContext(ctx)
	eg.SetLimit(r.nav.Parallelism())
	for i := range views {
		idx := i
		eg.Go(func() error {
			a, err := r.build(ectx, perView[idx])
			if err != nil {
				return err
			}
			results[idx] = a
			return nil
		})
	}
	err := eg.Wait()

	out := make(map[View][]Award, len(views))
	for i, v := range views {
		recordResolution(v, start, err)
		if err == nil {
			out[v] = results[i]
			recordNominations(v, CountNominations(results[i]))
		}
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("[Awards] Resolved views", "id", id, "views", len(views))
	return out, nil
}

// matches finds every nomination naming a member of set. A nomination is
// kept once; its recipient is the member with the lowest priority.
func (r *Resolver) matches(ctx context.Context, set *graph.ExposureSet) ([]match, error) {
	if set.Len() == 0 {
		return nil, nil
	}
	edges, err := r.nav.Reader().InEdges(ctx, set.IDs(), common.EdgeHasNominee)
	if err != nil {
		return nil, fmt.Errorf("failed to load nominations: %w", err)
	}

	best := make(map[NominationKey]match)
	var order []NominationKey
	for _, e := range edges {
		member, ok := set.Get(e.TargetID)
		if !ok {
			continue
		}
		key := NominationKey{CategoryID: e.SourceID, Position: e.Props.Int(common.PropNominationPosition)}
		cur, exists := best[key]
		if !exists {
			order = append(order, key)
			best[key] = match{key: key, recipient: member, edge: e}
			continue
		}
		if member.Priority < cur.recipient.Priority ||
			(member.Priority == cur.recipient.Priority && isMemberEdge(cur.edge) && !isMemberEdge(e)) {
			best[key] = match{key: key, recipient: member, edge: e}
		}
	}

	out := make([]match, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out, nil
}

func isMemberEdge(e store.Edge) bool {
	return e.Props.String(common.PropNominatedCompanyID) != ""
}

// awardTree holds the award structure of the matched categories.
type awardTree struct {
	nodes          map[string]store.Node
	categoryPos    map[string]int
	ceremonyOf     map[string]string
	awardOf        map[string]string
	nomineeEdges   map[NominationKey][]store.Edge
	stagingVenue   map[string]graph.NodeRef
	stagingSur     map[string][]graph.NodeRef
	workSur        map[string][]graph.NodeRef
	writingCredits map[string][]credits.Credit
}

// build assembles award trees for matches.
func (r *Resolver) build(ctx context.Context, matches []match) ([]Award, error) {
	if len(matches) == 0 {
		return []Award{}, nil
	}
	var categoryIDs []string
	for _, m := range matches {
		categoryIDs = append(categoryIDs, m.key.CategoryID)
	}
	tree, err := r.loadTree(ctx, matches, categoryIDs)
	if err != nil {
		return nil, err
	}
	return assemble(tree, matches), nil
}

// CeremonyCategories returns every category of a ceremony in position order
// with all of its nominations. No nominee is treated as a recipient.
func (r *Resolver) CeremonyCategories(ctx context.Context, ceremonyID string) ([]Category, error) {
	reader := r.nav.Reader()
	categoryEdges, err := reader.OutEdges(ctx, []string{ceremonyID}, common.EdgePresentsCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	categoryIDs := store.TargetIDs(categoryEdges)
	nomineeEdges, err := reader.OutEdges(ctx, categoryIDs, common.EdgeHasNominee)
	if err != nil {
		return nil, fmt.Errorf("failed to load nominations: %w", err)
	}

	var matches []match
	seen := make(map[NominationKey]struct{})
	for _, e := range nomineeEdges {
		key := NominationKey{CategoryID: e.SourceID, Position: e.Props.Int(common.PropNominationPosition)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		matches = append(matches, match{key: key, edge: e})
	}

	tree, err := r.loadTree(ctx, matches, categoryIDs)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]Nomination)
	for _, m := range matches {
		if nom, ok := buildNomination(tree, m); ok {
			byCategory[m.key.CategoryID] = append(byCategory[m.key.CategoryID], nom)
		}
	}

	out := make([]Category, 0, len(categoryEdges))
	for _, e := range categoryEdges {
		node, ok := tree.nodes[e.TargetID]
		if !ok {
			continue
		}
		ref := graph.RefOf(node)
		ref.Position = e.Position
		noms := byCategory[e.TargetID]
		if noms == nil {
			noms = []Nomination{}
		}
		sort.SliceStable(noms, func(i, j int) bool { return noms[i].Position < noms[j].Position })
		out = append(out, Category{NodeRef: ref, Nominations: noms})
	}
	return out, nil
}

// loadTree loads the award structure around categoryIDs and the detail of
// every nominee in matches.
func (r *Resolver) loadTree(ctx context.Context, matches []match, categoryIDs []string) (*awardTree, error) {
	reader := r.nav.Reader()
	categoryIDs = store.DedupeStrings(categoryIDs)

	var (
		nomineeEdges  []store.Edge
		ceremonyEdges []store.Edge
		awardEdges    []store.Edge
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(r.nav.Parallelism())
	eg.Go(func() error {
		var err error
		nomineeEdges, err = reader.OutEdges(ectx, categoryIDs, common.EdgeHasNominee)
		return err
	})
	eg.Go(func() error {
		var err error
		ceremonyEdges, err = reader.InEdges(ectx, categoryIDs, common.EdgePresentsCategory)
		if err != nil {
			return err
		}
		awardEdges, err = reader.OutEdges(ectx, store.SourceIDs(ceremonyEdges), common.EdgePresentedAt)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load award structure: %w", err)
	}

	tree := &awardTree{
		categoryPos:  make(map[string]int),
		ceremonyOf:   make(map[string]string),
		awardOf:      make(map[string]string),
		nomineeEdges: make(map[NominationKey][]store.Edge),
	}
	for _, e := range ceremonyEdges {
		tree.ceremonyOf[e.TargetID] = e.SourceID
		tree.categoryPos[e.TargetID] = e.Position
	}
	for _, e := range awardEdges {
		tree.awardOf[e.SourceID] = e.TargetID
	}

	wanted := make(map[NominationKey]struct{}, len(matches))
	for _, m := range matches {
		wanted[m.key] = struct{}{}
	}
	lookup := append([]string{}, categoryIDs...)
	for _, e := range nomineeEdges {
		key := NominationKey{CategoryID: e.SourceID, Position: e.Props.Int(common.PropNominationPosition)}
		if _, ok := wanted[key]; !ok {
			continue
		}
		tree.nomineeEdges[key] = append(tree.nomineeEdges[key], e)
		lookup = append(lookup, e.TargetID, e.Props.String(common.PropNominatedCompanyID))
	}
	lookup = append(lookup, store.SourceIDs(ceremonyEdges)...)
	lookup = append(lookup, store.TargetIDs(awardEdges)...)

	nodes, err := reader.GetNodes(ctx, lookup)
	if err != nil {
		return nil, err
	}
	tree.nodes = nodes

	if err := r.loadDetails(ctx, tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// loadDetails fans out the four co-nominee detail batches.
func (r *Resolver) loadDetails(ctx context.Context, tree *awardTree) error {
	var stagingIDs, workIDs []string
	for _, edges := range tree.nomineeEdges {
		for _, e := range edges {
			switch tree.nodes[e.TargetID].Label {
			case common.LabelStaging:
				stagingIDs = append(stagingIDs, e.TargetID)
			case common.LabelWork:
				workIDs = append(workIDs, e.TargetID)
			}
		}
	}
	stagingIDs = store.DedupeStrings(stagingIDs)
	workIDs = store.DedupeStrings(workIDs)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(r.nav.Parallelism())
	eg.Go(func() error {
		venues, err := r.stagingVenues(ectx, stagingIDs)
		tree.stagingVenue = venues
		return err
	})
	eg.Go(func() error {
		var err error
		tree.stagingSur, err = r.nav.NeighborsMany(ectx, stagingIDs, graph.ChannelSur)
		return err
	})
	eg.Go(func() error {
		var err error
		tree.workSur, err = r.nav.NeighborsMany(ectx, workIDs, graph.ChannelSur)
		return err
	})
	eg.Go(func() error {
		var err error
		tree.writingCredits, err = r.agg.WritingCreditsMany(ectx, workIDs)
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load nominee details: %w", err)
	}
	return nil
}

func (r *Resolver) stagingVenues(ctx context.Context, stagingIDs []string) (map[string]graph.NodeRef, error) {
	out := make(map[string]graph.NodeRef)
	if len(stagingIDs) == 0 {
		return out, nil
	}
	edges, err := r.nav.Reader().OutEdges(ctx, stagingIDs, common.EdgeStagedAt)
	if err != nil {
		return nil, err
	}
	venues, err := r.nav.Reader().GetNodes(ctx, store.TargetIDs(edges))
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if v, ok := venues[e.TargetID]; ok {
			if _, dup := out[e.SourceID]; !dup {
				out[e.SourceID] = graph.RefOf(v)
			}
		}
	}
	return out, nil
}

func assemble(tree *awardTree, matches []match) []Award {
	awards := make(map[string]*Award)
	ceremonies := make(map[string]*Ceremony)
	categories := make(map[string]*Category)
	var awardOrder []string
	ceremonyOrder := make(map[string][]string)
	categoryOrder := make(map[string][]string)

	for _, m := range matches {
		catID := m.key.CategoryID
		cerID, ok := tree.ceremonyOf[catID]
		if !ok {
			continue
		}
		awardID, ok := tree.awardOf[cerID]
		if !ok {
			logger.Debug("[Awards] Ceremony without award", "id", cerID)
			continue
		}
		awardNode, ok1 := tree.nodes[awardID]
		cerNode, ok2 := tree.nodes[cerID]
		catNode, ok3 := tree.nodes[catID]
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		if _, ok := awards[awardID]; !ok {
			awards[awardID] = &Award{NodeRef: graph.RefOf(awardNode)}
			awardOrder = append(awardOrder, awardID)
		}
		if _, ok := ceremonies[cerID]; !ok {
			ceremonies[cerID] = &Ceremony{NodeRef: graph.RefOf(cerNode)}
			ceremonyOrder[awardID] = append(ceremonyOrder[awardID], cerID)
		}
		if _, ok := categories[catID]; !ok {
			ref := graph.RefOf(catNode)
			ref.Position = tree.categoryPos[catID]
			categories[catID] = &Category{NodeRef: ref}
			categoryOrder[cerID] = append(categoryOrder[cerID], catID)
		}

		nom, ok := buildNomination(tree, m)
		if ok {
			categories[catID].Nominations = append(categories[catID].Nominations, nom)
		}
	}

	sort.Slice(awardOrder, func(i, j int) bool {
		a, b := awards[awardOrder[i]], awards[awardOrder[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	out := make([]Award, 0, len(awardOrder))
	for _, awardID := range awardOrder {
		award := awards[awardID]
		cerIDs := ceremonyOrder[awardID]
		sort.Slice(cerIDs, func(i, j int) bool {
			a, b := ceremonies[cerIDs[i]], ceremonies[cerIDs[j]]
			if a.Name != b.Name {
				return a.Name > b.Name
			}
			return a.ID < b.ID
		})
		for _, cerID := range cerIDs {
			cer := ceremonies[cerID]
			catIDs := categoryOrder[cerID]
			sort.Slice(catIDs, func(i, j int) bool {
				a, b := categories[catIDs[i]], categories[catIDs[j]]
				if a.Position != b.Position {
					return a.Position < b.Position
				}
				return a.ID < b.ID
			})
			for _, catID := range catIDs {
				cat := categories[catID]
				sort.SliceStable(cat.Nominations, func(i, j int) bool {
					return cat.Nominations[i].Position < cat.Nominations[j].Position
				})
				cer.Categories = append(cer.Categories, *cat)
			}
			award.Ceremonies = append(award.Ceremonies, *cer)
		}
		out = append(out, *award)
	}
	return out
}

// buildNomination splits the nominee edges of one nomination by kind and
// removes the recipient from the co-nominees.
func buildNomination(tree *awardTree, m match) (Nomination, bool) {
	edges := tree.nomineeEdges[m.key]
	if len(edges) == 0 {
		return Nomination{}, false
	}

	isWinner := m.edge.Props.Bool(common.PropIsWinner)
	nom := Nomination{
		Position: m.key.Position,
		IsWinner: isWinner,
		Type:     NominationType(m.edge.Props.String(common.PropCustomType), isWinner),
		Entities: []Nominee{},
		Stagings: []Nominee{},
		Works:    []Nominee{},
	}

	recipientID := m.recipient.ID
	if node, ok := tree.nodes[recipientID]; ok {
		rec := tree.nominee(node)
		rec.Roles = m.recipient.Roles
		nom.Recipient = &rec
	}

	sorted := make([]store.Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].TargetID < sorted[j].TargetID
	})

	var members []store.Edge
	for _, e := range sorted {
		if isMemberEdge(e) {
			members = append(members, e)
			continue
		}
		if e.TargetID == recipientID {
			continue
		}
		node, ok := tree.nodes[e.TargetID]
		if !ok {
			continue
		}
		n := tree.nominee(node)
		switch node.Label {
		case common.LabelPerson, common.LabelCompany:
			nom.Entities = append(nom.Entities, n)
		case common.LabelStaging:
			nom.Stagings = append(nom.Stagings, n)
		case common.LabelWork:
			nom.Works = append(nom.Works, n)
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Props.Int(common.PropMemberPosition) < members[j].Props.Int(common.PropMemberPosition)
	})
	for _, e := range members {
		if e.TargetID == recipientID {
			continue
		}
		node, ok := tree.nodes[e.TargetID]
		if !ok {
			continue
		}
		companyID := e.Props.String(common.PropNominatedCompanyID)
		attached := false
		for i := range nom.Entities {
			if nom.Entities[i].ID == companyID {
				nom.Entities[i].Members = append(nom.Entities[i].Members, graph.RefOf(node))
				attached = true
			}
		}
		if !attached && nom.Recipient != nil && nom.Recipient.ID == companyID {
			nom.Recipient.Members = append(nom.Recipient.Members, graph.RefOf(node))
		}
	}
	return nom, true
}

func (t *awardTree) nominee(node store.Node) Nominee {
	n := Nominee{NodeRef: graph.RefOf(node)}
	switch node.Label {
	case common.LabelStaging:
		if v, ok := t.stagingVenue[node.ID]; ok {
			venue := v
			n.Venue = &venue
		}
		if s := t.stagingSur[node.ID]; len(s) > 0 {
			sur := s[0]
			n.SurStaging = &sur
		}
	case common.LabelWork:
		if s := t.workSur[node.ID]; len(s) > 0 {
			sur := s[0]
			n.SurWork = &sur
		}
		n.WritingCredits = t.writingCredits[node.ID]
	}
	return n
}
