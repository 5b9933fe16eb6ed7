package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/hierarchy"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/projection"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// Create validates p and persists a new record of kind. It returns the
// persisted fields as read back from the graph. A rejected write returns
// the submitted fields alongside the *ValidationError.
func (s *Service) Create(ctx context.Context, kind common.Kind, p common.Payload) (projection.EditView, error) {
	return s.write(ctx, kind, "", p)
}

// Update replaces the fields and structural relationships of id.
func (s *Service) Update(ctx context.Context, kind common.Kind, id string, p common.Payload) (projection.EditView, error) {
	if id == "" {
		return projection.EditView{}, ErrNotFound
	}
	return s.write(ctx, kind, id, p)
}

func (s *Service) write(ctx context.Context, kind common.Kind, recordID string, p common.Payload) (projection.EditView, error) {
	op := "create"
	action := common.ActionCreated
	if recordID != "" {
		op = "update"
		action = common.ActionUpdated
	}

	if p == nil || p.Kind() != kind {
		return projection.EditView{}, invalid(common.FieldErrors{"model": {MsgInvalidValue}})
	}
	p.Normalize()

	errs, err := fieldErrors(s.validate, p)
	if err != nil {
		return projection.EditView{}, classify(op, err)
	}
	c := &checks{errs: errs, selfKey: selfKey(p)}
	switch v := p.(type) {
	case *common.WorkPayload:
		c.work(v)
	case *common.StagingPayload:
		c.staging(v)
	case *common.VenuePayload:
		c.venue(v)
	case *common.AwardCeremonyPayload:
		c.ceremony(v)
	}
	if !errs.Empty() {
		rejectedWrites.WithLabelValues(string(kind)).Inc()
		return projection.EditShape(kind.Label(), recordID, p), invalid(errs)
	}

	var node store.Node
	err = s.store.WithTx(ctx, func(ctx context.Context, w store.Writer) error {
		t := &txn{
			w:     w,
			nav:   graph.NewNavigator(w, graph.WithParallelism(1)),
			newID: s.newID,
		}
		if recordID != "" {
			if node, err = load(ctx, w, kind, recordID); err != nil {
				return err
			}
		} else {
			node = store.Node{Label: kind.Label()}
		}

		gerrs, err := t.consistency(ctx, recordID, p)
		if err != nil {
			return err
		}
		if !gerrs.Empty() {
			return invalid(gerrs)
		}

		prune(p)
		return t.persist(ctx, &node, p)
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			rejectedWrites.WithLabelValues(string(kind)).Inc()
			logger.Debug("[Catalog] Rejected write", "kind", kind, "id", recordID, "errors", verr.Errors.String())
			return projection.EditShape(kind.Label(), recordID, p), err
		}
		return projection.EditView{}, s.failed(op, kind, recordID, err)
	}

	logger.Info("[Catalog] Saved", "kind", kind, "id", node.ID, "action", action)
	s.committed(ctx, kind, node.ID, action)

	persisted, err := s.builder(nil).Payload(ctx, node)
	if err != nil {
		return projection.EditView{}, classify(op, err)
	}
	return projection.EditShape(node.Label, node.ID, persisted), nil
}

// selfKey is the identity key the record will have after the write.
func selfKey(p common.Payload) string {
	switch v := p.(type) {
	case *common.WorkPayload:
		return common.NamedRef{Name: v.Name, Differentiator: v.Differentiator}.Key()
	case *common.VenuePayload:
		return common.NamedRef{Name: v.Name, Differentiator: v.Differentiator}.Key()
	}
	return ""
}

func identity(p common.Payload) (name, differentiator string) {
	switch v := p.(type) {
	case *common.WorkPayload:
		return v.Name, v.Differentiator
	case *common.StagingPayload:
		return v.Name, ""
	case *common.VenuePayload:
		return v.Name, v.Differentiator
	case *common.PersonPayload:
		return v.Name, v.Differentiator
	case *common.CompanyPayload:
		return v.Name, v.Differentiator
	case *common.CharacterPayload:
		return v.Name, v.Differentiator
	case *common.AwardPayload:
		return v.Name, v.Differentiator
	case *common.AwardCeremonyPayload:
		return v.Name, ""
	}
	return "", ""
}

// txn carries one write transaction.
type txn struct {
	w     store.Writer
	nav   *graph.Navigator
	newID func() (string, error)
	edges []store.Edge
}

// lookup returns the id of the node with the given identity, or "" when
// there is none.
func (t *txn) lookup(ctx context.Context, label common.Label, r common.NamedRef) (string, error) {
	n, err := t.w.FindNode(ctx, label, r.Name, r.Differentiator)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

func (t *txn) findOrCreate(ctx context.Context, label common.Label, r common.NamedRef) (string, error) {
	id, err := t.lookup(ctx, label, r)
	if err != nil || id != "" {
		return id, err
	}
	if id, err = t.newID(); err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	node := store.Node{ID: id, Label: label, Name: r.Name, Differentiator: r.Differentiator}
	if err := t.w.CreateNode(ctx, node); err != nil {
		return "", err
	}
	return id, nil
}

func (t *txn) edge(typ common.EdgeType, source, target string, pos int, props store.Props) {
	t.edges = append(t.edges, store.Edge{
		Type:     typ,
		SourceID: source,
		TargetID: target,
		Position: pos,
		Props:    props,
	})
}

// consistency runs the checks that need the current graph: identity
// uniqueness, hierarchy rules and references to existing stagings.
func (t *txn) consistency(ctx context.Context, recordID string, p common.Payload) (common.FieldErrors, error) {
	errs := common.FieldErrors{}
	label := p.Kind().Label()
	name, diff := identity(p)

	if label.HasIdentity() {
		existing, err := t.lookup(ctx, label, common.NamedRef{Name: name, Differentiator: diff})
		if err != nil {
			return nil, err
		}
		if existing != "" && existing != recordID {
			errs.Add("name", common.MsgNameDiffExists)
			errs.Add("differentiator", common.MsgNameDiffExists)
		}
	}

	hv := hierarchy.New(t.nav)
	self := selfKey(p)
	switch v := p.(type) {
	case *common.WorkPayload:
		cands, err := t.candidates(ctx, common.LabelWork, "subWorks", v.SubWorks)
		if err != nil {
			return nil, err
		}
		herrs, err := hv.ValidateSubs(ctx, hierarchy.Work, recordID, self, cands)
		if err != nil {
			return nil, err
		}
		errs.Merge(herrs)

		if !v.OriginalVersionWork.IsEmpty() {
			id, err := t.lookup(ctx, common.LabelWork, v.OriginalVersionWork)
			if err != nil {
				return nil, err
			}
			verrs, err := hv.ValidateOriginalVersion(ctx, recordID, self, hierarchy.Candidate{
				Path: "originalVersionWork",
				ID:   id,
				Key:  v.OriginalVersionWork.Key(),
			})
			if err != nil {
				return nil, err
			}
			errs.Merge(verrs)
		}
	case *common.StagingPayload:
		var cands []hierarchy.Candidate
		for i, s := range v.SubStagings {
			if s.IsEmpty() {
				continue
			}
			cands = append(cands, hierarchy.Candidate{
				Path:      common.Path("subStagings", i),
				ID:        s.ID,
				Key:       s.ID,
				MustExist: true,
			})
		}
		herrs, err := hv.ValidateSubs(ctx, hierarchy.Staging, recordID, self, cands)
		if err != nil {
			return nil, err
		}
		errs.Merge(herrs)
	case *common.VenuePayload:
		cands, err := t.candidates(ctx, common.LabelVenue, "subVenues", v.SubVenues)
		if err != nil {
			return nil, err
		}
		herrs, err := hv.ValidateSubs(ctx, hierarchy.Venue, recordID, self, cands)
		if err != nil {
			return nil, err
		}
		errs.Merge(herrs)
	case *common.AwardCeremonyPayload:
		if err := t.ceremonyConsistency(ctx, recordID, v, errs); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

func (t *txn) candidates(ctx context.Context, label common.Label, field string, refs []common.NamedRef) ([]hierarchy.Candidate, error) {
	var out []hierarchy.Candidate
	for i, r := range refs {
		if r.IsEmpty() {
			continue
		}
		id, err := t.lookup(ctx, label, r)
		if err != nil {
			return nil, err
		}
		out = append(out, hierarchy.Candidate{Path: common.Path(field, i), ID: id, Key: r.Key()})
	}
	return out, nil
}

func (t *txn) ceremonyConsistency(ctx context.Context, recordID string, p *common.AwardCeremonyPayload, errs common.FieldErrors) error {
	awardID, err := t.lookup(ctx, common.LabelAward, p.Award)
	if err != nil {
		return err
	}
	if awardID != "" {
		edges, err := t.w.InEdges(ctx, []string{awardID}, common.EdgePresentedAt)
		if err != nil {
			return err
		}
		siblings, err := t.w.GetNodes(ctx, store.SourceIDs(edges))
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID != recordID && sib.Name == p.Name {
				errs.Add("name", MsgCeremonyNameTaken)
				break
			}
		}
	}

	var ids []string
	for _, cat := range p.Categories {
		for _, n := range cat.Nominations {
			for _, s := range n.Stagings {
				if !s.IsEmpty() {
					ids = append(ids, s.ID)
				}
			}
		}
	}
	found, err := t.w.GetNodes(ctx, ids)
	if err != nil {
		return err
	}
	missing := fmt.Sprintf("Production %s", common.MsgDoesNotExist)
	for i, cat := range p.Categories {
		for j, n := range cat.Nominations {
			for k, s := range n.Stagings {
				if s.IsEmpty() {
					continue
				}
				if node, ok := found[s.ID]; !ok || node.Label != common.LabelStaging {
					errs.Add(common.Path("categories", i, "nominations", j, "stagings", k), missing)
				}
			}
		}
	}
	return nil
}

// persist writes the node and replaces its structural edges.
func (t *txn) persist(ctx context.Context, node *store.Node, p common.Payload) error {
	node.Name, node.Differentiator = identity(p)
	node.Props = nodeProps(p)

	if node.ID == "" {
		id, err := t.newID()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}
		node.ID = id
		if err := t.w.CreateNode(ctx, *node); err != nil {
			return nameTaken(err)
		}
	} else {
		if err := t.w.UpdateNode(ctx, *node); err != nil {
			return nameTaken(err)
		}
		if node.Label == common.LabelAwardCeremony {
			if err := deleteCategories(ctx, t.w, node.ID); err != nil {
				return err
			}
		}
		if err := t.w.DeleteOutEdges(ctx, node.ID, common.StructuralEdges(node.Label)...); err != nil {
			return err
		}
	}

	var err error
	switch v := p.(type) {
	case *common.WorkPayload:
		err = t.workEdges(ctx, node.ID, v)
	case *common.StagingPayload:
		err = t.stagingEdges(ctx, node.ID, v)
	case *common.VenuePayload:
		err = t.venueEdges(ctx, node.ID, v)
	case *common.AwardCeremonyPayload:
		err = t.ceremonyEdges(ctx, node.ID, v)
	}
	if err != nil {
		return err
	}
	return t.w.CreateEdges(ctx, t.edges)
}

// nameTaken turns a unique violation raced past the lookup into the same
// field errors the lookup reports.
func nameTaken(err error) error {
	if errors.Is(err, store.ErrUniqueViolation) {
		return invalid(common.FieldErrors{
			"name":           {common.MsgNameDiffExists},
			"differentiator": {common.MsgNameDiffExists},
		})
	}
	return err
}

func nodeProps(p common.Payload) store.Props {
	props := store.Props{}
	set := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}
	switch v := p.(type) {
	case *common.WorkPayload:
		set(common.PropFormat, v.Format)
		if v.Year.Valid {
			props[common.PropYear] = v.Year.Value
		}
	case *common.StagingPayload:
		set(common.PropSubtitle, v.Subtitle)
		set(common.PropStartDate, v.StartDate)
		set(common.PropPressDate, v.PressDate)
		set(common.PropEndDate, v.EndDate)
	}
	return props
}

func entityLabel(model string) common.Label {
	switch common.Label(model) {
	case common.LabelCompany:
		return common.LabelCompany
	case common.LabelWork:
		return common.LabelWork
	}
	return common.LabelPerson
}

func (t *txn) workEdges(ctx context.Context, id string, p *common.WorkPayload) error {
	for i, sub := range p.SubWorks {
		target, err := t.findOrCreate(ctx, common.LabelWork, sub)
		if err != nil {
			return err
		}
		t.edge(common.EdgeComposedOf, id, target, i, nil)
	}

	if !p.OriginalVersionWork.IsEmpty() {
		target, err := t.findOrCreate(ctx, common.LabelWork, p.OriginalVersionWork)
		if err != nil {
			return err
		}
		t.edge(common.EdgeVersionOf, id, target, 0, nil)
	}

	for i, credit := range p.WritingCredits {
		ct := common.ParseCreditType(credit.CreditType)
		for j, e := range credit.Entities {
			target, err := t.findOrCreate(ctx, entityLabel(e.Model), e.Ref())
			if err != nil {
				return err
			}
			t.edge(common.EdgeContributedBy, id, target, i, store.Props{
				common.PropCreditName:     credit.Name,
				common.PropCreditType:     string(ct),
				common.PropEntityPosition: j,
			})
		}
	}

	for i, g := range p.CharacterGroups {
		for j, ch := range g.Characters {
			target, err := t.findOrCreate(ctx, common.LabelCharacter, common.NamedRef{
				Name:           ch.CanonicalName(),
				Differentiator: ch.Differentiator,
			})
			if err != nil {
				return err
			}
			props := store.Props{
				common.PropGroupName:         g.Name,
				common.PropCharacterPosition: j,
				common.PropQualifier:         ch.Qualifier,
			}
			if ch.UnderlyingName != "" && ch.Name != ch.UnderlyingName {
				props[common.PropDisplayName] = ch.Name
			}
			t.edge(common.EdgeDepicts, id, target, i, props)
		}
	}
	return nil
}

func (t *txn) stagingEdges(ctx context.Context, id string, p *common.StagingPayload) error {
	if !p.Work.IsEmpty() {
		target, err := t.findOrCreate(ctx, common.LabelWork, p.Work)
		if err != nil {
			return err
		}
		t.edge(common.EdgeOfWork, id, target, 0, nil)
	}
	if !p.Venue.IsEmpty() {
		target, err := t.findOrCreate(ctx, common.LabelVenue, p.Venue)
		if err != nil {
			return err
		}
		t.edge(common.EdgeStagedAt, id, target, 0, nil)
	}
	for i, sub := range p.SubStagings {
		t.edge(common.EdgeComposedOf, id, sub.ID, i, nil)
	}

	for _, group := range []struct {
		typ  common.EdgeType
		list []common.StagingCredit
	}{
		{common.EdgeProducerEntity, p.ProducerCredits},
		{common.EdgeCreativeEntity, p.CreativeCredits},
		{common.EdgeCrewEntity, p.CrewCredits},
	} {
		for i, credit := range group.list {
			err := t.creditedEntities(ctx, group.typ, id, i, credit.Entities,
				func(j int) store.Props {
					return store.Props{common.PropCreditName: credit.Name, common.PropEntityPosition: j}
				}, common.PropCreditedCompanyID)
			if err != nil {
				return err
			}
		}
	}

	for i, m := range p.Cast {
		target, err := t.findOrCreate(ctx, common.LabelPerson, m.Ref())
		if err != nil {
			return err
		}
		var props store.Props
		if len(m.Roles) > 0 {
			props = store.Props{common.PropRoles: m.Roles}
		}
		t.edge(common.EdgeCastMember, id, target, i, props)
	}
	return nil
}

// creditedEntities writes one edge per entity and one per company member.
// Member edges share the entity's props plus the company id under
// companyKey and their member position.
func (t *txn) creditedEntities(
	ctx context.Context,
	typ common.EdgeType,
	source string,
	pos int,
	list []common.CreditedEntity,
	base func(j int) store.Props,
	companyKey string,
) error {
	for j, e := range list {
		label := common.LabelPerson
		if e.IsCompany() {
			label = common.LabelCompany
		}
		target, err := t.findOrCreate(ctx, label, e.Ref())
		if err != nil {
			return err
		}
		t.edge(typ, source, target, pos, base(j))
		if label != common.LabelCompany {
			continue
		}
		for k, m := range e.Members {
			member, err := t.findOrCreate(ctx, common.LabelPerson, m)
			if err != nil {
				return err
			}
			props := base(j)
			props[companyKey] = target
			props[common.PropMemberPosition] = k
			t.edge(typ, source, member, pos, props)
		}
	}
	return nil
}

func (t *txn) venueEdges(ctx context.Context, id string, p *common.VenuePayload) error {
	for i, sub := range p.SubVenues {
		target, err := t.findOrCreate(ctx, common.LabelVenue, sub)
		if err != nil {
			return err
		}
		t.edge(common.EdgeComposedOf, id, target, i, nil)
	}
	return nil
}

// CategoryID is the id of the category at position pos of a ceremony.
func CategoryID(ceremonyID string, pos int) string {
	return fmt.Sprintf("%s-c%d", ceremonyID, pos)
}

func (t *txn) ceremonyEdges(ctx context.Context, id string, p *common.AwardCeremonyPayload) error {
	awardID, err := t.findOrCreate(ctx, common.LabelAward, p.Award)
	if err != nil {
		return err
	}
	t.edge(common.EdgePresentedAt, id, awardID, 0, nil)

	for i, cat := range p.Categories {
		catID := CategoryID(id, i)
		err := t.w.CreateNode(ctx, store.Node{ID: catID, Label: common.LabelAwardCeremonyCategory, Name: cat.Name})
		if err != nil {
			return err
		}
		t.edge(common.EdgePresentsCategory, id, catID, i, nil)

		for j, n := range cat.Nominations {
			nomination := func(int) store.Props {
				props := store.Props{
					common.PropNominationPosition: j,
					common.PropIsWinner:           n.IsWinner,
				}
				if n.CustomType != "" {
					props[common.PropCustomType] = n.CustomType
				}
				return props
			}
			for k, e := range n.Entities {
				err := t.creditedEntities(ctx, common.EdgeHasNominee, catID, k, []common.CreditedEntity{e},
					nomination, common.PropNominatedCompanyID)
				if err != nil {
					return err
				}
			}
			for k, s := range n.Stagings {
				t.edge(common.EdgeHasNominee, catID, s.ID, k, nomination(k))
			}
			for k, w := range n.Works {
				target, err := t.findOrCreate(ctx, common.LabelWork, w)
				if err != nil {
					return err
				}
				t.edge(common.EdgeHasNominee, catID, target, k, nomination(k))
			}
		}
	}
	return nil
}
