package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/awards"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/projection"
	"github.com/OFFIS-RIT/dramatis/pkg/store/sqlite"
	"github.com/OFFIS-RIT/dramatis/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []common.ChangeEvent
}

func (r *recorder) Notify(_ context.Context, e common.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func seqIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id%03d", n), nil
	}
}

func newService(t *testing.T, opts ...Option) (*Service, *sqlite.Storage) {
	t.Helper()
	st := storetest.Open(t, nil)
	opts = append([]Option{WithIDs(seqIDs())}, opts...)
	return New(st, opts...), st
}

func hamlet() *common.WorkPayload {
	return &common.WorkPayload{
		Name:                "Hamlet",
		Differentiator:      "1",
		Format:              "play",
		Year:                common.IntOf(1600),
		OriginalVersionWork: common.NamedRef{Name: "Ur-Hamlet"},
		WritingCredits: []common.WritingCredit{
			{Name: "by", CreditType: "WRITER", Entities: []common.WritingEntity{
				{Model: "PERSON", Name: "William Shakespeare"},
				{Model: "COMPANY", Name: "Globe Co"},
			}},
			{Name: "based on", CreditType: "WRITER", Entities: []common.WritingEntity{
				{Model: "WORK", Name: "Amleth"},
			}},
		},
		SubWorks: []common.NamedRef{{Name: "Act One"}},
		CharacterGroups: []common.CharacterGroup{{
			Name: "Danes",
			Characters: []common.CharacterDepiction{
				{Name: "Hamlet", Qualifier: "young"},
				{Name: "The Queen", UnderlyingName: "Gertrude"},
			},
		}},
	}
}

func production() *common.StagingPayload {
	return &common.StagingPayload{
		Name:      "Hamlet",
		StartDate: "2020-01-01",
		EndDate:   "2020-02-01",
		Work:      common.NamedRef{Name: "Hamlet", Differentiator: "1"},
		Venue:     common.NamedRef{Name: "Globe"},
		ProducerCredits: []common.StagingCredit{{
			Name: "produced by",
			Entities: []common.CreditedEntity{
				{Model: "COMPANY", Name: "Prod Co", Members: []common.NamedRef{{Name: "Pat"}}},
				{Model: "PERSON", Name: "Sam"},
			},
		}},
		Cast: []common.CastMember{{
			Name:  "Dan",
			Roles: []common.Role{{Name: "Hamlet", CharacterName: "Hamlet"}},
		}},
	}
}

func fieldErrs(t *testing.T, err error) common.FieldErrors {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Errors
}

func nodeID(t *testing.T, st *sqlite.Storage, label common.Label, name string) string {
	t.Helper()
	n, err := st.FindNode(context.Background(), label, name, "")
	require.NoError(t, err)
	return n.ID
}

func TestWorkRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	assert.Equal(t, common.LabelWork, created.Model)
	assert.Equal(t, hamlet(), created.Payload)

	edit, err := svc.Edit(ctx, common.KindWork, created.ID)
	require.NoError(t, err)
	w := edit.Payload.(*common.WorkPayload)
	require.Len(t, w.WritingCredits, 3, "two stored credits plus the template")
	assert.Len(t, w.WritingCredits[0].Entities, 3)
	assert.Equal(t, "Gertrude", w.CharacterGroups[0].Characters[1].UnderlyingName)
	assert.Len(t, w.SubWorks, 2)
}

func TestStagingRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	created, err := svc.Create(ctx, common.KindStaging, production())
	require.NoError(t, err)
	assert.Equal(t, production(), created.Payload)

	raw, err := created.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"crewCredits":null`, "unpadded persisted fields")

	edit, err := svc.Edit(ctx, common.KindStaging, created.ID)
	require.NoError(t, err)
	raw, err = edit.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null", "edit shape never carries null")
}

func TestUpdateIsIdempotent(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	nodes, edges := storetest.Counts(t, st)

	for i := 0; i < 2; i++ {
		updated, err := svc.Update(ctx, common.KindWork, created.ID, hamlet())
		require.NoError(t, err)
		assert.Equal(t, hamlet(), updated.Payload)
		n, e := storetest.Counts(t, st)
		assert.Equal(t, nodes, n)
		assert.Equal(t, edges, e)
	}
}

func TestUpdateReplacesStructure(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)

	p := hamlet()
	p.WritingCredits = nil
	p.SubWorks = nil
	updated, err := svc.Update(ctx, common.KindWork, created.ID, p)
	require.NoError(t, err)
	w := updated.Payload.(*common.WorkPayload)
	assert.Empty(t, w.WritingCredits)
	assert.Empty(t, w.SubWorks)

	out, err := st.OutEdges(ctx, []string{created.ID}, common.EdgeContributedBy, common.EdgeComposedOf)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBlankRowsArePruned(t *testing.T) {
	svc, _ := newService(t)
	p := hamlet()
	p.SubWorks = append(p.SubWorks, common.NamedRef{})
	p.WritingCredits = append(p.WritingCredits, common.WritingCredit{Name: "adapted by"})
	p.CharacterGroups[0].Characters = append(p.CharacterGroups[0].Characters, common.CharacterDepiction{})

	created, err := svc.Create(context.Background(), common.KindWork, p)
	require.NoError(t, err)
	assert.Equal(t, hamlet(), created.Payload, "empty credit and blank rows are not stored")
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *common.WorkPayload)
		want   map[string]string
	}{
		{
			name:   "missing name",
			mutate: func(p *common.WorkPayload) { p.Name = "  " },
			want:   map[string]string{"name": common.MsgTooShort},
		},
		{
			name:   "name too long",
			mutate: func(p *common.WorkPayload) { p.Name = strings.Repeat("x", 1001) },
			want:   map[string]string{"name": common.MsgTooLong},
		},
		{
			name:   "unknown credit type",
			mutate: func(p *common.WorkPayload) { p.WritingCredits[0].CreditType = "EDITOR" },
			want:   map[string]string{"writingCredits.0.creditType": "Value must be one of WRITER, RIGHTS_GRANTOR"},
		},
		{
			name: "duplicate credited entity",
			mutate: func(p *common.WorkPayload) {
				p.WritingCredits[0].Entities[1] = common.WritingEntity{Model: "PERSON", Name: "William Shakespeare"}
			},
			want: map[string]string{
				"writingCredits.0.entities.0": common.MsgDuplicateInList,
				"writingCredits.0.entities.1": common.MsgDuplicateInList,
			},
		},
		{
			name: "work credits itself",
			mutate: func(p *common.WorkPayload) {
				p.WritingCredits[1].Entities[0] = common.WritingEntity{Model: "WORK", Name: "Hamlet", Differentiator: "1"}
			},
			want: map[string]string{"writingCredits.1.entities.0": common.MsgSelfAssociation},
		},
		{
			name:   "differentiator without name",
			mutate: func(p *common.WorkPayload) { p.SubWorks = []common.NamedRef{{}, {Differentiator: "2"}} },
			want:   map[string]string{"subWorks.1.name": common.MsgTooShort},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newService(t)
			p := hamlet()
			tt.mutate(p)
			_, err := svc.Create(context.Background(), common.KindWork, p)
			errs := fieldErrs(t, err)
			for path, msg := range tt.want {
				assert.Contains(t, errs[path], msg, path)
			}
			nodes, edges := storetest.Counts(t, st)
			assert.Zero(t, nodes)
			assert.Zero(t, edges)
		})
	}
}

func TestHierarchyFailureLeavesGraphUntouched(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Scene", SubWorks: nil})
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Act", SubWorks: []common.NamedRef{{Name: "Scene"}}})
	require.NoError(t, err)
	cycle, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Cycle", SubWorks: []common.NamedRef{{Name: "Act"}}})
	require.NoError(t, err)

	nodes, edges := storetest.Counts(t, st)

	_, err = svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Saga", SubWorks: []common.NamedRef{{Name: "Cycle"}, {Name: "New Part"}}})
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{"Work is the sur-most work of a three-tier work collection"}, errs["subWorks.0"])
	assert.NotContains(t, errs, "subWorks.1")

	_, err = svc.Update(ctx, common.KindWork, cycle.ID, &common.WorkPayload{Name: "Cycle", SubWorks: []common.NamedRef{{Name: "Cycle"}}})
	errs = fieldErrs(t, err)
	assert.Equal(t, []string{"Work cannot be assigned as a sub-work of itself"}, errs["subWorks.0"])

	_, err = svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Other", SubWorks: []common.NamedRef{{Name: "Scene"}}})
	errs = fieldErrs(t, err)
	assert.Contains(t, errs["subWorks.0"], "Work is already assigned to another sur-work")

	n, e := storetest.Counts(t, st)
	assert.Equal(t, nodes, n, "rejected writes create no stub nodes")
	assert.Equal(t, edges, e)
}

func TestVersionChainRules(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	orig, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Original"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Revival", OriginalVersionWork: common.NamedRef{Name: "Original"}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, common.KindWork, orig.ID, &common.WorkPayload{Name: "Original", OriginalVersionWork: common.NamedRef{Name: "Revival"}})
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{"Work is a subsequent version of this work"}, errs["originalVersionWork"])

	_, err = svc.Update(ctx, common.KindWork, orig.ID, &common.WorkPayload{Name: "Original", OriginalVersionWork: common.NamedRef{Name: "Original"}})
	errs = fieldErrs(t, err)
	assert.Equal(t, []string{"Work cannot be its own original version"}, errs["originalVersionWork"])
}

func TestIdentityIsUnique(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann", Differentiator: "2"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: " Ann "})
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{common.MsgNameDiffExists}, errs["name"])
	assert.Equal(t, []string{common.MsgNameDiffExists}, errs["differentiator"])
}

func TestRejectedWriteReturnsSubmittedFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ann, err := svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	require.NoError(t, err)

	got, err := svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	fieldErrs(t, err)
	assert.Equal(t, common.LabelPerson, got.Model)
	assert.Empty(t, got.ID)
	require.NotNil(t, got.Payload)
	assert.Equal(t, "Ann", got.Payload.(*common.PersonPayload).Name)

	got, err = svc.Update(ctx, common.KindPerson, ann.ID, &common.PersonPayload{Name: "", Differentiator: "2"})
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{common.MsgTooShort}, errs["name"])
	assert.Equal(t, ann.ID, got.ID)
	assert.Equal(t, "2", got.Payload.(*common.PersonPayload).Differentiator)

	sub, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Cycle", SubWorks: []common.NamedRef{{Name: "Cycle"}}})
	fieldErrs(t, err)
	assert.Equal(t, []common.NamedRef{{Name: "Cycle"}}, sub.Payload.(*common.WorkPayload).SubWorks)
}

func TestStagingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *common.StagingPayload)
		path   string
		msg    string
	}{
		{"bad date", func(p *common.StagingPayload) { p.StartDate = "2020-13-01" }, "startDate", MsgInvalidDate},
		{"end before start", func(p *common.StagingPayload) { p.EndDate = "2019-12-31" }, "endDate", MsgEndBeforeStart},
		{"missing sub-staging", func(p *common.StagingPayload) { p.SubStagings = []common.StagingRef{{ID: "nope"}} }, "subStagings.0", "Production does not exist"},
		{"duplicate cast", func(p *common.StagingPayload) { p.Cast = append(p.Cast, common.CastMember{Name: "Dan"}) }, "cast.1", common.MsgDuplicateInList},
		{"entity model", func(p *common.StagingPayload) { p.ProducerCredits[0].Entities[1].Model = "WORK" }, "producerCredits.0.entities.1.model", "Value must be one of PERSON, COMPANY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			p := production()
			tt.mutate(p)
			_, err := svc.Create(context.Background(), common.KindStaging, p)
			errs := fieldErrs(t, err)
			assert.Contains(t, errs[tt.path], tt.msg)
		})
	}
}

func TestStagingHierarchy(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	part, err := svc.Create(ctx, common.KindStaging, &common.StagingPayload{Name: "Part One"})
	require.NoError(t, err)
	whole, err := svc.Create(ctx, common.KindStaging, &common.StagingPayload{
		Name:        "Whole",
		SubStagings: []common.StagingRef{{ID: part.ID}},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, common.KindStaging, &common.StagingPayload{
		Name:        "Rival",
		SubStagings: []common.StagingRef{{ID: part.ID}},
	})
	errs := fieldErrs(t, err)
	assert.Contains(t, errs["subStagings.0"], "Production is already assigned to another sur-production")

	_, err = svc.Update(ctx, common.KindStaging, part.ID, &common.StagingPayload{
		Name:        "Part One",
		SubStagings: []common.StagingRef{{ID: whole.ID}},
	})
	errs = fieldErrs(t, err)
	assert.Contains(t, errs["subStagings.0"], "Production is this production's sur-production")
}

func prizeCeremony() *common.AwardCeremonyPayload {
	return &common.AwardCeremonyPayload{
		Name:  "2020",
		Award: common.NamedRef{Name: "Prize"},
		Categories: []common.CategoryPayload{
			{
				Name: "Best Play",
				Nominations: []common.NominationPayload{
					{
						IsWinner: true,
						Entities: []common.CreditedEntity{
							{Model: "COMPANY", Name: "Globe Co", Members: []common.NamedRef{{Name: "Pat"}}},
						},
						Works: []common.NamedRef{{Name: "Hamlet", Differentiator: "1"}},
					},
					{
						CustomType: "Highly Commended",
						Entities:   []common.CreditedEntity{{Model: "PERSON", Name: "William Shakespeare"}},
					},
				},
			},
			{Name: "Best Revival"},
		},
	}
}

func TestCeremonyRoundTrip(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	created, err := svc.Create(ctx, common.KindAwardCeremony, prizeCeremony())
	require.NoError(t, err)
	assert.Equal(t, prizeCeremony(), created.Payload)

	cat, err := st.GetNode(ctx, CategoryID(created.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "Best Revival", cat.Name)

	_, err = svc.Create(ctx, common.KindAwardCeremony, &common.AwardCeremonyPayload{Name: "2020", Award: common.NamedRef{Name: "Prize"}})
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{MsgCeremonyNameTaken}, errs["name"])

	updated, err := svc.Update(ctx, common.KindAwardCeremony, created.ID, prizeCeremony())
	require.NoError(t, err)
	assert.Equal(t, prizeCeremony(), updated.Payload, "categories are rebuilt in place")
}

func TestCeremonyRejectsUnknownStaging(t *testing.T) {
	svc, st := newService(t)
	p := prizeCeremony()
	p.Categories[0].Nominations[0].Stagings = []common.StagingRef{{ID: "ghost"}}

	_, err := svc.Create(context.Background(), common.KindAwardCeremony, p)
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{"Production does not exist"}, errs["categories.0.nominations.0.stagings.0"])
	nodes, _ := storetest.Counts(t, st)
	assert.Zero(t, nodes)
}

func TestDestroyGuard(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	work, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	ceremony, err := svc.Create(ctx, common.KindAwardCeremony, prizeCeremony())
	require.NoError(t, err)

	shakespeare := nodeID(t, st, common.LabelPerson, "William Shakespeare")
	_, err = svc.Destroy(ctx, common.KindPerson, shakespeare)
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{"AwardCeremony", "Work"}, errs[KeyAssociations])

	_, err = svc.Destroy(ctx, common.KindWork, work.ID)
	errs = fieldErrs(t, err)
	assert.Equal(t, []string{"AwardCeremony"}, errs[KeyAssociations])

	nodes, _ := storetest.Counts(t, st)
	deleted, err := svc.Destroy(ctx, common.KindAwardCeremony, ceremony.ID)
	require.NoError(t, err)
	assert.Equal(t, "2020", deleted.Name)
	n, _ := storetest.Counts(t, st)
	assert.Equal(t, nodes-3, n, "ceremony and its two categories")

	_, err = svc.Destroy(ctx, common.KindWork, work.ID)
	require.NoError(t, err)
	_, err = svc.Destroy(ctx, common.KindPerson, shakespeare)
	require.NoError(t, err)

	_, err = svc.Show(ctx, common.KindWork, work.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShowChecksKind(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	person, err := svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	require.NoError(t, err)

	_, err = svc.Show(ctx, common.KindWork, person.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Edit(ctx, common.KindPerson, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, common.KindPerson, "missing", &common.PersonPayload{Name: "Bo"})
	assert.ErrorIs(t, err, ErrNotFound)

	out, err := svc.Show(ctx, common.KindPerson, person.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", out.(*projection.EntityShow).Name)
}

func TestPayloadKindMismatch(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), common.KindWork, &common.PersonPayload{Name: "Ann"})
	errs := fieldErrs(t, err)
	assert.Contains(t, errs, "model")
}

func TestListOrderingAndLimit(t *testing.T) {
	svc, _ := newService(t, WithListLimit(3))
	ctx := context.Background()

	for _, w := range []struct {
		name string
		year int
	}{{"Beta", 2001}, {"Alpha", 2001}, {"Gamma", 1999}, {"Zeta", 2020}} {
		_, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: w.name, Year: common.IntOf(w.year)})
		require.NoError(t, err)
	}

	rows, err := svc.List(ctx, common.KindWork)
	require.NoError(t, err)
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Beta"}, names)
}

func TestNotifierReceivesCommittedWrites(t *testing.T) {
	rec := &recorder{}
	svc, _ := newService(t, WithNotifier(rec))
	ctx := context.Background()

	p, err := svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindPerson, &common.PersonPayload{Name: "Ann"})
	require.Error(t, err)
	_, err = svc.Update(ctx, common.KindPerson, p.ID, &common.PersonPayload{Name: "Anne"})
	require.NoError(t, err)
	_, err = svc.Destroy(ctx, common.KindPerson, p.ID)
	require.NoError(t, err)

	assert.Equal(t, []common.ChangeEvent{
		{Kind: common.KindPerson, ID: p.ID, Action: common.ActionCreated},
		{Kind: common.KindPerson, ID: p.ID, Action: common.ActionUpdated},
		{Kind: common.KindPerson, ID: p.ID, Action: common.ActionDeleted},
	}, rec.events)
}

func TestExposurePropagationThroughWrites(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	credit := func(name string) []common.WritingCredit {
		return []common.WritingCredit{{Name: "by", Entities: []common.WritingEntity{{Model: "PERSON", Name: name}}}}
	}
	_, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Sub", WritingCredits: credit("Sub Writer")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindWork, &common.WorkPayload{Name: "Mid", SubWorks: []common.NamedRef{{Name: "Sub"}}})
	require.NoError(t, err)
	sur, err := svc.Create(ctx, common.KindWork, &common.WorkPayload{
		Name:           "Sur",
		SubWorks:       []common.NamedRef{{Name: "Mid"}},
		WritingCredits: credit("Sur Writer"),
	})
	require.NoError(t, err)

	nominate := func(cat, work string) common.CategoryPayload {
		return common.CategoryPayload{Name: cat, Nominations: []common.NominationPayload{{Works: []common.NamedRef{{Name: work}}}}}
	}
	_, err = svc.Create(ctx, common.KindAwardCeremony, &common.AwardCeremonyPayload{
		Name:  "2020",
		Award: common.NamedRef{Name: "Prize"},
		Categories: []common.CategoryPayload{
			nominate("Best Cycle", "Sur"),
			nominate("Best Part", "Mid"),
			nominate("Best Scene", "Sub"),
		},
	})
	require.NoError(t, err)

	out, err := svc.Show(ctx, common.KindWork, sur.ID)
	require.NoError(t, err)
	show := out.(*projection.WorkShow)
	require.Len(t, show.Awards, 1)
	require.Len(t, show.Awards[0].Ceremonies, 1)
	assert.Len(t, show.Awards[0].Ceremonies[0].Categories, 3)

	subID := nodeID(t, st, common.LabelWork, "Sub")
	out, err = svc.Show(ctx, common.KindWork, subID)
	require.NoError(t, err)
	subShow := out.(*projection.WorkShow)
	require.Len(t, subShow.Awards, 1)
	require.Len(t, subShow.Awards[0].Ceremonies, 1)
	var names []string
	for _, c := range subShow.Awards[0].Ceremonies[0].Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Best Part", "Best Scene"}, names)

	raw, err := json.Marshal(show)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Sub Writer")

	subAwards, err := json.Marshal(subShow.Awards)
	require.NoError(t, err)
	assert.NotContains(t, string(subAwards), "Best Cycle")
	assert.NotContains(t, string(subAwards), "Sur Writer")
}

func TestAwardsByView(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	work, err := svc.Create(ctx, common.KindWork, hamlet())
	require.NoError(t, err)
	_, err = svc.Create(ctx, common.KindAwardCeremony, prizeCeremony())
	require.NoError(t, err)

	shakespeare := nodeID(t, st, common.LabelPerson, "William Shakespeare")
	direct, err := svc.Awards(ctx, common.KindPerson, shakespeare, awards.ViewDirect)
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, "Prize", direct[0].Name)

	workAwards, err := svc.Awards(ctx, common.KindWork, work.ID, awards.ViewDirect)
	require.NoError(t, err)
	require.Len(t, workAwards, 1)

	_, err = svc.Awards(ctx, common.KindWork, work.ID, awards.ViewRightsGrantor)
	errs := fieldErrs(t, err)
	assert.Equal(t, []string{MsgInvalidValue}, errs["view"])

	_, err = svc.Awards(ctx, common.KindPerson, work.ID, awards.ViewDirect)
	assert.ErrorIs(t, err, ErrNotFound)
}
