package credits

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
	"github.com/OFFIS-RIT/dramatis/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writing(name string, ct common.CreditType, entityPos int) store.Props {
	return store.Props{
		common.PropCreditName:     name,
		common.PropCreditType:     string(ct),
		common.PropEntityPosition: entityPos,
	}
}

func entityNames(c Credit) []string {
	out := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = e.Name
	}
	return out
}

func TestWritingCredits(t *testing.T) {
	f := &storetest.Fixture{}
	f.Node("play", common.LabelWork, "The Play").
		Node("novel", common.LabelWork, "The Novel").
		Node("saga", common.LabelWork, "The Saga").
		Node("ann", common.LabelPerson, "Ann").
		Node("bob", common.LabelPerson, "Bob").
		Node("ink", common.LabelCompany, "Ink Ltd").
		Node("cy", common.LabelPerson, "Cy").
		Edge(common.EdgeContributedBy, "play", "bob", 0, writing("by", common.CreditWriter, 1)).
		Edge(common.EdgeContributedBy, "play", "ann", 0, writing("by", common.CreditWriter, 0)).
		Edge(common.EdgeContributedBy, "play", "novel", 1, writing("based on", common.CreditWriter, 0)).
		Edge(common.EdgeContributedBy, "play", "ink", 2, writing("by special arrangement with", common.CreditRightsGrantor, 0)).
		Edge(common.EdgeContributedBy, "novel", "cy", 0, writing("", "", 0)).
		Edge(common.EdgeComposedOf, "saga", "novel", 0, nil)
	s := storetest.Open(t, f)

	agg := New(graph.NewNavigator(s))
	got, err := agg.WritingCredits(context.Background(), "play")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "by", got[0].Name)
	assert.Equal(t, common.CreditWriter, got[0].CreditType)
	assert.Equal(t, []string{"Ann", "Bob"}, entityNames(got[0]), "entities follow entity position")

	assert.Equal(t, "based on", got[1].Name)
	novel := got[1].Entities[0]
	require.NotNil(t, novel.SurWork)
	assert.Equal(t, "saga", novel.SurWork.ID)
	require.Len(t, novel.WritingCredits, 1)
	assert.Equal(t, common.CreditWriter, novel.WritingCredits[0].CreditType, "empty credit type reads as writer")
	assert.Equal(t, []string{"Cy"}, entityNames(novel.WritingCredits[0]))

	assert.Equal(t, common.CreditRightsGrantor, got[2].CreditType)
	assert.Equal(t, []string{"Ink Ltd"}, entityNames(got[2]))
}

func TestWritingCreditsAbsent(t *testing.T) {
	s := storetest.Open(t, (&storetest.Fixture{}).Node("play", common.LabelWork, "The Play"))
	got, err := New(graph.NewNavigator(s)).WritingCredits(context.Background(), "play")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStagingCreditsWithMembers(t *testing.T) {
	f := &storetest.Fixture{}
	f.Node("run", common.LabelStaging, "Run").
		Node("co", common.LabelCompany, "Stage Co").
		Node("dee", common.LabelPerson, "Dee").
		Node("eve", common.LabelPerson, "Eve").
		Node("fay", common.LabelPerson, "Fay").
		Edge(common.EdgeProducerEntity, "run", "co", 0, store.Props{common.PropCreditName: "Produced by", common.PropEntityPosition: 0}).
		Edge(common.EdgeProducerEntity, "run", "eve", 0, store.Props{
			common.PropCreditName: "Produced by", common.PropEntityPosition: 0,
			common.PropCreditedCompanyID: "co", common.PropMemberPosition: 1,
		}).
		Edge(common.EdgeProducerEntity, "run", "dee", 0, store.Props{
			common.PropCreditName: "Produced by", common.PropEntityPosition: 0,
			common.PropCreditedCompanyID: "co", common.PropMemberPosition: 0,
		}).
		Edge(common.EdgeProducerEntity, "run", "fay", 0, store.Props{common.PropCreditName: "Produced by", common.PropEntityPosition: 1}).
		Edge(common.EdgeCrewEntity, "run", "fay", 0, store.Props{common.PropCreditName: "Stage Manager", common.PropEntityPosition: 0})
	s := storetest.Open(t, f)

	got, err := New(graph.NewNavigator(s)).StagingCredits(context.Background(), "run")
	require.NoError(t, err)

	require.Len(t, got.Producer, 1)
	assert.Equal(t, []string{"Stage Co", "Fay"}, entityNames(got.Producer[0]))
	co := got.Producer[0].Entities[0]
	require.Len(t, co.Members, 2)
	assert.Equal(t, "Dee", co.Members[0].Name)
	assert.Equal(t, "Eve", co.Members[1].Name)

	assert.Empty(t, got.Creative)
	require.Len(t, got.Crew, 1)
	assert.Equal(t, "Stage Manager", got.Crew[0].Name)
}

func TestCast(t *testing.T) {
	f := &storetest.Fixture{}
	f.Node("run", common.LabelStaging, "Run").
		Node("gil", common.LabelPerson, "Gil").
		Node("hal", common.LabelPerson, "Hal").
		Edge(common.EdgeCastMember, "run", "hal", 1, nil).
		Edge(common.EdgeCastMember, "run", "gil", 0, store.Props{common.PropRoles: []map[string]any{
			{"name": "Hamlet", "characterName": "Hamlet", "qualifier": "", "isAlternate": false},
		}})
	s := storetest.Open(t, f)

	got, err := New(graph.NewNavigator(s)).Cast(context.Background(), "run")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Gil", got[0].Name)
	assert.Equal(t, []common.Role{{Name: "Hamlet", CharacterName: "Hamlet"}}, got[0].Roles)
	assert.Equal(t, "Hal", got[1].Name)
	assert.Equal(t, []common.Role{}, got[1].Roles)
}

func TestEntityJSON(t *testing.T) {
	work := Entity{NodeRef: graph.NodeRef{ID: "w", Label: common.LabelWork, Name: "W"}}
	raw, err := json.Marshal(work)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"WORK","id":"w","name":"W","differentiator":"","surWork":null,"writingCredits":[]}`, string(raw))

	person := Entity{NodeRef: graph.NodeRef{ID: "p", Label: common.LabelPerson, Name: "P"}}
	raw, err = json.Marshal(person)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"PERSON","id":"p","name":"P","differentiator":""}`, string(raw))
}

func TestEntityIDs(t *testing.T) {
	credits := []Credit{{Entities: []Entity{
		{NodeRef: graph.NodeRef{ID: "a"}, Members: []graph.NodeRef{{ID: "b"}}},
		{NodeRef: graph.NodeRef{ID: "a"}},
	}}}
	assert.Equal(t, []string{"a", "b"}, EntityIDs(credits))
}
