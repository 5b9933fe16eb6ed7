package projection

import (
	"context"
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// Depiction is how a work shows a character.
type Depiction struct {
	DisplayName *string `json:"displayName"`
	Qualifier   string  `json:"qualifier"`
	GroupName   string  `json:"groupName"`
}

type CharacterWork struct {
	graph.NodeRef
	SurWork        *graph.NodeRef   `json:"surWork"`
	WritingCredits []credits.Credit `json:"writingCredits"`
	Depictions     []Depiction      `json:"depictions"`
}

// Performer plays the character in a staging. OtherRoles are the
// performer's remaining roles there.
type Performer struct {
	graph.NodeRef
	Roles      []RoleShow `json:"roles"`
	OtherRoles []RoleShow `json:"otherRoles"`
}

type CharacterStaging struct {
	StagingAtVenue
	Performers []Performer `json:"performers"`
}

type CharacterShow struct {
	Model          common.Label       `json:"model"`
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Differentiator string             `json:"differentiator"`
	VariantNames   []string           `json:"variantNames"`
	Works          []CharacterWork    `json:"works"`
	Stagings       []CharacterStaging `json:"stagings"`
}

func (b *Builder) showCharacter(ctx context.Context, node store.Node) (*CharacterShow, error) {
	show := &CharacterShow{
		Model:          node.Label,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
		VariantNames:   []string{},
	}

	depEdges, err := b.reader().InEdges(ctx, []string{node.ID}, common.EdgeDepicts)
	if err != nil {
		return nil, err
	}
	workNodes, err := b.reader().GetNodes(ctx, store.SourceIDs(depEdges))
	if err != nil {
		return nil, err
	}
	var workRefs []graph.NodeRef
	for _, id := range store.SourceIDs(depEdges) {
		if w, ok := workNodes[id]; ok {
			workRefs = append(workRefs, graph.RefOf(w))
		}
	}
	graph.SortRefs(workRefs)
	ents, err := b.workEntities(ctx, workRefs)
	if err != nil {
		return nil, err
	}

	byWork := make(map[string][]Depiction)
	variants := make(map[string]struct{})
	for _, d := range decodeDepictions(depEdges) {
		dep := Depiction{Qualifier: d.Qualifier, GroupName: d.GroupName}
		if d.DisplayName != "" && d.DisplayName != node.Name {
			name := d.DisplayName
			dep.DisplayName = &name
			variants[name] = struct{}{}
		}
		byWork[d.WorkID] = append(byWork[d.WorkID], dep)
	}
	for v := range variants {
		show.VariantNames = append(show.VariantNames, v)
	}
	sort.Strings(show.VariantNames)

	show.Works = make([]CharacterWork, 0, len(ents))
	for _, e := range ents {
		show.Works = append(show.Works, CharacterWork{
			NodeRef:        e.NodeRef,
			SurWork:        e.SurWork,
			WritingCredits: e.WritingCredits,
			Depictions:     byWork[e.ID],
		})
	}

	show.Stagings, err = b.characterStagings(ctx, node.ID, refIDs(workRefs))
	if err != nil {
		return nil, err
	}
	return show, nil
}

// characterStagings lists stagings of the depicting works in which a cast
// role links to the character.
func (b *Builder) characterStagings(ctx context.Context, characterID string, workIDs []string) ([]CharacterStaging, error) {
	if len(workIDs) == 0 {
		return []CharacterStaging{}, nil
	}
	ofWork, err := b.reader().InEdges(ctx, workIDs, common.EdgeOfWork)
	if err != nil {
		return nil, err
	}
	stagingIDs := store.SourceIDs(ofWork)
	indexes, err := b.roleIndexes(ctx, stagingIDs)
	if err != nil {
		return nil, err
	}
	castEdges, err := b.reader().OutEdges(ctx, stagingIDs, common.EdgeCastMember)
	if err != nil {
		return nil, err
	}
	people, err := b.reader().GetNodes(ctx, store.TargetIDs(castEdges))
	if err != nil {
		return nil, err
	}

	performers := make(map[string][]Performer)
	for _, e := range castEdges {
		person, ok := people[e.TargetID]
		if !ok {
			continue
		}
		var roles []common.Role
		if err := e.Props.Decode(common.PropRoles, &roles); err != nil {
			return nil, err
		}
		ix := indexes[e.SourceID]
		p := Performer{NodeRef: graph.RefOf(person), Roles: []RoleShow{}, OtherRoles: []RoleShow{}}
		for _, r := range roles {
			if id, ok := ix.characterID(r); ok && id == characterID {
				p.Roles = append(p.Roles, ix.show(r))
			} else {
				p.OtherRoles = append(p.OtherRoles, ix.show(r))
			}
		}
		if len(p.Roles) > 0 {
			performers[e.SourceID] = append(performers[e.SourceID], p)
		}
	}

	var withCast []string
	for _, id := range stagingIDs {
		if len(performers[id]) > 0 {
			withCast = append(withCast, id)
		}
	}
	stagings, err := b.loadStagings(ctx, withCast)
	if err != nil {
		return nil, err
	}
	out := make([]CharacterStaging, 0, len(stagings))
	for _, s := range stagings {
		out = append(out, CharacterStaging{StagingAtVenue: s, Performers: performers[s.ID]})
	}
	return out, nil
}
