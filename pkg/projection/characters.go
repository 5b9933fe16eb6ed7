package projection

import (
	"sort"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// depiction is one DEPICTS edge decoded.
type depiction struct {
	WorkID            string
	CharacterID       string
	GroupPosition     int
	GroupName         string
	CharacterPosition int
	DisplayName       string
	Qualifier         string
}

func decodeDepictions(edges []store.Edge) []depiction {
	out := make([]depiction, 0, len(edges))
	for _, e := range edges {
		if e.Type != common.EdgeDepicts {
			continue
		}
		out = append(out, depiction{
			WorkID:            e.SourceID,
			CharacterID:       e.TargetID,
			GroupPosition:     e.Position,
			GroupName:         e.Props.String(common.PropGroupName),
			CharacterPosition: e.Props.Int(common.PropCharacterPosition),
			DisplayName:       e.Props.String(common.PropDisplayName),
			Qualifier:         e.Props.String(common.PropQualifier),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GroupPosition != out[j].GroupPosition {
			return out[i].GroupPosition < out[j].GroupPosition
		}
		return out[i].CharacterPosition < out[j].CharacterPosition
	})
	return out
}

// CharacterRef is a depicted character. With a display override the
// override is the name and the canonical name moves to UnderlyingName.
type CharacterRef struct {
	Model          common.Label `json:"model"`
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	UnderlyingName *string      `json:"underlyingName"`
	Differentiator string       `json:"differentiator"`
	Qualifier      string       `json:"qualifier"`
}

type CharacterGroup struct {
	Name       string         `json:"name"`
	Characters []CharacterRef `json:"characters"`
}

func characterRef(node store.Node, d depiction) CharacterRef {
	ref := CharacterRef{
		Model:          common.LabelCharacter,
		ID:             node.ID,
		Name:           node.Name,
		Differentiator: node.Differentiator,
		Qualifier:      d.Qualifier,
	}
	if d.DisplayName != "" && d.DisplayName != node.Name {
		canonical := node.Name
		ref.Name = d.DisplayName
		ref.UnderlyingName = &canonical
	}
	return ref
}

// characterGroups folds depictions into groups keyed by group position and
// name.
func characterGroups(deps []depiction, nodes map[string]store.Node) []CharacterGroup {
	type key struct {
		pos  int
		name string
	}
	index := make(map[key]int)
	out := []CharacterGroup{}
	for _, d := range deps {
		node, ok := nodes[d.CharacterID]
		if !ok {
			continue
		}
		k := key{pos: d.GroupPosition, name: d.GroupName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, CharacterGroup{Name: d.GroupName, Characters: []CharacterRef{}})
		}
		out[i].Characters = append(out[i].Characters, characterRef(node, d))
	}
	return out
}

// RoleShow is a cast role, linked to a character of the staged work when
// its name matches.
type RoleShow struct {
	Model       common.Label `json:"model"`
	ID          *string      `json:"id"`
	Name        string       `json:"name"`
	Qualifier   string       `json:"qualifier"`
	IsAlternate bool         `json:"isAlternate"`
}

type roleKey struct {
	name           string
	differentiator string
}

// roleIndex maps character names, including display overrides, to
// character ids.
type roleIndex map[roleKey]string

func newRoleIndex(deps []depiction, nodes map[string]store.Node) roleIndex {
	ix := roleIndex{}
	for _, d := range deps {
		node, ok := nodes[d.CharacterID]
		if !ok {
			continue
		}
		for _, name := range []string{node.Name, d.DisplayName} {
			if name == "" {
				continue
			}
			k := roleKey{name: name, differentiator: node.Differentiator}
			if _, taken := ix[k]; !taken {
				ix[k] = node.ID
			}
		}
	}
	return ix
}

func (ix roleIndex) characterID(r common.Role) (string, bool) {
	name := r.CharacterName
	if name == "" {
		name = r.Name
	}
	id, ok := ix[roleKey{name: name, differentiator: r.CharacterDifferentiator}]
	return id, ok
}

func (ix roleIndex) show(r common.Role) RoleShow {
	name := r.Name
	if name == "" {
		name = r.CharacterName
	}
	out := RoleShow{
		Model:       common.LabelCharacter,
		Name:        name,
		Qualifier:   r.Qualifier,
		IsAlternate: r.IsAlternate,
	}
	if id, ok := ix.characterID(r); ok {
		out.ID = &id
	}
	return out
}

func (ix roleIndex) showAll(roles []common.Role) []RoleShow {
	out := make([]RoleShow, 0, len(roles))
	for _, r := range roles {
		out = append(out, ix.show(r))
	}
	return out
}
