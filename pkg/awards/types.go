package awards

import (
	"encoding/json"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/credits"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
)

// View selects the relationship an award is attributed through.
type View string

const (
	ViewDirect            View = "direct"
	ViewSubsequentVersion View = "subsequentVersion"
	ViewSourcing          View = "sourcing"
	ViewRightsGrantor     View = "rightsGrantor"
)

// ViewsFor lists the views that apply to a label, highest priority first.
func ViewsFor(l common.Label) []View {
	switch l {
	case common.LabelWork:
		return []View{ViewDirect, ViewSubsequentVersion, ViewSourcing}
	case common.LabelStaging:
		return []View{ViewDirect}
	case common.LabelPerson, common.LabelCompany:
		return []View{ViewDirect, ViewSubsequentVersion, ViewSourcing, ViewRightsGrantor}
	}
	return nil
}

// NominationKey identifies one nomination within a category.
type NominationKey struct {
	CategoryID string
	Position   int
}

type Award struct {
	graph.NodeRef
	Ceremonies []Ceremony `json:"ceremonies"`
}

type Ceremony struct {
	graph.NodeRef
	Categories []Category `json:"categories"`
}

type Category struct {
	graph.NodeRef
	Nominations []Nomination `json:"nominations"`
}

type Nomination struct {
	Position  int       `json:"-"`
	IsWinner  bool      `json:"isWinner"`
	Type      string    `json:"type"`
	Recipient *Nominee  `json:"recipient"`
	Entities  []Nominee `json:"entities"`
	Stagings  []Nominee `json:"stagings"`
	Works     []Nominee `json:"works"`
}

// NominationType is the custom label when present, else Winner or
// Nomination.
func NominationType(customType string, isWinner bool) string {
	switch {
	case customType != "":
		return customType
	case isWinner:
		return "Winner"
	default:
		return "Nomination"
	}
}

// Nominee is a nominated node with the detail shown for its kind.
type Nominee struct {
	graph.NodeRef
	Members        []graph.NodeRef
	Venue          *graph.NodeRef
	SurStaging     *graph.NodeRef
	SurWork        *graph.NodeRef
	WritingCredits []credits.Credit
	// Roles is set on recipients only.
	Roles graph.Role
}

func (n Nominee) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"model":          n.Label,
		"id":             n.ID,
		"name":           n.Name,
		"differentiator": n.Differentiator,
	}
	switch n.Label {
	case common.LabelCompany:
		members := n.Members
		if members == nil {
			members = []graph.NodeRef{}
		}
		out["members"] = members
	case common.LabelStaging:
		out["venue"] = n.Venue
		out["surStaging"] = n.SurStaging
		if n.Roles != 0 {
			out["isSurStaging"] = n.Roles.Has(graph.RoleSur)
			out["isSubStaging"] = n.Roles.Has(graph.RoleSub)
		}
	case common.LabelWork:
		out["surWork"] = n.SurWork
		wc := n.WritingCredits
		if wc == nil {
			wc = []credits.Credit{}
		}
		out["writingCredits"] = wc
		if n.Roles != 0 {
			out["isSurWork"] = n.Roles.Has(graph.RoleSur)
			out["isSubWork"] = n.Roles.Has(graph.RoleSub)
			out["isSubsequentVersion"] = n.Roles.Has(graph.RoleSubsequentVersion)
			out["isSourcing"] = n.Roles.Has(graph.RoleSourcing)
			out["isRightsGrantedWork"] = n.Roles.Has(graph.RoleRightsGranted)
		}
	}
	return json.Marshal(out)
}

// CountNominations totals the nominations across awards.
func CountNominations(awards []Award) int {
	n := 0
	for _, a := range awards {
		for _, c := range a.Ceremonies {
			for _, cat := range c.Categories {
				n += len(cat.Nominations)
			}
		}
	}
	return n
}
