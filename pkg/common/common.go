package common

import "strings"

// Label is the node label used by the graph store.
type Label string

const (
	LabelWork                  Label = "WORK"
	LabelStaging               Label = "STAGING"
	LabelVenue                 Label = "VENUE"
	LabelPerson                Label = "PERSON"
	LabelCompany               Label = "COMPANY"
	LabelCharacter             Label = "CHARACTER"
	LabelAward                 Label = "AWARD"
	LabelAwardCeremony         Label = "AWARD_CEREMONY"
	LabelAwardCeremonyCategory Label = "AWARD_CEREMONY_CATEGORY"
)

// DisplayKind is the name used when a label is reported back to clients, for
// example in the associations list of a blocked delete. Categories belong to
// their ceremony and are reported as such.
func (l Label) DisplayKind() string {
	switch l {
	case LabelWork:
		return "Work"
	case LabelStaging:
		return "Staging"
	case LabelVenue:
		return "Venue"
	case LabelPerson:
		return "Person"
	case LabelCompany:
		return "Company"
	case LabelCharacter:
		return "Character"
	case LabelAward:
		return "Award"
	case LabelAwardCeremony, LabelAwardCeremonyCategory:
		return "AwardCeremony"
	default:
		return string(l)
	}
}

// HasIdentity reports whether nodes of this label are unique by name and
// differentiator.
func (l Label) HasIdentity() bool {
	switch l {
	case LabelWork, LabelVenue, LabelPerson, LabelCompany, LabelCharacter, LabelAward:
		return true
	}
	return false
}

// Kind is a catalogue entity kind as addressed by the operation layer.
type Kind string

const (
	KindWork          Kind = "work"
	KindStaging       Kind = "staging"
	KindVenue         Kind = "venue"
	KindPerson        Kind = "person"
	KindCompany       Kind = "company"
	KindCharacter     Kind = "character"
	KindAward         Kind = "award"
	KindAwardCeremony Kind = "awardCeremony"
)

var Kinds = []Kind{
	KindWork,
	KindStaging,
	KindVenue,
	KindPerson,
	KindCompany,
	KindCharacter,
	KindAward,
	KindAwardCeremony,
}

func (k Kind) Label() Label {
	switch k {
	case KindWork:
		return LabelWork
	case KindStaging:
		return LabelStaging
	case KindVenue:
		return LabelVenue
	case KindPerson:
		return LabelPerson
	case KindCompany:
		return LabelCompany
	case KindCharacter:
		return LabelCharacter
	case KindAward:
		return LabelAward
	case KindAwardCeremony:
		return LabelAwardCeremony
	}
	return ""
}

// ParseKind accepts singular kinds as well as the plural path segments used
// by the HTTP layer.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work", "works":
		return KindWork, true
	case "staging", "stagings", "production", "productions":
		return KindStaging, true
	case "venue", "venues":
		return KindVenue, true
	case "person", "people":
		return KindPerson, true
	case "company", "companies":
		return KindCompany, true
	case "character", "characters":
		return KindCharacter, true
	case "award", "awards":
		return KindAward, true
	case "awardceremony", "award-ceremony", "award-ceremonies", "awardceremonies":
		return KindAwardCeremony, true
	}
	return "", false
}

// EdgeType is the relationship type of an edge. Every edge is owned by its
// source node.
type EdgeType string

const (
	EdgeComposedOf       EdgeType = "COMPOSED_OF"
	EdgeVersionOf        EdgeType = "VERSION_OF"
	EdgeContributedBy    EdgeType = "CONTRIBUTED_BY"
	EdgeDepicts          EdgeType = "DEPICTS"
	EdgeOfWork           EdgeType = "OF_WORK"
	EdgeStagedAt         EdgeType = "STAGED_AT"
	EdgeProducerEntity   EdgeType = "PRODUCER_ENTITY"
	EdgeCreativeEntity   EdgeType = "CREATIVE_ENTITY"
	EdgeCrewEntity       EdgeType = "CREW_ENTITY"
	EdgeCastMember       EdgeType = "CAST_MEMBER"
	EdgePresentedAt      EdgeType = "PRESENTED_AT"
	EdgePresentsCategory EdgeType = "PRESENTS_CATEGORY"
	EdgeHasNominee       EdgeType = "HAS_NOMINEE"
)

// StructuralEdges lists the outgoing edge types that make up the editable
// structure of an entity of the given label. Updates replace exactly this set.
func StructuralEdges(l Label) []EdgeType {
	switch l {
	case LabelWork:
		return []EdgeType{EdgeComposedOf, EdgeVersionOf, EdgeContributedBy, EdgeDepicts}
	case LabelStaging:
		return []EdgeType{
			EdgeComposedOf,
			EdgeOfWork,
			EdgeStagedAt,
			EdgeProducerEntity,
			EdgeCreativeEntity,
			EdgeCrewEntity,
			EdgeCastMember,
		}
	case LabelVenue:
		return []EdgeType{EdgeComposedOf}
	case LabelAwardCeremony:
		return []EdgeType{EdgePresentedAt, EdgePresentsCategory}
	case LabelAwardCeremonyCategory:
		return []EdgeType{EdgeHasNominee}
	}
	return nil
}

// CreditType distinguishes writing credits from rights grants.
type CreditType string

const (
	CreditWriter        CreditType = "WRITER"
	CreditRightsGrantor CreditType = "RIGHTS_GRANTOR"
)

// ParseCreditType treats an empty value as a writing credit.
func ParseCreditType(s string) CreditType {
	if CreditType(s) == CreditRightsGrantor {
		return CreditRightsGrantor
	}
	return CreditWriter
}

// Edge property keys.
const (
	PropCreditName         = "creditName"
	PropCreditType         = "creditType"
	PropEntityPosition     = "entityPosition"
	PropGroupName          = "groupName"
	PropCharacterPosition  = "characterPosition"
	PropDisplayName        = "displayName"
	PropQualifier          = "qualifier"
	PropCreditedCompanyID  = "creditedCompanyId"
	PropMemberPosition     = "memberPosition"
	PropRoles              = "roles"
	PropNominationPosition = "nominationPosition"
	PropIsWinner           = "isWinner"
	PropCustomType         = "customType"
	PropNominatedCompanyID = "nominatedCompanyId"
)

// Node property keys.
const (
	PropFormat    = "format"
	PropYear      = "year"
	PropSubtitle  = "subtitle"
	PropStartDate = "startDate"
	PropPressDate = "pressDate"
	PropEndDate   = "endDate"
)
