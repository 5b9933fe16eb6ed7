package projection

import "github.com/OFFIS-RIT/dramatis/pkg/common"

// Pad appends one empty template row to every repeatable list of p,
// nested lists included, so edit forms always offer a blank entry.
func Pad(p common.Payload) {
	switch v := p.(type) {
	case *common.WorkPayload:
		for i := range v.WritingCredits {
			padWritingCredit(&v.WritingCredits[i])
		}
		v.WritingCredits = append(v.WritingCredits, emptyWritingCredit())
		v.SubWorks = append(v.SubWorks, common.NamedRef{})
		for i := range v.CharacterGroups {
			g := &v.CharacterGroups[i]
			g.Characters = append(g.Characters, common.CharacterDepiction{})
		}
		v.CharacterGroups = append(v.CharacterGroups, common.CharacterGroup{
			Characters: []common.CharacterDepiction{{}},
		})
	case *common.StagingPayload:
		v.SubStagings = append(v.SubStagings, common.StagingRef{})
		v.ProducerCredits = padStagingCredits(v.ProducerCredits)
		v.CreativeCredits = padStagingCredits(v.CreativeCredits)
		v.CrewCredits = padStagingCredits(v.CrewCredits)
		for i := range v.Cast {
			v.Cast[i].Roles = append(v.Cast[i].Roles, common.Role{})
		}
		v.Cast = append(v.Cast, common.CastMember{Roles: []common.Role{{}}})
	case *common.VenuePayload:
		v.SubVenues = append(v.SubVenues, common.NamedRef{})
	case *common.AwardCeremonyPayload:
		for i := range v.Categories {
			padCategory(&v.Categories[i])
		}
		cat := common.CategoryPayload{}
		padCategory(&cat)
		v.Categories = append(v.Categories, cat)
	}
}

func emptyWritingCredit() common.WritingCredit {
	return common.WritingCredit{
		Entities: []common.WritingEntity{{Model: string(common.LabelPerson)}},
	}
}

func padWritingCredit(c *common.WritingCredit) {
	c.Entities = append(c.Entities, common.WritingEntity{Model: string(common.LabelPerson)})
}

func emptyCreditedEntity() common.CreditedEntity {
	return common.CreditedEntity{
		Model:   string(common.LabelPerson),
		Members: []common.NamedRef{{}},
	}
}

func padCreditedEntities(list []common.CreditedEntity) []common.CreditedEntity {
	for i := range list {
		list[i].Members = append(list[i].Members, common.NamedRef{})
	}
	return append(list, emptyCreditedEntity())
}

func padStagingCredits(list []common.StagingCredit) []common.StagingCredit {
	for i := range list {
		list[i].Entities = padCreditedEntities(list[i].Entities)
	}
	return append(list, common.StagingCredit{Entities: []common.CreditedEntity{emptyCreditedEntity()}})
}

func padNomination(n *common.NominationPayload) {
	n.Entities = padCreditedEntities(n.Entities)
	n.Stagings = append(n.Stagings, common.StagingRef{})
	n.Works = append(n.Works, common.NamedRef{})
}

func padCategory(c *common.CategoryPayload) {
	for i := range c.Nominations {
		padNomination(&c.Nominations[i])
	}
	n := common.NominationPayload{}
	padNomination(&n)
	c.Nominations = append(c.Nominations, n)
}
