package catalog

import "github.com/OFFIS-RIT/dramatis/pkg/common"

// prune drops blank rows. Credits, groups, categories and nominations left
// without content go too. Validation runs before pruning so error paths
// match the submitted indexes.
func prune(p common.Payload) {
	switch v := p.(type) {
	case *common.WorkPayload:
		v.SubWorks = pruneRefs(v.SubWorks)
		credits := v.WritingCredits[:0]
		for _, c := range v.WritingCredits {
			ents := c.Entities[:0]
			for _, e := range c.Entities {
				if !e.IsEmpty() {
					ents = append(ents, e)
				}
			}
			c.Entities = ents
			if len(c.Entities) > 0 {
				credits = append(credits, c)
			}
		}
		v.WritingCredits = credits
		groups := v.CharacterGroups[:0]
		for _, g := range v.CharacterGroups {
			chars := g.Characters[:0]
			for _, ch := range g.Characters {
				if !ch.IsEmpty() {
					chars = append(chars, ch)
				}
			}
			g.Characters = chars
			if len(g.Characters) > 0 {
				groups = append(groups, g)
			}
		}
		v.CharacterGroups = groups
	case *common.StagingPayload:
		subs := v.SubStagings[:0]
		for _, s := range v.SubStagings {
			if !s.IsEmpty() {
				subs = append(subs, s)
			}
		}
		v.SubStagings = subs
		v.ProducerCredits = pruneStagingCredits(v.ProducerCredits)
		v.CreativeCredits = pruneStagingCredits(v.CreativeCredits)
		v.CrewCredits = pruneStagingCredits(v.CrewCredits)
		cast := v.Cast[:0]
		for _, m := range v.Cast {
			if m.Ref().IsEmpty() {
				continue
			}
			roles := m.Roles[:0]
			for _, r := range m.Roles {
				if !r.IsEmpty() {
					roles = append(roles, r)
				}
			}
			m.Roles = roles
			cast = append(cast, m)
		}
		v.Cast = cast
	case *common.VenuePayload:
		v.SubVenues = pruneRefs(v.SubVenues)
	case *common.AwardCeremonyPayload:
		cats := v.Categories[:0]
		for _, c := range v.Categories {
			noms := c.Nominations[:0]
			for _, n := range c.Nominations {
				n.Entities = pruneEntities(n.Entities)
				stagings := n.Stagings[:0]
				for _, s := range n.Stagings {
					if !s.IsEmpty() {
						stagings = append(stagings, s)
					}
				}
				n.Stagings = stagings
				n.Works = pruneRefs(n.Works)
				if !n.IsEmpty() {
					noms = append(noms, n)
				}
			}
			c.Nominations = noms
			if c.Name != "" || len(c.Nominations) > 0 {
				cats = append(cats, c)
			}
		}
		v.Categories = cats
	}
}

func pruneRefs(list []common.NamedRef) []common.NamedRef {
	out := list[:0]
	for _, r := range list {
		if !r.IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

func pruneEntities(list []common.CreditedEntity) []common.CreditedEntity {
	out := list[:0]
	for _, e := range list {
		if e.IsEmpty() {
			continue
		}
		e.Members = pruneRefs(e.Members)
		out = append(out, e)
	}
	return out
}

func pruneStagingCredits(list []common.StagingCredit) []common.StagingCredit {
	out := list[:0]
	for _, c := range list {
		c.Entities = pruneEntities(c.Entities)
		if len(c.Entities) > 0 {
			out = append(out, c)
		}
	}
	return out
}
