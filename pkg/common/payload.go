package common

import (
	"fmt"
	"strings"
)

// Payload is the body of a create or update operation.
type Payload interface {
	Kind() Kind
	Normalize()
}

// NewPayload returns an empty payload for the kind, ready to be decoded into.
func NewPayload(k Kind) (Payload, error) {
	switch k {
	case KindWork:
		return &WorkPayload{}, nil
	case KindStaging:
		return &StagingPayload{}, nil
	case KindVenue:
		return &VenuePayload{}, nil
	case KindPerson:
		return &PersonPayload{}, nil
	case KindCompany:
		return &CompanyPayload{}, nil
	case KindCharacter:
		return &CharacterPayload{}, nil
	case KindAward:
		return &AwardPayload{}, nil
	case KindAwardCeremony:
		return &AwardCeremonyPayload{}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", k)
}

// NamedRef references an entity by name and differentiator.
type NamedRef struct {
	Name           string `json:"name" validate:"max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (r *NamedRef) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Differentiator = strings.TrimSpace(r.Differentiator)
}

func (r NamedRef) IsEmpty() bool {
	return r.Name == "" && r.Differentiator == ""
}

// Key identifies the referenced entity within one kind.
func (r NamedRef) Key() string {
	return r.Name + "\x00" + r.Differentiator
}

// StagingRef references an existing staging by id.
type StagingRef struct {
	ID string `json:"id" validate:"max=100"`
}

func (r StagingRef) IsEmpty() bool {
	return strings.TrimSpace(r.ID) == ""
}

// WritingEntity is a contributor on a writing credit. A Work entity marks the
// credited work as source material.
type WritingEntity struct {
	Model          string `json:"model" validate:"omitempty,oneof=PERSON COMPANY WORK"`
	Name           string `json:"name" validate:"max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (e WritingEntity) IsEmpty() bool {
	return e.Name == "" && e.Differentiator == ""
}

func (e WritingEntity) Ref() NamedRef {
	return NamedRef{Name: e.Name, Differentiator: e.Differentiator}
}

type WritingCredit struct {
	Name       string          `json:"name" validate:"max=1000"`
	CreditType string          `json:"creditType" validate:"omitempty,oneof=WRITER RIGHTS_GRANTOR"`
	Entities   []WritingEntity `json:"entities" validate:"dive"`
}

type CharacterDepiction struct {
	Name           string `json:"name" validate:"max=1000"`
	UnderlyingName string `json:"underlyingName" validate:"max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
	Qualifier      string `json:"qualifier" validate:"max=1000"`
}

func (c CharacterDepiction) IsEmpty() bool {
	return c.Name == "" && c.UnderlyingName == "" && c.Differentiator == "" && c.Qualifier == ""
}

// CanonicalName is the name of the character node; Name is then a
// work-specific display override.
func (c CharacterDepiction) CanonicalName() string {
	if c.UnderlyingName != "" {
		return c.UnderlyingName
	}
	return c.Name
}

type CharacterGroup struct {
	Name       string               `json:"name" validate:"max=1000"`
	Characters []CharacterDepiction `json:"characters" validate:"dive"`
}

type WorkPayload struct {
	Name                string           `json:"name" validate:"required,max=1000"`
	Differentiator      string           `json:"differentiator" validate:"max=1000"`
	Format              string           `json:"format" validate:"max=1000"`
	Year                OptionalInt      `json:"year"`
	OriginalVersionWork NamedRef         `json:"originalVersionWork"`
	WritingCredits      []WritingCredit  `json:"writingCredits" validate:"dive"`
	SubWorks            []NamedRef       `json:"subWorks" validate:"dive"`
	CharacterGroups     []CharacterGroup `json:"characterGroups" validate:"dive"`
}

func (p *WorkPayload) Kind() Kind { return KindWork }

func (p *WorkPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
	p.Format = strings.TrimSpace(p.Format)
	p.OriginalVersionWork.normalize()
	for i := range p.WritingCredits {
		c := &p.WritingCredits[i]
		c.Name = strings.TrimSpace(c.Name)
		c.CreditType = strings.TrimSpace(c.CreditType)
		for j := range c.Entities {
			e := &c.Entities[j]
			e.Model = strings.ToUpper(strings.TrimSpace(e.Model))
			e.Name = strings.TrimSpace(e.Name)
			e.Differentiator = strings.TrimSpace(e.Differentiator)
		}
	}
	for i := range p.SubWorks {
		p.SubWorks[i].normalize()
	}
	for i := range p.CharacterGroups {
		g := &p.CharacterGroups[i]
		g.Name = strings.TrimSpace(g.Name)
		for j := range g.Characters {
			c := &g.Characters[j]
			c.Name = strings.TrimSpace(c.Name)
			c.UnderlyingName = strings.TrimSpace(c.UnderlyingName)
			c.Differentiator = strings.TrimSpace(c.Differentiator)
			c.Qualifier = strings.TrimSpace(c.Qualifier)
		}
	}
}

// CreditedEntity is a person or company on a staging credit or nomination.
// Members are the persons credited as part of a company.
type CreditedEntity struct {
	Model          string     `json:"model" validate:"omitempty,oneof=PERSON COMPANY"`
	Name           string     `json:"name" validate:"max=1000"`
	Differentiator string     `json:"differentiator" validate:"max=1000"`
	Members        []NamedRef `json:"members" validate:"dive"`
}

func (e CreditedEntity) IsEmpty() bool {
	if e.Name != "" || e.Differentiator != "" {
		return false
	}
	for _, m := range e.Members {
		if !m.IsEmpty() {
			return false
		}
	}
	return true
}

func (e CreditedEntity) Ref() NamedRef {
	return NamedRef{Name: e.Name, Differentiator: e.Differentiator}
}

func (e CreditedEntity) IsCompany() bool {
	return Label(e.Model) == LabelCompany
}

func (e *CreditedEntity) normalize() {
	e.Model = strings.ToUpper(strings.TrimSpace(e.Model))
	e.Name = strings.TrimSpace(e.Name)
	e.Differentiator = strings.TrimSpace(e.Differentiator)
	for i := range e.Members {
		e.Members[i].normalize()
	}
}

type StagingCredit struct {
	Name     string           `json:"name" validate:"max=1000"`
	Entities []CreditedEntity `json:"entities" validate:"dive"`
}

type Role struct {
	Name                    string `json:"name" validate:"max=1000"`
	CharacterName           string `json:"characterName" validate:"max=1000"`
	CharacterDifferentiator string `json:"characterDifferentiator" validate:"max=1000"`
	Qualifier               string `json:"qualifier" validate:"max=1000"`
	IsAlternate             bool   `json:"isAlternate"`
}

func (r Role) IsEmpty() bool {
	return r.Name == "" && r.CharacterName == "" && r.CharacterDifferentiator == "" && r.Qualifier == "" && !r.IsAlternate
}

type CastMember struct {
	Name           string `json:"name" validate:"max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
	Roles          []Role `json:"roles" validate:"dive"`
}

func (m CastMember) Ref() NamedRef {
	return NamedRef{Name: m.Name, Differentiator: m.Differentiator}
}

type StagingPayload struct {
	Name            string          `json:"name" validate:"required,max=1000"`
	Subtitle        string          `json:"subtitle" validate:"max=1000"`
	StartDate       string          `json:"startDate" validate:"max=10"`
	PressDate       string          `json:"pressDate" validate:"max=10"`
	EndDate         string          `json:"endDate" validate:"max=10"`
	Work            NamedRef        `json:"work"`
	Venue           NamedRef        `json:"venue"`
	SubStagings     []StagingRef    `json:"subStagings" validate:"dive"`
	ProducerCredits []StagingCredit `json:"producerCredits" validate:"dive"`
	CreativeCredits []StagingCredit `json:"creativeCredits" validate:"dive"`
	CrewCredits     []StagingCredit `json:"crewCredits" validate:"dive"`
	Cast            []CastMember    `json:"cast" validate:"dive"`
}

func (p *StagingPayload) Kind() Kind { return KindStaging }

func (p *StagingPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Subtitle = strings.TrimSpace(p.Subtitle)
	p.StartDate = strings.TrimSpace(p.StartDate)
	p.PressDate = strings.TrimSpace(p.PressDate)
	p.EndDate = strings.TrimSpace(p.EndDate)
	p.Work.normalize()
	p.Venue.normalize()
	for i := range p.SubStagings {
		p.SubStagings[i].ID = strings.TrimSpace(p.SubStagings[i].ID)
	}
	for _, credits := range [][]StagingCredit{p.ProducerCredits, p.CreativeCredits, p.CrewCredits} {
		for i := range credits {
			credits[i].Name = strings.TrimSpace(credits[i].Name)
			for j := range credits[i].Entities {
				credits[i].Entities[j].normalize()
			}
		}
	}
	for i := range p.Cast {
		m := &p.Cast[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Differentiator = strings.TrimSpace(m.Differentiator)
		for j := range m.Roles {
			r := &m.Roles[j]
			r.Name = strings.TrimSpace(r.Name)
			r.CharacterName = strings.TrimSpace(r.CharacterName)
			r.CharacterDifferentiator = strings.TrimSpace(r.CharacterDifferentiator)
			r.Qualifier = strings.TrimSpace(r.Qualifier)
		}
	}
}

type VenuePayload struct {
	Name           string     `json:"name" validate:"required,max=1000"`
	Differentiator string     `json:"differentiator" validate:"max=1000"`
	SubVenues      []NamedRef `json:"subVenues" validate:"dive"`
}

func (p *VenuePayload) Kind() Kind { return KindVenue }

func (p *VenuePayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
	for i := range p.SubVenues {
		p.SubVenues[i].normalize()
	}
}

type PersonPayload struct {
	Name           string `json:"name" validate:"required,max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (p *PersonPayload) Kind() Kind { return KindPerson }

func (p *PersonPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
}

type CompanyPayload struct {
	Name           string `json:"name" validate:"required,max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (p *CompanyPayload) Kind() Kind { return KindCompany }

func (p *CompanyPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
}

type CharacterPayload struct {
	Name           string `json:"name" validate:"required,max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (p *CharacterPayload) Kind() Kind { return KindCharacter }

func (p *CharacterPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
}

type AwardPayload struct {
	Name           string `json:"name" validate:"required,max=1000"`
	Differentiator string `json:"differentiator" validate:"max=1000"`
}

func (p *AwardPayload) Kind() Kind { return KindAward }

func (p *AwardPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Differentiator = strings.TrimSpace(p.Differentiator)
}

type NominationPayload struct {
	IsWinner   bool             `json:"isWinner"`
	CustomType string           `json:"customType" validate:"max=1000"`
	Entities   []CreditedEntity `json:"entities" validate:"dive"`
	Stagings   []StagingRef     `json:"stagings" validate:"dive"`
	Works      []NamedRef       `json:"works" validate:"dive"`
}

func (n NominationPayload) IsEmpty() bool {
	if n.IsWinner || n.CustomType != "" {
		return false
	}
	for _, e := range n.Entities {
		if !e.IsEmpty() {
			return false
		}
	}
	for _, s := range n.Stagings {
		if !s.IsEmpty() {
			return false
		}
	}
	for _, w := range n.Works {
		if !w.IsEmpty() {
			return false
		}
	}
	return true
}

type CategoryPayload struct {
	Name        string              `json:"name" validate:"max=1000"`
	Nominations []NominationPayload `json:"nominations" validate:"dive"`
}

type AwardCeremonyPayload struct {
	Name       string            `json:"name" validate:"required,max=1000"`
	Award      NamedRef          `json:"award"`
	Categories []CategoryPayload `json:"categories" validate:"dive"`
}

func (p *AwardCeremonyPayload) Kind() Kind { return KindAwardCeremony }

func (p *AwardCeremonyPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Award.normalize()
	for i := range p.Categories {
		c := &p.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		for j := range c.Nominations {
			n := &c.Nominations[j]
			n.CustomType = strings.TrimSpace(n.CustomType)
			for k := range n.Entities {
				n.Entities[k].normalize()
			}
			for k := range n.Stagings {
				n.Stagings[k].ID = strings.TrimSpace(n.Stagings[k].ID)
			}
			for k := range n.Works {
				n.Works[k].normalize()
			}
		}
	}
}
