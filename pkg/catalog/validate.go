package catalog

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/hierarchy"

	"github.com/go-playground/validator"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors runs the struct tags of p and converts failures to
// dot/index paths.
func fieldErrors(v *validator.Validate, p common.Payload) (common.FieldErrors, error) {
	errs := common.FieldErrors{}
	err := v.Struct(p)
	if err == nil {
		return errs, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		errs.Add(fieldPath(fe.Namespace()), tagMessage(fe.Tag(), fe.Param()))
	}
	return errs, nil
}

// fieldPath turns "WorkPayload.writingCredits[0].name" into
// "writingCredits.0.name".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func tagMessage(tag, param string) string {
	switch tag {
	case "required", "min":
		return common.MsgTooShort
	case "max":
		return common.MsgTooLong
	case "oneof":
		return "Value must be one of " + strings.Join(strings.Fields(param), ", ")
	}
	return MsgInvalidValue
}

// checks collects the hand-written rules that struct tags cannot express.
type checks struct {
	errs    common.FieldErrors
	selfKey string
}

func (c *checks) namedRef(path string, r common.NamedRef) {
	if !r.IsEmpty() && r.Name == "" {
		c.errs.Add(common.Path(path, "name"), common.MsgTooShort)
	}
}

func (c *checks) duplicates(paths []string, keys []string) {
	dups := hierarchy.DuplicateKeys(keys)
	for i, k := range keys {
		if dups[k] {
			c.errs.Add(paths[i], common.MsgDuplicateInList)
		}
	}
}

func (c *checks) date(path, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		c.errs.Add(path, MsgInvalidDate)
		return time.Time{}, false
	}
	return t, true
}

func entityKey(model string, r common.NamedRef) string {
	if model == "" {
		model = string(common.LabelPerson)
	}
	return model + "\x00" + r.Key()
}

func (c *checks) work(p *common.WorkPayload) {
	c.namedRef("originalVersionWork", p.OriginalVersionWork)

	var paths, keys []string
	for i, s := range p.SubWorks {
		if s.IsEmpty() {
			continue
		}
		c.namedRef(common.Path("subWorks", i), s)
		paths = append(paths, common.Path("subWorks", i))
		keys = append(keys, s.Key())
	}
	c.duplicates(paths, keys)

	for i, credit := range p.WritingCredits {
		paths, keys = nil, nil
		for j, e := range credit.Entities {
			if e.IsEmpty() {
				continue
			}
			path := common.Path("writingCredits", i, "entities", j)
			c.namedRef(path, e.Ref())
			if common.Label(e.Model) == common.LabelWork && e.Ref().Key() == c.selfKey {
				c.errs.Add(path, common.MsgSelfAssociation)
			}
			paths = append(paths, path)
			keys = append(keys, entityKey(e.Model, e.Ref()))
		}
		c.duplicates(paths, keys)
	}

	for i, g := range p.CharacterGroups {
		paths, keys = nil, nil
		for j, ch := range g.Characters {
			if ch.IsEmpty() {
				continue
			}
			path := common.Path("characterGroups", i, "characters", j)
			if ch.Name == "" {
				c.errs.Add(common.Path(path, "name"), common.MsgTooShort)
			}
			paths = append(paths, path)
			keys = append(keys, strings.Join([]string{ch.Name, ch.UnderlyingName, ch.Differentiator, ch.Qualifier}, "\x00"))
		}
		c.duplicates(paths, keys)
	}
}

func (c *checks) creditedEntities(base string, list []common.CreditedEntity) {
	var paths, keys []string
	for j, e := range list {
		if e.IsEmpty() {
			continue
		}
		path := common.Path(base, j)
		if e.Name == "" {
			c.errs.Add(common.Path(path, "name"), common.MsgTooShort)
		}
		paths = append(paths, path)
		keys = append(keys, entityKey(e.Model, e.Ref()))

		var mPaths, mKeys []string
		for k, m := range e.Members {
			if m.IsEmpty() {
				continue
			}
			mPath := common.Path(path, "members", k)
			c.namedRef(mPath, m)
			mPaths = append(mPaths, mPath)
			mKeys = append(mKeys, m.Key())
		}
		c.duplicates(mPaths, mKeys)
	}
	c.duplicates(paths, keys)
}

func (c *checks) staging(p *common.StagingPayload) {
	c.namedRef("work", p.Work)
	c.namedRef("venue", p.Venue)

	start, hasStart := c.date("startDate", p.StartDate)
	c.date("pressDate", p.PressDate)
	end, hasEnd := c.date("endDate", p.EndDate)
	if hasStart && hasEnd && end.Before(start) {
		c.errs.Add("endDate", MsgEndBeforeStart)
	}

	for _, group := range []struct {
		field string
		list  []common.StagingCredit
	}{
		{"producerCredits", p.ProducerCredits},
		{"creativeCredits", p.CreativeCredits},
		{"crewCredits", p.CrewCredits},
	} {
		for i, credit := range group.list {
			c.creditedEntities(common.Path(group.field, i, "entities"), credit.Entities)
		}
	}

	var paths, keys []string
	for i, m := range p.Cast {
		if m.Ref().IsEmpty() {
			continue
		}
		path := common.Path("cast", i)
		c.namedRef(path, m.Ref())
		paths = append(paths, path)
		keys = append(keys, m.Ref().Key())
	}
	c.duplicates(paths, keys)
}

func (c *checks) venue(p *common.VenuePayload) {
	for i, s := range p.SubVenues {
		c.namedRef(common.Path("subVenues", i), s)
	}
}

func (c *checks) ceremony(p *common.AwardCeremonyPayload) {
	c.namedRef("award", p.Award)
	if p.Award.IsEmpty() {
		c.errs.Add(common.Path("award", "name"), common.MsgTooShort)
	}

	var catPaths, catKeys []string
	for i, cat := range p.Categories {
		base := common.Path("categories", i)
		hasNominations := false
		for j, n := range cat.Nominations {
			if n.IsEmpty() {
				continue
			}
			hasNominations = true
			nBase := common.Path(base, "nominations", j)
			c.creditedEntities(common.Path(nBase, "entities"), n.Entities)

			var paths, keys []string
			for k, s := range n.Stagings {
				if s.IsEmpty() {
					continue
				}
				paths = append(paths, common.Path(nBase, "stagings", k))
				keys = append(keys, s.ID)
			}
			c.duplicates(paths, keys)

			paths, keys = nil, nil
			for k, w := range n.Works {
				if w.IsEmpty() {
					continue
				}
				path := common.Path(nBase, "works", k)
				c.namedRef(path, w)
				paths = append(paths, path)
				keys = append(keys, w.Key())
			}
			c.duplicates(paths, keys)
		}
		if cat.Name == "" && !hasNominations {
			continue
		}
		if cat.Name == "" {
			c.errs.Add(common.Path(base, "name"), common.MsgTooShort)
		}
		catPaths = append(catPaths, base)
		catKeys = append(catKeys, cat.Name)
	}
	c.duplicates(catPaths, catKeys)
}
