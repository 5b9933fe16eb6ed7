// Package hierarchy enforces composition and version-chain rules before a
// write touches the graph.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// Kind describes a composable entity kind.
type Kind struct {
	Label    common.Label
	Noun     string
	MaxTiers int
}

var (
	Work    = Kind{Label: common.LabelWork, Noun: "work", MaxTiers: 3}
	Staging = Kind{Label: common.LabelStaging, Noun: "production", MaxTiers: 3}
	Venue   = Kind{Label: common.LabelVenue, Noun: "venue", MaxTiers: 2}
)

func (k Kind) maxHops() int {
	return k.MaxTiers - 1
}

func tierWord(n int) string {
	switch n {
	case 2:
		return "two"
	case 3:
		return "three"
	}
	return fmt.Sprintf("%d", n)
}

func (k Kind) msgSelf() string {
	return fmt.Sprintf("%s cannot be assigned as a sub-%s of itself", capitalize(k.Noun), k.Noun)
}

func (k Kind) msgIsSur() string {
	return fmt.Sprintf("%s is this %s's sur-%s", capitalize(k.Noun), k.Noun, k.Noun)
}

func (k Kind) msgAssigned() string {
	return fmt.Sprintf("%s is already assigned to another sur-%s", capitalize(k.Noun), k.Noun)
}

func (k Kind) msgSurMost() string {
	return fmt.Sprintf("%s is the sur-most %s of a %s-tier %s collection",
		capitalize(k.Noun), k.Noun, tierWord(k.MaxTiers), k.Noun)
}

func (k Kind) msgFurtherTier() string {
	return fmt.Sprintf("%s is the sur-most %s of a %s-tier %s collection and cannot receive a further tier",
		capitalize(k.Noun), k.Noun, tierWord(k.MaxTiers-1), k.Noun)
}

func (k Kind) msgSubMost() string {
	return fmt.Sprintf("%s cannot be assigned to the sub-most %s of a %s-tier %s collection",
		capitalize(k.Noun), k.Noun, tierWord(k.MaxTiers), k.Noun)
}

func (k Kind) msgMissing() string {
	return fmt.Sprintf("%s %s", capitalize(k.Noun), common.MsgDoesNotExist)
}

const (
	MsgOwnOriginalVersion = "Work cannot be its own original version"
	MsgSubsequentVersion  = "Work is a subsequent version of this work"
)

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Candidate is a proposed sub record.
type Candidate struct {
	// Path is the error key for messages about this candidate.
	Path string
	// ID is the existing node, or empty when the candidate will be created.
	ID string
	// Key detects duplicates within the group.
	Key string
	// MustExist rejects candidates without a matching node.
	MustExist bool
}

// Validator checks hierarchy writes against the current graph.
type Validator struct {
	nav *graph.Navigator
}

func New(nav *graph.Navigator) *Validator {
	return &Validator{nav: nav}
}

// ValidateSubs checks the candidate subs of recordID. recordID is empty for
// a record that does not exist yet; selfKey is the record's identity key
// after the write.
func (v *Validator) ValidateSubs(
	ctx context.Context,
	kind Kind,
	recordID string,
	selfKey string,
	candidates []Candidate,
) (common.FieldErrors, error) {
	errs := common.FieldErrors{}
	if len(candidates) == 0 {
		return errs, nil
	}

	markDuplicates(errs, candidates)

	var ancestors []graph.NodeRef
	if recordID != "" {
		var err error
		ancestors, err = v.nav.Ancestors(ctx, recordID, kind.maxHops())
		if err != nil {
			return nil, err
		}
	}
	depth := len(ancestors)
	ancestorIDs := make(map[string]struct{}, len(ancestors))
	for _, a := range ancestors {
		ancestorIDs[a.ID] = struct{}{}
	}

	for _, c := range candidates {
		if (c.ID != "" && c.ID == recordID) || (c.Key != "" && c.Key == selfKey) {
			errs.Add(c.Path, kind.msgSelf())
			continue
		}

		if c.ID == "" {
			if c.MustExist {
				errs.Add(c.Path, kind.msgMissing())
			}
			continue
		}

		node, err := v.nav.Reader().GetNode(ctx, c.ID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && node.Label != kind.Label) {
			errs.Add(c.Path, kind.msgMissing())
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, ok := ancestorIDs[c.ID]; ok {
			errs.Add(c.Path, kind.msgIsSur())
			continue
		}

		surs, err := v.nav.Neighbors(ctx, c.ID, graph.ChannelSur)
		if err != nil {
			return nil, err
		}
		if len(surs) > 0 && surs[0].ID != recordID {
			errs.Add(c.Path, kind.msgAssigned())
		}

		height, err := v.nav.Height(ctx, c.ID, kind.maxHops())
		if err != nil {
			return nil, err
		}
		switch {
		case height >= kind.maxHops():
			errs.Add(c.Path, kind.msgSurMost())
		case depth >= kind.maxHops():
			errs.Add(c.Path, kind.msgSubMost())
		case depth+1+height > kind.maxHops():
			errs.Add(c.Path, kind.msgFurtherTier())
		}
	}

	if !errs.Empty() {
		logger.Debug("[Hierarchy] Rejected sub assignment", "kind", kind.Noun, "id", recordID, "errors", errs.String())
	}
	return errs, nil
}

// ValidateOriginalVersion checks the proposed original of a work.
func (v *Validator) ValidateOriginalVersion(
	ctx context.Context,
	recordID string,
	selfKey string,
	original Candidate,
) (common.FieldErrors, error) {
	errs := common.FieldErrors{}
	if (original.ID != "" && original.ID == recordID) || (original.Key != "" && original.Key == selfKey) {
		errs.Add(original.Path, MsgOwnOriginalVersion)
		return errs, nil
	}
	if original.ID == "" || recordID == "" {
		return errs, nil
	}

	chain, err := v.nav.VersionChain(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	for _, ref := range chain {
		if ref.ID == recordID {
			errs.Add(original.Path, MsgSubsequentVersion)
			break
		}
	}
	return errs, nil
}

// markDuplicates flags every candidate whose key occurs more than once.
func markDuplicates(errs common.FieldErrors, candidates []Candidate) {
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if c.Key != "" {
			counts[c.Key]++
		}
	}
	for _, c := range candidates {
		if counts[c.Key] > 1 {
			errs.Add(c.Path, common.MsgDuplicateInList)
		}
	}
}

// DuplicateKeys reports which keys occur more than once. Used by callers
// for groups that are not hierarchies, such as credited entities.
func DuplicateKeys(keys []string) map[string]bool {
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		if k != "" {
			counts[k]++
		}
	}
	out := make(map[string]bool)
	for k, n := range counts {
		if n > 1 {
			out[k] = true
		}
	}
	return out
}
