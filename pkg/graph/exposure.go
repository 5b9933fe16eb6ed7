package graph

import (
	"context"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Role records why a node belongs to an exposure set.
type Role uint16

const (
	RoleSubject Role = 1 << iota
	RoleSur
	RoleSub
	RoleSubsequentVersion
	RoleSourcing
	RoleRightsGranted
)

func (r Role) Has(o Role) bool {
	return r&o != 0
}

// Member is one node of an exposure set. Anchor is the node whose
// hierarchy the member was reached through; Priority is its insertion rank.
type Member struct {
	NodeRef
	Roles    Role
	AnchorID string
	Priority int
}

// ExposureSet is an insertion-ordered set of nodes associated with a subject.
type ExposureSet struct {
	members []Member
	index   map[string]int
}

func NewExposureSet() *ExposureSet {
	return &ExposureSet{index: make(map[string]int)}
}

// Add inserts ref or merges roles into an existing member. The first
// insertion keeps its anchor and priority.
func (s *ExposureSet) Add(ref NodeRef, roles Role, anchorID string) {
	if i, ok := s.index[ref.ID]; ok {
		s.members[i].Roles |= roles
		return
	}
	s.index[ref.ID] = len(s.members)
	s.members = append(s.members, Member{
		NodeRef:  ref,
		Roles:    roles,
		AnchorID: anchorID,
		Priority: len(s.members),
	})
}

func (s *ExposureSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

func (s *ExposureSet) Members() []Member {
	if s == nil {
		return nil
	}
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

func (s *ExposureSet) Get(id string) (Member, bool) {
	if s == nil {
		return Member{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Member{}, false
	}
	return s.members[i], true
}

func (s *ExposureSet) Contains(id string) bool {
	_, ok := s.Get(id)
	return ok
}

func (s *ExposureSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.members))
	for i, m := range s.members {
		ids[i] = m.ID
	}
	return ids
}

// AssociatedSet is the subject, its sur (one hop) and its subs (one or two
// hops). The sur of the sur is not included.
func (n *Navigator) AssociatedSet(ctx context.Context, id string) (*ExposureSet, error) {
	subject, err := n.r.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	set, err := n.expand(ctx, []NodeRef{RefOf(subject)}, RoleSubject)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "associated", id, set.IDs())
	return set, nil
}

// SubsequentVersionSet expands every direct subsequent version of a work
// with its own sur and subs.
func (n *Navigator) SubsequentVersionSet(ctx context.Context, workID string) (*ExposureSet, error) {
	anchors, err := n.Neighbors(ctx, workID, ChannelVersionSubsequent)
	if err != nil {
		return nil, err
	}
	set, err := n.expand(ctx, anchors, RoleSubsequentVersion)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "subsequentVersion", workID, set.IDs())
	return set, nil
}

// SourcingSet expands every work that credits workID as source material.
func (n *Navigator) SourcingSet(ctx context.Context, workID string) (*ExposureSet, error) {
	anchors, err := n.Neighbors(ctx, workID, ChannelSourcedBy)
	if err != nil {
		return nil, err
	}
	set, err := n.expand(ctx, anchors, RoleSourcing)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "sourcing", workID, set.IDs())
	return set, nil
}

// CreditedWorks returns the works crediting entityID with the given credit
// type, ordered by name.
func (n *Navigator) CreditedWorks(ctx context.Context, entityID string, ct common.CreditType) ([]NodeRef, error) {
	edges, err := n.r.InEdges(ctx, []string{entityID}, common.EdgeContributedBy)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range edges {
		if common.ParseCreditType(e.Props.String(common.PropCreditType)) == ct {
			ids = append(ids, e.SourceID)
		}
	}
	nodes, err := n.r.GetNodes(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out []NodeRef
	for _, id := range store.DedupeStrings(ids) {
		if node, ok := nodes[id]; ok && node.Label == common.LabelWork {
			out = append(out, RefOf(node))
		}
	}
	SortRefs(out)
	return out, nil
}

// EntitySubsequentVersionSet starts from the works entityID writes and
// expands their subsequent versions, skipping versions it also writes.
func (n *Navigator) EntitySubsequentVersionSet(ctx context.Context, entityID string) (*ExposureSet, error) {
	set, err := n.entityDerivedSet(ctx, entityID, ChannelVersionSubsequent, RoleSubsequentVersion)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "subsequentVersion", entityID, set.IDs())
	return set, nil
}

// EntitySourcingSet starts from the works entityID writes and expands the
// works sourcing them, skipping works it also writes.
func (n *Navigator) EntitySourcingSet(ctx context.Context, entityID string) (*ExposureSet, error) {
	set, err := n.entityDerivedSet(ctx, entityID, ChannelSourcedBy, RoleSourcing)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "sourcing", entityID, set.IDs())
	return set, nil
}

func (n *Navigator) entityDerivedSet(ctx context.Context, entityID string, ch Channel, role Role) (*ExposureSet, error) {
	written, err := n.CreditedWorks(ctx, entityID, common.CreditWriter)
	if err != nil {
		return nil, err
	}
	writtenIDs := make(map[string]struct{}, len(written))
	ids := make([]string, len(written))
	for i, w := range written {
		writtenIDs[w.ID] = struct{}{}
		ids[i] = w.ID
	}

	derived, err := n.NeighborsMany(ctx, ids, ch)
	if err != nil {
		return nil, err
	}

	var anchors []NodeRef
	seen := make(map[string]struct{})
	for _, id := range ids {
		for _, ref := range derived[id] {
			if _, own := writtenIDs[ref.ID]; own {
				continue
			}
			if _, dup := seen[ref.ID]; dup {
				continue
			}
			seen[ref.ID] = struct{}{}
			anchors = append(anchors, ref)
		}
	}
	return n.expand(ctx, anchors, role)
}

// RightsGrantorSet is the associated set of every work entityID grants
// rights for.
func (n *Navigator) RightsGrantorSet(ctx context.Context, entityID string) (*ExposureSet, error) {
	works, err := n.CreditedWorks(ctx, entityID, common.CreditRightsGrantor)
	if err != nil {
		return nil, err
	}
	set, err := n.expand(ctx, works, RoleRightsGranted)
	if err != nil {
		return nil, err
	}
	recordExposure(n.trace, "rightsGrantor", entityID, set.IDs())
	return set, nil
}

// expand adds each anchor, then its sur and its subs down two hops. SUR and
// SUB are queried concurrently and joined before the set is assembled.
func (n *Navigator) expand(ctx context.Context, anchors []NodeRef, anchorRole Role) (*ExposureSet, error) {
	set := NewExposureSet()
	if len(anchors) == 0 {
		return set, nil
	}

	ids := make([]string, len(anchors))
	for i, a := range anchors {
		ids[i] = a.ID
	}

	var surs, subs map[string][]NodeRef
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(n.parallelism)
	eg.Go(func() error {
		var err error
		surs, err = n.NeighborsMany(ectx, ids, ChannelSur)
		return err
	})
	eg.Go(func() error {
		var err error
		subs, err = n.NeighborsMany(ectx, ids, ChannelSub)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var subIDs []string
	for _, id := range ids {
		for _, s := range subs[id] {
			subIDs = append(subIDs, s.ID)
		}
	}
	grand, err := n.NeighborsMany(ctx, subIDs, ChannelSub)
	if err != nil {
		return nil, err
	}

	for _, a := range anchors {
		set.Add(a, anchorRole, a.ID)
		for _, s := range surs[a.ID] {
			set.Add(s, RoleSur, a.ID)
		}
		for _, s := range subs[a.ID] {
			set.Add(s, RoleSub, a.ID)
		}
		for _, s := range subs[a.ID] {
			for _, g := range grand[s.ID] {
				set.Add(g, RoleSub, a.ID)
			}
		}
	}
	return set, nil
}
