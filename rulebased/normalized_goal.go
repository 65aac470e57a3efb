package rulebased

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
)

// ErrUnsupportedFeature is returned for goals that carry disequations,
// dissubsumptions or type restrictions.
var ErrUnsupportedFeature = errors.New("unsupported goal feature")

// NormalizedGoal is the live store of flat subsumptions. Subsumptions are
// kept in insertion order, and the body and head indices always agree with
// the membership of the store.
type NormalizedGoal struct {
	atoms *atom.Manager

	subs  []*FlatSubsumption
	byKey map[string]*FlatSubsumption

	// byBody[v] holds the subsumptions with variable v in their body,
	// byHead[v] those with head v.
	byBody map[atom.ID][]*FlatSubsumption
	byHead map[atom.ID][]*FlatSubsumption

	maxSize int
}

func newNormalizedGoal(m *atom.Manager) *NormalizedGoal {
	return &NormalizedGoal{
		atoms:  m,
		byKey:  make(map[string]*FlatSubsumption),
		byBody: make(map[atom.ID][]*FlatSubsumption),
		byHead: make(map[atom.ID][]*FlatSubsumption),
	}
}

// checkSupported rejects goals that need negative constraints or typing.
func checkSupported(g *goal.Goal) error {
	var mErr multierror.Error
	if g.HasNegativePart() {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("%w: disequations and dissubsumptions (%d)",
			ErrUnsupportedFeature, len(g.Disequations)+len(g.Dissubsumptions)))
	}
	if len(g.Types) > 0 {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("%w: type restrictions (%d)",
			ErrUnsupportedFeature, len(g.Types)))
	}
	return mErr.ErrorOrNil()
}

// NewNormalizedGoal flattens the constraints of g into subsumptions with a
// single head atom:
//
//	X ≡ ⊓R     gives X ⊑ r for each r in R, and ⊓R ⊑ X
//	X ⊑ ⊓R     (primitive) gives X ⊑ r for each r in R
//	⊓L ≡ ⊓R    gives ⊓L ⊑ r and ⊓R ⊑ l for each r in R, l in L
//	⊓B ⊑ ⊓H    gives ⊓B ⊑ h for each h in H
func NewNormalizedGoal(g *goal.Goal) (*NormalizedGoal, error) {
	if err := checkSupported(g); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	n := newNormalizedGoal(g.Atoms)
	for _, d := range g.Definitions {
		lhs := []atom.ID{d.Definiendum}
		for _, r := range d.Right {
			n.Add(NewFlatSubsumption(lhs, r))
		}
		if !d.Primitive {
			n.Add(NewFlatSubsumption(d.Right, d.Definiendum))
		}
	}
	for _, e := range g.Equations {
		for _, r := range e.Right {
			n.Add(NewFlatSubsumption(e.Left, r))
		}
		for _, l := range e.Left {
			n.Add(NewFlatSubsumption(e.Right, l))
		}
	}
	for _, s := range g.Subsumptions {
		for _, h := range s.Head {
			n.Add(NewFlatSubsumption(s.Body, h))
		}
	}
	return n, nil
}

// Add inserts s unless a structurally equal subsumption is present, and
// reports whether it was inserted.
func (n *NormalizedGoal) Add(s *FlatSubsumption) bool {
	if _, ok := n.byKey[s.key]; ok {
		return false
	}
	n.byKey[s.key] = s
	n.subs = append(n.subs, s)
	if len(n.subs) > n.maxSize {
		n.maxSize = len(n.subs)
	}
	for _, id := range s.body {
		if n.atoms.IsVariable(id) {
			n.byBody[id] = append(n.byBody[id], s)
		}
	}
	if n.atoms.IsVariable(s.head) {
		n.byHead[s.head] = append(n.byHead[s.head], s)
	}
	return true
}

// AddAll inserts every novel subsumption and reports whether any was.
func (n *NormalizedGoal) AddAll(subs []*FlatSubsumption) bool {
	changed := false
	for _, s := range subs {
		if n.Add(s) {
			changed = true
		}
	}
	return changed
}

// Remove deletes the stored subsumption structurally equal to s. Removal is
// cheapest in reverse insertion order, which is how rollback uses it.
func (n *NormalizedGoal) Remove(s *FlatSubsumption) bool {
	stored, ok := n.byKey[s.key]
	if !ok {
		return false
	}
	delete(n.byKey, s.key)
	n.subs = removeLast(n.subs, stored)
	for _, id := range stored.body {
		if n.atoms.IsVariable(id) {
			n.byBody[id] = removeLast(n.byBody[id], stored)
			if len(n.byBody[id]) == 0 {
				delete(n.byBody, id)
			}
		}
	}
	if n.atoms.IsVariable(stored.head) {
		n.byHead[stored.head] = removeLast(n.byHead[stored.head], stored)
		if len(n.byHead[stored.head]) == 0 {
			delete(n.byHead, stored.head)
		}
	}
	return true
}

// RemoveAll deletes every given subsumption and reports whether any was
// present.
func (n *NormalizedGoal) RemoveAll(subs []*FlatSubsumption) bool {
	changed := false
	for i := len(subs) - 1; i >= 0; i-- {
		if n.Remove(subs[i]) {
			changed = true
		}
	}
	return changed
}

// removeLast deletes the last occurrence of s, preserving order.
func removeLast(list []*FlatSubsumption, s *FlatSubsumption) []*FlatSubsumption {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == s {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// Contains reports whether a subsumption structurally equal to s is stored.
func (n *NormalizedGoal) Contains(s *FlatSubsumption) bool {
	_, ok := n.byKey[s.key]
	return ok
}

// Get returns the stored subsumption structurally equal to s.
func (n *NormalizedGoal) Get(s *FlatSubsumption) (*FlatSubsumption, bool) {
	stored, ok := n.byKey[s.key]
	return stored, ok
}

// ByBodyVariable returns a snapshot of the subsumptions with v in their body.
func (n *NormalizedGoal) ByBodyVariable(v atom.ID) []*FlatSubsumption {
	return append([]*FlatSubsumption(nil), n.byBody[v]...)
}

// ByHeadVariable returns a snapshot of the subsumptions with head v.
func (n *NormalizedGoal) ByHeadVariable(v atom.ID) []*FlatSubsumption {
	return append([]*FlatSubsumption(nil), n.byHead[v]...)
}

// Expand propagates new subsumers into the subsumptions that have their
// variable as head: for every v in diff, every ⊓B ⊑ v and every new subsumer
// a of v it synthesizes ⊓B ⊑ a. Only subsumptions not already stored are
// returned; the store itself is left untouched so that the caller can record
// the insertions.
func (n *NormalizedGoal) Expand(diff *Assignment) []*FlatSubsumption {
	var out []*FlatSubsumption
	seen := make(map[string]struct{})
	for _, v := range diff.Variables() {
		subsumers := diff.Subsumers(v)
		for _, s := range n.byHead[v] {
			out = n.expandInto(out, seen, s, subsumers)
		}
	}
	return out
}

// ExpandOne is Expand for a single subsumption whose head is a variable with
// the given subsumers.
func (n *NormalizedGoal) ExpandOne(s *FlatSubsumption, subsumers []atom.ID) []*FlatSubsumption {
	return n.expandInto(nil, make(map[string]struct{}), s, subsumers)
}

func (n *NormalizedGoal) expandInto(out []*FlatSubsumption, seen map[string]struct{}, s *FlatSubsumption, subsumers []atom.ID) []*FlatSubsumption {
	for _, a := range subsumers {
		ns := NewFlatSubsumption(s.body, a)
		if _, dup := seen[ns.key]; dup || n.Contains(ns) {
			continue
		}
		seen[ns.key] = struct{}{}
		out = append(out, ns)
	}
	return out
}

// FirstUnsolved returns the earliest inserted subsumption that is not solved.
func (n *NormalizedGoal) FirstUnsolved() *FlatSubsumption {
	for _, s := range n.subs {
		if !s.solved {
			return s
		}
	}
	return nil
}

// All returns a snapshot of the store in insertion order.
func (n *NormalizedGoal) All() []*FlatSubsumption {
	return append([]*FlatSubsumption(nil), n.subs...)
}

// Size is the current number of subsumptions.
func (n *NormalizedGoal) Size() int { return len(n.subs) }

// MaxSize is the largest size the store ever reached.
func (n *NormalizedGoal) MaxSize() int { return n.maxSize }
