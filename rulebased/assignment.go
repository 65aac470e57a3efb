package rulebased

import (
	"cmp"
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/nodeadmin/uel/atom"
)

// Assignment maps variables to their sets of non-variable subsumers: the
// substitution σ(X) = ⊓S_X under construction. The assignments kept by the
// algorithm are acyclic: no variable is reachable from its own subsumers by
// following the fillers of existential restrictions.
type Assignment struct {
	atoms *atom.Manager
	subs  map[atom.ID]*set.TreeSet[atom.ID]
}

// NewAssignment returns an empty assignment. m may be nil for assignments
// only used as diffs, in which case the cycle tests must not be called.
func NewAssignment(m *atom.Manager) *Assignment {
	return &Assignment{atoms: m, subs: make(map[atom.ID]*set.TreeSet[atom.ID])}
}

func newSubsumerSet() *set.TreeSet[atom.ID] {
	return set.NewTreeSet[atom.ID](cmp.Compare[atom.ID])
}

// Add inserts a subsumer of v and reports whether it was new.
func (a *Assignment) Add(v, s atom.ID) bool {
	ts, ok := a.subs[v]
	if !ok {
		ts = newSubsumerSet()
		a.subs[v] = ts
	}
	return ts.Insert(s)
}

// AddAll inserts subsumers of v and reports whether any was new.
func (a *Assignment) AddAll(v atom.ID, ss []atom.ID) bool {
	changed := false
	for _, s := range ss {
		if a.Add(v, s) {
			changed = true
		}
	}
	return changed
}

// Remove deletes a subsumer of v and reports whether it was present.
func (a *Assignment) Remove(v, s atom.ID) bool {
	ts, ok := a.subs[v]
	if !ok || !ts.Remove(s) {
		return false
	}
	if ts.Empty() {
		delete(a.subs, v)
	}
	return true
}

// Merge adds every entry of other and reports whether anything changed.
func (a *Assignment) Merge(other *Assignment) bool {
	changed := false
	for v, ts := range other.subs {
		if a.AddAll(v, ts.Slice()) {
			changed = true
		}
	}
	return changed
}

// Subtract removes every entry of other and reports whether anything changed.
func (a *Assignment) Subtract(other *Assignment) bool {
	changed := false
	for v, ts := range other.subs {
		for _, s := range ts.Slice() {
			if a.Remove(v, s) {
				changed = true
			}
		}
	}
	return changed
}

// Subsumers returns the subsumers of v in ascending order. An absent
// variable has no subsumers.
func (a *Assignment) Subsumers(v atom.ID) []atom.ID {
	ts, ok := a.subs[v]
	if !ok {
		return nil
	}
	return ts.Slice()
}

// IsSubsumer reports whether s is a subsumer of v.
func (a *Assignment) IsSubsumer(v, s atom.ID) bool {
	ts, ok := a.subs[v]
	return ok && ts.Contains(s)
}

// Variables returns the variables with at least one subsumer, ascending.
func (a *Assignment) Variables() []atom.ID {
	vars := make([]atom.ID, 0, len(a.subs))
	for v := range a.subs {
		vars = append(vars, v)
	}
	slices.Sort(vars)
	return vars
}

func (a *Assignment) IsEmpty() bool { return len(a.subs) == 0 }

// Size is the total number of (variable, subsumer) pairs.
func (a *Assignment) Size() int {
	n := 0
	for _, ts := range a.subs {
		n += ts.Size()
	}
	return n
}

func (a *Assignment) Copy() *Assignment {
	c := NewAssignment(a.atoms)
	c.Merge(a)
	return c
}

// Equal reports whether both assignments have the same entries.
func (a *Assignment) Equal(o *Assignment) bool {
	if len(a.subs) != len(o.subs) {
		return false
	}
	for v, ts := range a.subs {
		ots, ok := o.subs[v]
		if !ok || !slices.Equal(ts.Slice(), ots.Slice()) {
			return false
		}
	}
	return true
}

// filler returns the variable filler of s if s is a non-ground existential
// restriction.
func (a *Assignment) filler(s atom.ID) (atom.ID, bool) {
	at := a.atoms.Atom(s)
	if !at.IsExistential() || a.atoms.IsGround(s) {
		return 0, false
	}
	return at.Child, true
}

// DependsOn reports whether w is reachable from the subsumers of v by
// repeatedly stepping into the variable fillers of existential
// restrictions, i.e. whether σ(v) mentions w.
func (a *Assignment) DependsOn(v, w atom.ID) bool {
	visited := make(map[atom.ID]struct{})
	stack := []atom.ID{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}

		for _, s := range a.Subsumers(cur) {
			child, ok := a.filler(s)
			if !ok {
				continue
			}
			if child == w {
				return true
			}
			stack = append(stack, child)
		}
	}
	return false
}

// MakesCyclic reports whether adding the given subsumers to v would close a
// cycle. Every rule that proposes v ⊑ s must check this first.
func (a *Assignment) MakesCyclic(v atom.ID, ss ...atom.ID) bool {
	for _, s := range ss {
		child, ok := a.filler(s)
		if !ok {
			continue
		}
		if child == v || a.DependsOn(child, v) {
			return true
		}
	}
	return false
}

// IsAcyclic reports whether no variable depends on itself.
func (a *Assignment) IsAcyclic() bool {
	for v := range a.subs {
		if a.DependsOn(v, v) {
			return false
		}
	}
	return true
}
