package rulebased

import (
	"github.com/nodeadmin/uel/atom"
)

type editKind uint8

const (
	editAddSubsumption editKind = iota
	editSolveSubsumption
	editAddSubsumer
)

// edit is one primitive change to the search state.
type edit struct {
	kind     editKind
	sub      *FlatSubsumption
	variable atom.ID
	subsumer atom.ID
}

// trail is the ordered log of every change made to the goal and the
// assignment. All mutations during the search go through it, so that rolling
// back to a mark undoes them exactly, in reverse.
type trail struct {
	goal       *NormalizedGoal
	assignment *Assignment
	edits      []edit
}

func newTrail(g *NormalizedGoal, a *Assignment) *trail {
	return &trail{goal: g, assignment: a}
}

// mark returns a position that rollback can return to.
func (t *trail) mark() int { return len(t.edits) }

// addSubsumption inserts s into the goal if it is novel.
func (t *trail) addSubsumption(s *FlatSubsumption) bool {
	if !t.goal.Add(s) {
		return false
	}
	t.edits = append(t.edits, edit{kind: editAddSubsumption, sub: s})
	return true
}

// solve marks s as solved.
func (t *trail) solve(s *FlatSubsumption) bool {
	if s.solved {
		return false
	}
	s.solved = true
	t.edits = append(t.edits, edit{kind: editSolveSubsumption, sub: s})
	return true
}

// addSubsumer adds s to the subsumers of v.
func (t *trail) addSubsumer(v, s atom.ID) bool {
	if !t.assignment.Add(v, s) {
		return false
	}
	t.edits = append(t.edits, edit{kind: editAddSubsumer, variable: v, subsumer: s})
	return true
}

// rollback undoes every edit made after mark, newest first.
func (t *trail) rollback(mark int) {
	for i := len(t.edits) - 1; i >= mark; i-- {
		e := t.edits[i]
		switch e.kind {
		case editAddSubsumption:
			t.goal.Remove(e.sub)
		case editSolveSubsumption:
			e.sub.solved = false
		case editAddSubsumer:
			t.assignment.Remove(e.variable, e.subsumer)
		}
		t.edits[i] = edit{}
	}
	t.edits = t.edits[:mark]
}
