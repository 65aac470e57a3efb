package rulebased

import (
	"github.com/nodeadmin/uel/atom"
)

// Eager rules are deterministic: each has at most one application per
// subsumption, and an applicable eager rule either solves the subsumption or
// shows that the current branch has no solution.

type eagerRule struct {
	atoms *atom.Manager
}

func (eagerRule) NextApplication(*FlatSubsumption, *Assignment, Application) (Application, bool) {
	return Application{}, false
}

func (r eagerRule) app(id RuleID, at atom.ID) (Application, bool) {
	return Application{Rule: id, Index: -1, Atom: at}, true
}

// EagerGroundSolvingRule decides ground subsumptions. A ground subsumption
// holds iff its head occurs in its body, and since it can never gain new
// subsumers, a ground subsumption that does not hold fails the branch.
type EagerGroundSolvingRule struct{ eagerRule }

func (EagerGroundSolvingRule) ID() RuleID { return RuleEagerGroundSolving }

func (r EagerGroundSolvingRule) FirstApplication(sub *FlatSubsumption, _ *Assignment) (Application, bool) {
	if !sub.IsGround(r.atoms) {
		return Application{}, false
	}
	return r.app(RuleEagerGroundSolving, sub.head)
}

func (r EagerGroundSolvingRule) Apply(sub *FlatSubsumption, _ *Assignment, app Application) *Result {
	mustOwn(RuleEagerGroundSolving, app)
	if sub.BodyContains(sub.head) {
		return solvedBy(sub, app)
	}
	return failed(sub, app)
}

// EagerSolving1Rule solves subsumptions whose head occurs in the body.
type EagerSolving1Rule struct{ eagerRule }

func (EagerSolving1Rule) ID() RuleID { return RuleEagerSolving1 }

func (r EagerSolving1Rule) FirstApplication(sub *FlatSubsumption, _ *Assignment) (Application, bool) {
	if !sub.BodyContains(sub.head) {
		return Application{}, false
	}
	return r.app(RuleEagerSolving1, sub.head)
}

func (r EagerSolving1Rule) Apply(sub *FlatSubsumption, _ *Assignment, app Application) *Result {
	mustOwn(RuleEagerSolving1, app)
	return solvedBy(sub, app)
}

// EagerConflictRule detects subsumptions that no assignment can satisfy: the
// body has no variable that could absorb the head, and the head is a
// constant missing from the body or an existential restriction whose role
// occurs in no existential restriction of the body.
type EagerConflictRule struct{ eagerRule }

func (EagerConflictRule) ID() RuleID { return RuleEagerConflict }

func (r EagerConflictRule) FirstApplication(sub *FlatSubsumption, _ *Assignment) (Application, bool) {
	if r.atoms.IsVariable(sub.head) {
		return Application{}, false
	}
	for _, id := range sub.body {
		if r.atoms.IsVariable(id) {
			return Application{}, false
		}
	}

	head := r.atoms.Atom(sub.head)
	if head.IsConceptName() {
		if sub.BodyContains(sub.head) {
			return Application{}, false
		}
		return r.app(RuleEagerConflict, sub.head)
	}
	for _, id := range sub.body {
		at := r.atoms.Atom(id)
		if at.IsExistential() && at.Role == head.Role {
			return Application{}, false
		}
	}
	return r.app(RuleEagerConflict, sub.head)
}

func (r EagerConflictRule) Apply(sub *FlatSubsumption, _ *Assignment, app Application) *Result {
	mustOwn(RuleEagerConflict, app)
	return failed(sub, app)
}

// EagerSolving2Rule solves subsumptions where some body variable already has
// the head among its subsumers.
type EagerSolving2Rule struct{ eagerRule }

func (EagerSolving2Rule) ID() RuleID { return RuleEagerSolving2 }

func (r EagerSolving2Rule) FirstApplication(sub *FlatSubsumption, a *Assignment) (Application, bool) {
	for _, v := range sub.BodyVariables(r.atoms) {
		if a.IsSubsumer(v, sub.head) {
			return r.app(RuleEagerSolving2, v)
		}
	}
	return Application{}, false
}

func (r EagerSolving2Rule) Apply(sub *FlatSubsumption, _ *Assignment, app Application) *Result {
	mustOwn(RuleEagerSolving2, app)
	return solvedBy(sub, app)
}

// EagerExtensionRule handles X ⊓ C1 ⊓ ... ⊓ Cn ⊑ D where X is the only body
// variable and every Ci is already a subsumer of X: the body is then
// equivalent to X, so D must become a subsumer of X.
type EagerExtensionRule struct{ eagerRule }

func (EagerExtensionRule) ID() RuleID { return RuleEagerExtension }

func (r EagerExtensionRule) FirstApplication(sub *FlatSubsumption, a *Assignment) (Application, bool) {
	vars := sub.BodyVariables(r.atoms)
	if len(vars) != 1 {
		return Application{}, false
	}
	v := vars[0]
	for _, id := range sub.body {
		if id != v && !a.IsSubsumer(v, id) {
			return Application{}, false
		}
	}
	return r.app(RuleEagerExtension, v)
}

func (r EagerExtensionRule) Apply(sub *FlatSubsumption, a *Assignment, app Application) *Result {
	mustOwn(RuleEagerExtension, app)
	if a.MakesCyclic(app.Atom, sub.head) {
		return failed(sub, app)
	}
	res := solvedBy(sub, app)
	res.addSubsumer(app.Atom, sub.head)
	return res
}
