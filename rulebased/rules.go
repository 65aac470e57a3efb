package rulebased

import (
	"github.com/nodeadmin/uel/atom"
)

// DecompositionRule solves ⊓B ⊑ ∃r.A by choosing a body atom ∃r.B' and
// requiring B' ⊑ A instead. Each matching body atom is one alternative.
type DecompositionRule struct {
	atoms *atom.Manager
	order Order
}

func (DecompositionRule) ID() RuleID { return RuleDecomposition }

func (r DecompositionRule) FirstApplication(sub *FlatSubsumption, _ *Assignment) (Application, bool) {
	return r.scan(sub, r.order.first(len(sub.body)))
}

func (r DecompositionRule) NextApplication(sub *FlatSubsumption, _ *Assignment, prev Application) (Application, bool) {
	mustOwn(RuleDecomposition, prev)
	return r.scan(sub, r.order.next(prev.Index))
}

func (r DecompositionRule) scan(sub *FlatSubsumption, from int) (Application, bool) {
	head := r.atoms.Atom(sub.head)
	if !head.IsExistential() {
		return Application{}, false
	}
	for i := from; i >= 0 && i < len(sub.body); i = r.order.next(i) {
		at := r.atoms.Atom(sub.body[i])
		if at.IsExistential() && at.Role == head.Role {
			return Application{Rule: RuleDecomposition, Index: i, Atom: sub.body[i]}, true
		}
	}
	return Application{}, false
}

func (r DecompositionRule) Apply(sub *FlatSubsumption, _ *Assignment, app Application) *Result {
	mustOwn(RuleDecomposition, app)
	from := r.atoms.Atom(app.Atom).Child
	to := r.atoms.Atom(sub.head).Child

	res := solvedBy(sub, app)
	ns := NewFlatSubsumption([]atom.ID{from}, to)
	if r.atoms.IsVariable(to) {
		res.NewSolved = append(res.NewSolved, ns)
	} else {
		res.NewUnsolved = append(res.NewUnsolved, ns)
	}
	return res
}

// ExtensionRule solves ⊓B ⊑ D by choosing a body variable X and making D a
// subsumer of X. An alternative that would make the assignment cyclic is
// unsuccessful.
type ExtensionRule struct {
	atoms *atom.Manager
	order Order
}

func (ExtensionRule) ID() RuleID { return RuleExtension }

func (r ExtensionRule) FirstApplication(sub *FlatSubsumption, _ *Assignment) (Application, bool) {
	return r.scan(sub, r.order.first(len(sub.body)))
}

func (r ExtensionRule) NextApplication(sub *FlatSubsumption, _ *Assignment, prev Application) (Application, bool) {
	mustOwn(RuleExtension, prev)
	return r.scan(sub, r.order.next(prev.Index))
}

func (r ExtensionRule) scan(sub *FlatSubsumption, from int) (Application, bool) {
	for i := from; i >= 0 && i < len(sub.body); i = r.order.next(i) {
		if r.atoms.IsVariable(sub.body[i]) {
			return Application{Rule: RuleExtension, Index: i, Atom: sub.body[i]}, true
		}
	}
	return Application{}, false
}

func (r ExtensionRule) Apply(sub *FlatSubsumption, a *Assignment, app Application) *Result {
	mustOwn(RuleExtension, app)
	if a.MakesCyclic(app.Atom, sub.head) {
		return failed(sub, app)
	}
	res := solvedBy(sub, app)
	res.addSubsumer(app.Atom, sub.head)
	return res
}
