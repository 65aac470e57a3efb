package reasoner

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
)

// query is one flat constraint ⊓body ⊑ head, checked as head' ∈ S(Q) for a
// fresh concept Q ⊑ ⊓body.
type query struct {
	origin string
	body   []atom.ID
	head   atom.ID

	q, h ConceptID
}

// Verify checks that unifier solves every positive constraint of g under
// the semantics of EL: variables are replaced by the conjunction of their
// subsumers, and the remaining concept names are primitive. Constraints that
// do not hold are reported together.
func Verify(g *goal.Goal, unifier []goal.Definition) error {
	t := Normalize(g.Atoms, unifier)
	queries := constraints(g)

	for i := range queries {
		qu := &queries[i]
		qu.q = t.Symbols.FreshConcept()
		for _, b := range qu.body {
			t.AddSubsumedBy(qu.q, b)
		}
		qu.h = t.SubsumerOf(qu.head)
	}

	contexts := Saturate(t.Symbols, t.Axioms)

	var mErr multierror.Error
	for _, qu := range queries {
		if !contexts[qu.q].Subsumes(qu.h) {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: %s ⋢ %s", qu.origin,
				g.Atoms.FormatConjunction(qu.body), g.Atoms.Format(qu.head)))
		}
	}
	return mErr.ErrorOrNil()
}

// constraints flattens the positive part of g into one query per head atom.
func constraints(g *goal.Goal) []query {
	var out []query
	add := func(origin string, body, head []atom.ID) {
		for _, h := range head {
			out = append(out, query{origin: origin, body: body, head: h})
		}
	}

	for i, d := range g.Definitions {
		origin := fmt.Sprintf("definition %d", i)
		lhs := []atom.ID{d.Definiendum}
		add(origin, lhs, d.Right)
		if !d.Primitive {
			add(origin, d.Right, lhs)
		}
	}
	for i, e := range g.Equations {
		origin := fmt.Sprintf("equation %d", i)
		add(origin, e.Left, e.Right)
		add(origin, e.Right, e.Left)
	}
	for i, s := range g.Subsumptions {
		add(fmt.Sprintf("subsumption %d", i), s.Body, s.Head)
	}
	return out
}
