// Package goal describes unification problems in EL: constraints between
// conjunctions of flat atoms, some of whose concept names are variables.
package goal

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/nodeadmin/uel/atom"
)

// Definition is X ≡ ⊓Right, or X ⊑ ⊓Right when Primitive is set. Unifiers
// are reported as definitions of their variables.
type Definition struct {
	Definiendum atom.ID
	Right       []atom.ID
	Primitive   bool
}

// Equation is ⊓Left ≡ ⊓Right.
type Equation struct {
	Left  []atom.ID
	Right []atom.ID
}

// Subsumption is ⊓Body ⊑ ⊓Head.
type Subsumption struct {
	Body []atom.ID
	Head []atom.ID
}

// Disequation is ⊓Left ≢ ⊓Right.
type Disequation struct {
	Left  []atom.ID
	Right []atom.ID
}

// Dissubsumption is ⊓Body ⋢ ⊓Head.
type Dissubsumption struct {
	Body []atom.ID
	Head []atom.ID
}

// TypeAssertion restricts the values a variable may take to subsumees of
// Type.
type TypeAssertion struct {
	Variable atom.ID
	Type     atom.ID
}

// Goal is a unification problem over the atoms of one Manager.
type Goal struct {
	Atoms *atom.Manager

	Definitions     []Definition
	Equations       []Equation
	Subsumptions    []Subsumption
	Disequations    []Disequation
	Dissubsumptions []Dissubsumption
	Types           []TypeAssertion
}

func New(m *atom.Manager) *Goal {
	if m == nil {
		m = atom.NewManager()
	}
	return &Goal{Atoms: m}
}

// HasNegativePart reports whether the goal carries disequations or
// dissubsumptions.
func (g *Goal) HasNegativePart() bool {
	return len(g.Disequations) > 0 || len(g.Dissubsumptions) > 0
}

func (g *Goal) AddDefinition(lhs atom.ID, rhs ...atom.ID) {
	g.Definitions = append(g.Definitions, Definition{Definiendum: lhs, Right: rhs})
}

func (g *Goal) AddPrimitiveDefinition(lhs atom.ID, rhs ...atom.ID) {
	g.Definitions = append(g.Definitions, Definition{Definiendum: lhs, Right: rhs, Primitive: true})
}

func (g *Goal) AddEquation(left, right []atom.ID) {
	g.Equations = append(g.Equations, Equation{Left: left, Right: right})
}

func (g *Goal) AddSubsumption(body []atom.ID, head ...atom.ID) {
	g.Subsumptions = append(g.Subsumptions, Subsumption{Body: body, Head: head})
}

// Validate checks that every constraint refers to interned atoms and that
// every definiendum is a variable concept name. All problems are reported
// together.
func (g *Goal) Validate() error {
	var mErr multierror.Error

	check := func(what string, ids []atom.ID) {
		for _, id := range ids {
			if !g.Atoms.Valid(id) {
				mErr.Errors = append(mErr.Errors, fmt.Errorf("%s refers to unknown atom %d", what, id))
			}
		}
	}

	for i, d := range g.Definitions {
		what := fmt.Sprintf("definition %d", i)
		check(what, []atom.ID{d.Definiendum})
		check(what, d.Right)
		if !g.Atoms.Valid(d.Definiendum) {
			continue
		}
		switch {
		case !g.Atoms.Atom(d.Definiendum).IsConceptName():
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: definiendum %s is not a concept name",
				what, g.Atoms.Format(d.Definiendum)))
		case !g.Atoms.IsVariable(d.Definiendum):
			mErr.Errors = append(mErr.Errors, fmt.Errorf("%s: definiendum %s is not a variable",
				what, g.Atoms.Format(d.Definiendum)))
		}
	}
	for i, e := range g.Equations {
		what := fmt.Sprintf("equation %d", i)
		check(what, e.Left)
		check(what, e.Right)
	}
	for i, s := range g.Subsumptions {
		what := fmt.Sprintf("subsumption %d", i)
		check(what, s.Body)
		check(what, s.Head)
	}
	for i, e := range g.Disequations {
		what := fmt.Sprintf("disequation %d", i)
		check(what, e.Left)
		check(what, e.Right)
	}
	for i, s := range g.Dissubsumptions {
		what := fmt.Sprintf("dissubsumption %d", i)
		check(what, s.Body)
		check(what, s.Head)
	}
	for i, ta := range g.Types {
		check(fmt.Sprintf("type assertion %d", i), []atom.ID{ta.Variable, ta.Type})
	}

	return mErr.ErrorOrNil()
}

// Size is the number of constraints in the goal.
func (g *Goal) Size() int {
	return len(g.Definitions) + len(g.Equations) + len(g.Subsumptions) +
		len(g.Disequations) + len(g.Dissubsumptions) + len(g.Types)
}
