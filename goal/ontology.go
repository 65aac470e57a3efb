package goal

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/ontology"
)

// UndefSuffix names the fresh constant that stands for the unspecified part
// of a primitive concept: A ⊑ C is read as A ≡ A_UNDEF ⊓ C.
const UndefSuffix = "_UNDEF"

// NamedEquation asks for Left ≡ Right, both written as atom literals.
type NamedEquation struct {
	Left  string
	Right string
}

// FromOntology builds a goal that unifies each equation with respect to the
// definitions of ont. Only the terms reachable from the equations are
// translated. Defined and primitive terms become auxiliary definition
// variables; the names in variables become user variables and keep no
// definition; everything else is a constant.
func FromOntology(ont *ontology.Ontology, m *atom.Manager, variables []string, equations []NamedEquation) (*Goal, error) {
	if m == nil {
		m = atom.NewManager()
	}
	g := New(m)
	index := ont.Index()

	var mErr multierror.Error

	userVars := set.From(variables)
	for _, name := range variables {
		if _, ok := index[name]; !ok {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("variable %q is not a term of the ontology", name))
			continue
		}
		m.Variable(name)
	}
	if len(equations) == 0 {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("at least one equation is required"))
	}

	var queue []string
	seen := set.New[string](16)
	enqueue := func(id atom.ID) {
		a := m.Atom(id)
		name := a.Name
		if a.IsExistential() {
			name = m.Atom(a.Child).Name
		}
		if seen.Insert(name) {
			queue = append(queue, name)
		}
	}

	for i, eq := range equations {
		left, errL := m.Parse(eq.Left)
		right, errR := m.Parse(eq.Right)
		if errL != nil || errR != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("equation %d: %w", i, multierror.Append(nil, errL, errR).ErrorOrNil()))
			continue
		}
		g.AddEquation([]atom.ID{left}, []atom.ID{right})
		enqueue(left)
		enqueue(right)
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		i, ok := index[name]
		if !ok || userVars.Contains(name) {
			continue
		}
		term := &ont.Terms[i]
		if !term.IsDefined() && !term.IsPrimitive() {
			continue
		}

		lhs := m.Auxiliary(term.ID)
		var rhs []atom.ID
		if term.IsPrimitive() {
			rhs = append(rhs, m.ConceptName(term.ID+UndefSuffix))
		}
		for _, part := range term.IntersectionOf {
			if part.IsGenus() {
				rhs = append(rhs, m.ConceptName(part.TargetID))
			} else {
				rhs = append(rhs, m.Existential(part.Relationship, m.ConceptName(part.TargetID)))
			}
		}
		for _, rel := range term.Relationships {
			if rel.IsSubClass() {
				rhs = append(rhs, m.ConceptName(rel.TargetID))
			} else {
				rhs = append(rhs, m.Existential(rel.Type, m.ConceptName(rel.TargetID)))
			}
		}
		for _, id := range rhs {
			enqueue(id)
		}
		g.AddDefinition(lhs, rhs...)
	}

	return g, nil
}
