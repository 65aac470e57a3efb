package reasoner

import (
	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
)

// TBox is a normalized terminology over the atoms of one manager.
type TBox struct {
	Symbols *SymbolTable
	Axioms  *AxiomStore

	atoms *atom.Manager
}

// Normalize builds the TBox that a unifier induces: every variable X with
// subsumers S becomes X ≡ ⊓S, every other concept name stays primitive.
// A variable without a definition in unifier is equivalent to ⊤.
func Normalize(m *atom.Manager, unifier []goal.Definition) *TBox {
	t := &TBox{
		Symbols: NewSymbolTable(m),
		Axioms:  NewAxiomStore(),
		atoms:   m,
	}

	// First pass: register every concept name so that constants share IDs
	// with the query concepts built later.
	for id := atom.ID(0); int(id) < m.Len(); id++ {
		if m.Atom(id).IsConceptName() {
			t.Concept(id)
		}
	}

	defined := make(map[atom.ID]bool, len(unifier))
	for _, d := range unifier {
		defined[d.Definiendum] = true
		x := t.Concept(d.Definiendum)
		for _, s := range d.Right {
			t.AddSubsumedBy(x, s)
		}
		if !d.Primitive {
			t.addConjunctionSubsumes(d.Right, x)
		}
	}
	for _, v := range m.Variables() {
		if !defined[v] {
			t.Axioms.AddSubsumption(Top, t.Concept(v))
		}
	}
	return t
}

// Concept returns the ConceptID of a concept name atom.
func (t *TBox) Concept(id atom.ID) ConceptID {
	return t.Symbols.Concept(id)
}

func (t *TBox) role(id atom.ID) (RoleID, ConceptID) {
	a := t.atoms.Atom(id)
	return t.Symbols.Role(a.Role), t.Concept(a.Child)
}

// AddSubsumedBy adds c ⊑ s for a flat atom s: NF1 for a concept name, NF3
// for an existential restriction.
func (t *TBox) AddSubsumedBy(c ConceptID, s atom.ID) {
	if t.atoms.Atom(s).IsConceptName() {
		t.Axioms.AddSubsumption(c, t.Concept(s))
		return
	}
	r, fill := t.role(s)
	t.Axioms.AddExistRight(c, r, fill)
}

// SubsumerOf returns a concept that is subsumed by exactly the concepts
// subsumed by the flat atom s. Existential restrictions get a fresh concept
// F with ∃r.A ⊑ F.
func (t *TBox) SubsumerOf(s atom.ID) ConceptID {
	if t.atoms.Atom(s).IsConceptName() {
		return t.Concept(s)
	}
	r, fill := t.role(s)
	fresh := t.Symbols.FreshConcept()
	t.Axioms.AddExistLeft(r, fill, fresh)
	return fresh
}

// addConjunctionSubsumes adds ⊓parts ⊑ c, decomposed into binary
// conjunctions over fresh concepts.
func (t *TBox) addConjunctionSubsumes(parts []atom.ID, c ConceptID) {
	conjuncts := make([]ConceptID, 0, len(parts))
	for _, p := range parts {
		conjuncts = append(conjuncts, t.SubsumerOf(p))
	}

	switch len(conjuncts) {
	case 0:
		t.Axioms.AddSubsumption(Top, c)
		return
	case 1:
		t.Axioms.AddSubsumption(conjuncts[0], c)
		return
	}

	// ((c0 ⊓ c1) ⊓ c2) ⊓ ... ⊑ C
	acc := conjuncts[0]
	for i := 1; i < len(conjuncts); i++ {
		var result ConceptID
		if i == len(conjuncts)-1 {
			result = c
		} else {
			result = t.Symbols.FreshConcept()
		}
		t.Axioms.AddConjunction(acc, conjuncts[i], result)
		acc = result
	}
}
