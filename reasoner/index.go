package reasoner

import (
	"fmt"

	"github.com/nodeadmin/uel/atom"
)

// ConceptID is an integer identifier for a concept of the completion
// reasoner: ⊤, a concept name of the atom manager, or a helper concept
// introduced by normalization.
type ConceptID uint32

// RoleID is an integer identifier for a role.
type RoleID uint32

// Top is ⊤, subsumer of every concept.
const Top ConceptID = 0

const noAtom atom.ID = -1

// SymbolTable maps the concept names and roles of one atom.Manager to the
// dense IDs the saturation loop indexes by.
type SymbolTable struct {
	atoms *atom.Manager

	concepts map[atom.ID]ConceptID
	origin   []atom.ID

	roles map[atom.RoleID]RoleID
}

func NewSymbolTable(m *atom.Manager) *SymbolTable {
	return &SymbolTable{
		atoms:    m,
		concepts: make(map[atom.ID]ConceptID, m.Len()),
		origin:   []atom.ID{noAtom},
		roles:    make(map[atom.RoleID]RoleID, 8),
	}
}

// Concept returns the ConceptID of a concept name atom, creating one if
// needed.
func (st *SymbolTable) Concept(id atom.ID) ConceptID {
	if c, ok := st.concepts[id]; ok {
		return c
	}
	c := ConceptID(len(st.origin))
	st.concepts[id] = c
	st.origin = append(st.origin, id)
	return c
}

// Role returns the RoleID of a role of the atom manager, creating one if
// needed.
func (st *SymbolTable) Role(id atom.RoleID) RoleID {
	if r, ok := st.roles[id]; ok {
		return r
	}
	r := RoleID(len(st.roles))
	st.roles[id] = r
	return r
}

// FreshConcept creates a helper concept with no atom behind it.
func (st *SymbolTable) FreshConcept() ConceptID {
	c := ConceptID(len(st.origin))
	st.origin = append(st.origin, noAtom)
	return c
}

func (st *SymbolTable) ConceptCount() int { return len(st.origin) }
func (st *SymbolTable) RoleCount() int    { return len(st.roles) }

// Atom returns the concept name behind c. It reports false for ⊤ and helper
// concepts.
func (st *SymbolTable) Atom(c ConceptID) (atom.ID, bool) {
	if int(c) >= len(st.origin) || st.origin[c] == noAtom {
		return noAtom, false
	}
	return st.origin[c], true
}

// Format renders c as its concept name, ⊤, or _:N for helper concepts.
func (st *SymbolTable) Format(c ConceptID) string {
	if c == Top {
		return "⊤"
	}
	if id, ok := st.Atom(c); ok {
		return st.atoms.Format(id)
	}
	return fmt.Sprintf("_:%d", c)
}
