package atom

import (
	"fmt"
	"slices"
	"strings"
)

// ID is the canonical integer identity of an interned atom. Structurally equal
// atoms always share one ID.
type ID int

// RoleID is an integer identifier for a role name.
type RoleID int

// Kind tags the two shapes a flat atom can take.
type Kind uint8

const (
	KindConceptName Kind = iota // A
	KindExistential             // ∃r.A
)

// Atom is a flat atom: a concept name, or an existential restriction whose
// filler is itself a concept name.
type Atom struct {
	Kind Kind

	// Name is set for concept names only.
	Name string

	// Role and Child are set for existential restrictions only. Child always
	// refers to a concept name.
	Role  RoleID
	Child ID
}

func (a Atom) IsConceptName() bool { return a.Kind == KindConceptName }
func (a Atom) IsExistential() bool { return a.Kind == KindExistential }

type existKey struct {
	role  RoleID
	child ID
}

// Manager interns atoms and roles and classifies concept names as variables
// or constants. Atoms are immutable once interned; only the classification of
// a concept name may change, and it must not change while a unification
// algorithm is running over the manager.
type Manager struct {
	atoms  []Atom
	names  map[string]ID
	exists map[existKey]ID

	variable  []bool
	auxiliary []bool

	roleToID map[string]RoleID
	idToRole []string
}

func NewManager() *Manager {
	return &Manager{
		names:    make(map[string]ID, 64),
		exists:   make(map[existKey]ID, 64),
		roleToID: make(map[string]RoleID, 8),
	}
}

// ConceptName returns the ID of the named concept, interning it as a
// constant if it is new.
func (m *Manager) ConceptName(name string) ID {
	if id, ok := m.names[name]; ok {
		return id
	}
	id := ID(len(m.atoms))
	m.atoms = append(m.atoms, Atom{Kind: KindConceptName, Name: name})
	m.variable = append(m.variable, false)
	m.auxiliary = append(m.auxiliary, false)
	m.names[name] = id
	return id
}

// Variable interns the named concept and marks it as a variable.
func (m *Manager) Variable(name string) ID {
	id := m.ConceptName(name)
	m.variable[id] = true
	return id
}

// Auxiliary interns the named concept and marks it as an auxiliary variable,
// i.e. a variable introduced by a front end rather than chosen by the user.
func (m *Manager) Auxiliary(name string) ID {
	id := m.Variable(name)
	m.auxiliary[id] = true
	return id
}

// Existential returns the ID of ∃role.child. It panics if child is not a
// concept name, since nested restrictions are not flat.
func (m *Manager) Existential(role string, child ID) ID {
	if !m.Atom(child).IsConceptName() {
		panic(fmt.Sprintf("atom: filler of existential restriction must be a concept name, got %s", m.Format(child)))
	}
	key := existKey{role: m.Role(role), child: child}
	if id, ok := m.exists[key]; ok {
		return id
	}
	id := ID(len(m.atoms))
	m.atoms = append(m.atoms, Atom{Kind: KindExistential, Role: key.role, Child: child})
	m.variable = append(m.variable, false)
	m.auxiliary = append(m.auxiliary, false)
	m.exists[key] = id
	return id
}

// Role returns the RoleID for the given name, creating one if needed.
func (m *Manager) Role(name string) RoleID {
	if id, ok := m.roleToID[name]; ok {
		return id
	}
	id := RoleID(len(m.idToRole))
	m.roleToID[name] = id
	m.idToRole = append(m.idToRole, name)
	return id
}

// RoleName returns the string name for a RoleID.
func (m *Manager) RoleName(id RoleID) string {
	if int(id) < len(m.idToRole) {
		return m.idToRole[id]
	}
	return ""
}

// Lookup finds an interned concept name without creating it.
func (m *Manager) Lookup(name string) (ID, bool) {
	id, ok := m.names[name]
	return id, ok
}

// Len is the number of interned atoms. Valid IDs are 0..Len()-1.
func (m *Manager) Len() int { return len(m.atoms) }

// Valid reports whether id refers to an interned atom.
func (m *Manager) Valid(id ID) bool { return id >= 0 && int(id) < len(m.atoms) }

// Atom returns the atom for id. It panics on an unknown id.
func (m *Manager) Atom(id ID) Atom { return m.atoms[id] }

// IsVariable reports whether id is a concept name classified as a variable.
func (m *Manager) IsVariable(id ID) bool { return m.variable[id] }

// IsAuxiliary reports whether id is an auxiliary variable.
func (m *Manager) IsAuxiliary(id ID) bool { return m.auxiliary[id] }

// IsGround reports whether id contains no variable: a constant concept name,
// or an existential restriction over a constant.
func (m *Manager) IsGround(id ID) bool {
	a := m.atoms[id]
	if a.IsExistential() {
		return !m.variable[a.Child]
	}
	return !m.variable[id]
}

// MakeVariable reclassifies a concept name as a variable.
func (m *Manager) MakeVariable(id ID) {
	if m.atoms[id].IsConceptName() {
		m.variable[id] = true
	}
}

// MakeConstant reclassifies a concept name as a constant.
func (m *Manager) MakeConstant(id ID) {
	m.variable[id] = false
	m.auxiliary[id] = false
}

// Variables returns the IDs of all variables in ascending order.
func (m *Manager) Variables() []ID {
	var vars []ID
	for id, v := range m.variable {
		if v {
			vars = append(vars, ID(id))
		}
	}
	return vars
}

// Format renders an atom as A or ∃r.A.
func (m *Manager) Format(id ID) string {
	if !m.Valid(id) {
		return fmt.Sprintf("<atom %d>", id)
	}
	a := m.atoms[id]
	if a.IsExistential() {
		return "∃" + m.RoleName(a.Role) + "." + m.atoms[a.Child].Name
	}
	return a.Name
}

// FormatConjunction renders a set of atoms as a conjunction. The empty
// conjunction is ⊤.
func (m *Manager) FormatConjunction(ids []ID) string {
	if len(ids) == 0 {
		return "⊤"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = m.Format(id)
	}
	slices.Sort(parts)
	return strings.Join(parts, " ⊓ ")
}

// Parse interns an atom literal. Concept names are written as is;
// existential restrictions as "∃r.A", "exists r.A" or "some r.A". Concept
// names not yet known are interned as constants.
func (m *Manager) Parse(literal string) (ID, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return 0, fmt.Errorf("empty atom literal")
	}

	rest, ok := strings.CutPrefix(s, "∃")
	if !ok {
		for _, kw := range []string{"exists ", "some "} {
			if r, found := strings.CutPrefix(s, kw); found {
				rest, ok = strings.TrimSpace(r), true
				break
			}
		}
	}
	if !ok {
		if strings.ContainsAny(s, " \t") {
			return 0, fmt.Errorf("invalid concept name %q", s)
		}
		return m.ConceptName(s), nil
	}

	role, filler, found := strings.Cut(rest, ".")
	role, filler = strings.TrimSpace(role), strings.TrimSpace(filler)
	if !found || role == "" || filler == "" {
		return 0, fmt.Errorf("invalid existential restriction %q: expected ∃role.Concept", s)
	}
	if strings.ContainsAny(filler, " \t().∃") {
		return 0, fmt.Errorf("invalid existential restriction %q: filler must be a concept name", s)
	}
	return m.Existential(role, m.ConceptName(filler)), nil
}
