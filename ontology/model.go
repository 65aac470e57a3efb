// Package ontology reads OBO and OWL/RDF-XML ontologies into the small
// structural model needed to build unification goals: named classes, their
// told superclasses and existential restrictions, and intersection
// (equivalent-class) definitions.
package ontology

// Ontology represents a parsed ontology.
type Ontology struct {
	FormatVersion string
	DataVersion   string
	Ontology      string
	Terms         []Term
	TypeDefs      []TypeDef
}

// TypeDef represents an object property (OBO Typedef stanza).
type TypeDef struct {
	ID   string
	Name string
}

// IntersectionPart represents one conjunct of an equivalent-class
// definition. If Relationship is empty, it's a genus (plain class).
// Otherwise it's a differentia: ∃Relationship.TargetID.
type IntersectionPart struct {
	Relationship string
	TargetID     string
}

// IsGenus reports whether the part is a plain class.
func (p IntersectionPart) IsGenus() bool { return p.Relationship == "" }

// Term represents a single named class.
type Term struct {
	ID             string
	Name           string
	IsObsolete     bool
	Relationships  []Relationship
	IntersectionOf []IntersectionPart
}

// IsDefined reports whether the term has an equivalent-class definition.
func (t *Term) IsDefined() bool { return len(t.IntersectionOf) > 0 }

// IsPrimitive reports whether the term only has told superclasses or
// restrictions and no equivalent-class definition.
func (t *Term) IsPrimitive() bool {
	return !t.IsDefined() && len(t.Relationships) > 0
}

// Relationship is a told superclass (Type "is_a") or an existential
// restriction ∃Type.TargetID that subsumes the term.
type Relationship struct {
	Type     string
	TargetID string
}

// IsA is the relationship type of told superclasses.
const IsA = "is_a"

// IsSubClass reports whether the relationship is a plain superclass.
func (r Relationship) IsSubClass() bool { return r.Type == IsA }

// Lookup returns the non-obsolete term with the given ID.
func (o *Ontology) Lookup(id string) (*Term, bool) {
	for i := range o.Terms {
		if o.Terms[i].ID == id && !o.Terms[i].IsObsolete {
			return &o.Terms[i], true
		}
	}
	return nil, false
}

// Index maps term IDs to their position in Terms, skipping obsolete terms.
func (o *Ontology) Index() map[string]int {
	idx := make(map[string]int, len(o.Terms))
	for i := range o.Terms {
		if !o.Terms[i].IsObsolete {
			idx[o.Terms[i].ID] = i
		}
	}
	return idx
}
