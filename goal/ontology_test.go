package goal

import (
	"testing"

	"github.com/shoenig/test/must"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/ontology"
)

func testOntology() *ontology.Ontology {
	return &ontology.Ontology{
		Terms: []ontology.Term{
			{ID: "organism"},
			{ID: "wall"},
			{ID: "bacterium", Relationships: []ontology.Relationship{
				{Type: ontology.IsA, TargetID: "organism"},
				{Type: "has_part", TargetID: "wall"},
			}},
			{ID: "walled", IntersectionOf: []ontology.IntersectionPart{
				{TargetID: "organism"},
				{Relationship: "has_part", TargetID: "part"},
			}},
			{ID: "part"},
			{ID: "unrelated", Relationships: []ontology.Relationship{
				{Type: ontology.IsA, TargetID: "organism"},
			}},
		},
	}
}

func TestFromOntology(t *testing.T) {
	m := atom.NewManager()
	g, err := FromOntology(testOntology(), m, []string{"part"}, []NamedEquation{
		{Left: "walled", Right: "bacterium"},
	})
	must.NoError(t, err)
	must.NoError(t, g.Validate())

	must.Len(t, 1, g.Equations)
	must.Len(t, 2, g.Definitions)

	byName := make(map[string]Definition)
	for _, d := range g.Definitions {
		must.True(t, m.IsAuxiliary(d.Definiendum))
		byName[m.Format(d.Definiendum)] = d
	}
	must.Eq(t, "organism ⊓ ∃has_part.part", m.FormatConjunction(byName["walled"].Right))
	must.Eq(t, "bacterium_UNDEF ⊓ organism ⊓ ∃has_part.wall", m.FormatConjunction(byName["bacterium"].Right))
	must.MapNotContainsKey(t, byName, "unrelated")

	part, ok := m.Lookup("part")
	must.True(t, ok)
	must.True(t, m.IsVariable(part))
	must.False(t, m.IsAuxiliary(part))

	undef, ok := m.Lookup("bacterium" + UndefSuffix)
	must.True(t, ok)
	must.False(t, m.IsVariable(undef))
}

func TestFromOntology_Errors(t *testing.T) {
	_, err := FromOntology(testOntology(), nil, []string{"nope"}, nil)
	must.ErrorContains(t, err, `variable "nope" is not a term of the ontology`)
	must.ErrorContains(t, err, "at least one equation is required")

	_, err = FromOntology(testOntology(), nil, nil, []NamedEquation{{Left: "", Right: "wall"}})
	must.ErrorContains(t, err, "equation 0")
}
