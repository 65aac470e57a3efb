package ontology

import (
	"strings"
	"testing"

	"github.com/shoenig/test/must"
)

const testOBO = `format-version: 1.2
data-version: test/2024
ontology: test

[Term]
id: T:1
name: organism

[Term]
id: T:2
name: bacterium
is_a: T:1 ! organism
relationship: has_part T:3 {source="x"}

[Term]
id: T:3
name: wall

[Term]
id: T:4
name: walled organism
intersection_of: T:1
intersection_of: has_part T:3

[Term]
id: T:5
is_obsolete: true

[Typedef]
id: has_part
name: has part
`

func TestParseOBO(t *testing.T) {
	ont, err := ParseOBO(strings.NewReader(testOBO))
	must.NoError(t, err)

	must.Eq(t, "1.2", ont.FormatVersion)
	must.Eq(t, "test/2024", ont.DataVersion)
	must.Len(t, 5, ont.Terms)
	must.Eq(t, []TypeDef{{ID: "has_part", Name: "has part"}}, ont.TypeDefs)

	bact, ok := ont.Lookup("T:2")
	must.True(t, ok)
	must.Eq(t, []Relationship{
		{Type: IsA, TargetID: "T:1"},
		{Type: "has_part", TargetID: "T:3"},
	}, bact.Relationships)
	must.True(t, bact.IsPrimitive())

	walled, ok := ont.Lookup("T:4")
	must.True(t, ok)
	must.True(t, walled.IsDefined())
	must.Eq(t, []IntersectionPart{
		{TargetID: "T:1"},
		{Relationship: "has_part", TargetID: "T:3"},
	}, walled.IntersectionOf)
	must.True(t, walled.IntersectionOf[0].IsGenus())

	org, _ := ont.Lookup("T:1")
	must.False(t, org.IsPrimitive())
	must.False(t, org.IsDefined())

	_, ok = ont.Lookup("T:5")
	must.False(t, ok)
	must.MapNotContainsKey(t, ont.Index(), "T:5")
}

func TestParseOBO_Malformed(t *testing.T) {
	cases := map[string]string{
		"no tag":       "[Term]\nid: T:1\nnonsense\n",
		"relationship": "[Term]\nid: T:1\nrelationship: part_of\n",
		"is_a":         "[Term]\nid: T:1\nis_a:\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOBO(strings.NewReader(src))
			must.ErrorContains(t, err, "line 3")
		})
	}
}

const testOWL = `<?xml version="1.0"?>
<rdf:RDF xmlns="http://purl.obolibrary.org/obo/test.owl#"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
    <owl:Ontology rdf:about="http://purl.obolibrary.org/obo/test.owl"/>
    <owl:ObjectProperty rdf:about="http://purl.obolibrary.org/obo/RO_0000051"/>
    <owl:Class rdf:about="http://purl.obolibrary.org/obo/T_1">
        <rdfs:label>organism</rdfs:label>
    </owl:Class>
    <owl:Class rdf:about="http://purl.obolibrary.org/obo/T_2">
        <rdfs:label>bacterium</rdfs:label>
        <rdfs:subClassOf rdf:resource="http://purl.obolibrary.org/obo/T_1"/>
        <rdfs:subClassOf>
            <owl:Restriction>
                <owl:onProperty rdf:resource="http://purl.obolibrary.org/obo/RO_0000051"/>
                <owl:someValuesFrom rdf:resource="http://purl.obolibrary.org/obo/T_3"/>
            </owl:Restriction>
        </rdfs:subClassOf>
    </owl:Class>
    <owl:Class rdf:about="http://purl.obolibrary.org/obo/T_4">
        <owl:equivalentClass>
            <owl:Class>
                <owl:intersectionOf rdf:parseType="Collection">
                    <rdf:Description rdf:about="http://purl.obolibrary.org/obo/T_1"/>
                    <owl:Restriction>
                        <owl:onProperty rdf:resource="http://purl.obolibrary.org/obo/RO_0000051"/>
                        <owl:someValuesFrom rdf:resource="http://purl.obolibrary.org/obo/T_3"/>
                    </owl:Restriction>
                </owl:intersectionOf>
            </owl:Class>
        </owl:equivalentClass>
    </owl:Class>
    <owl:Class rdf:about="http://purl.obolibrary.org/obo/T_5">
        <owl:deprecated>true</owl:deprecated>
    </owl:Class>
</rdf:RDF>
`

func TestParseOWL(t *testing.T) {
	ont, err := ParseOWL(strings.NewReader(testOWL))
	must.NoError(t, err)

	must.Eq(t, "http://purl.obolibrary.org/obo/test.owl", ont.Ontology)
	must.Eq(t, []TypeDef{{ID: "RO:0000051"}}, ont.TypeDefs)
	must.Len(t, 4, ont.Terms)

	bact, ok := ont.Lookup("T:2")
	must.True(t, ok)
	must.Eq(t, "bacterium", bact.Name)
	must.Eq(t, []Relationship{
		{Type: IsA, TargetID: "T:1"},
		{Type: "RO:0000051", TargetID: "T:3"},
	}, bact.Relationships)

	walled, ok := ont.Lookup("T:4")
	must.True(t, ok)
	must.Eq(t, []IntersectionPart{
		{TargetID: "T:1"},
		{Relationship: "RO:0000051", TargetID: "T:3"},
	}, walled.IntersectionOf)

	_, ok = ont.Lookup("T:5")
	must.False(t, ok)
}

func TestParseOWL_Malformed(t *testing.T) {
	src := `<?xml version="1.0"?>
<rdf:RDF xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <owl:Class rdf:about="http://purl.obolibrary.org/obo/T_1">
</rdf:RDF>
`
	_, err := ParseOWL(strings.NewReader(src))
	must.ErrorContains(t, err, "line 5")
}

func TestOBOID(t *testing.T) {
	must.Eq(t, "CHEBI:12345", oboID("http://purl.obolibrary.org/obo/CHEBI_12345"))
	must.Eq(t, "BFO", oboID("http://purl.obolibrary.org/obo/BFO"))
	must.Eq(t, "http://example.org/x", oboID("http://example.org/x"))
}
