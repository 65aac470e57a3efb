package ontology

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nsOWL  = "http://www.w3.org/2002/07/owl#"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	nsOBO  = "http://purl.obolibrary.org/obo/"
)

// owlReader walks an RDF/XML token stream. Every method consumes tokens up
// to and including the end element of the element it was called for.
type owlReader struct {
	dec  *xml.Decoder
	pool *internPool
}

// ParseOWL parses an OWL ontology in RDF/XML syntax. Named classes keep their
// told superclasses, someValuesFrom restrictions and intersectionOf
// equivalent-class definitions whose conjuncts are named classes or
// restrictions on named classes. Anything else is skipped.
func ParseOWL(r io.Reader) (*Ontology, error) {
	or := &owlReader{dec: xml.NewDecoder(r), pool: newInternPool()}
	ont, err := or.document()
	if err != nil {
		line, _ := or.dec.InputPos()
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	return ont, nil
}

func (or *owlReader) document() (*Ontology, error) {
	ont := &Ontology{}
	for {
		tok, err := or.dec.Token()
		if errors.Is(err, io.EOF) {
			return ont, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case is(se, nsRDF, "RDF"):
			// descend
		case is(se, nsOWL, "Ontology"):
			if about := attr(se, nsRDF, "about"); about != "" {
				ont.Ontology = about
			}
			err = or.dec.Skip()
		case is(se, nsOWL, "ObjectProperty"):
			if id := oboID(attr(se, nsRDF, "about")); id != "" {
				ont.TypeDefs = append(ont.TypeDefs, TypeDef{ID: id})
			}
			err = or.dec.Skip()
		case is(se, nsOWL, "Class"):
			var term Term
			term, err = or.class(se)
			if err == nil && term.ID != "" {
				ont.Terms = append(ont.Terms, term)
			}
		default:
			err = or.dec.Skip()
		}
		if err != nil {
			return nil, err
		}
	}
}

func (or *owlReader) class(se xml.StartElement) (Term, error) {
	t := Term{ID: oboID(attr(se, nsRDF, "about"))}
	for {
		tok, err := or.dec.Token()
		if err != nil {
			return t, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			return t, nil
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case is(el, nsRDFS, "label"):
			t.Name = or.text()
		case el.Name.Local == "deprecated":
			t.IsObsolete = or.text() == "true"
		case is(el, nsRDFS, "subClassOf"):
			if res := attr(el, nsRDF, "resource"); res != "" {
				t.Relationships = append(t.Relationships, Relationship{Type: IsA, TargetID: oboID(res)})
				err = or.dec.Skip()
				break
			}
			var part IntersectionPart
			part, err = or.restriction()
			if err == nil && part.Relationship != "" && part.TargetID != "" {
				t.Relationships = append(t.Relationships, Relationship{Type: part.Relationship, TargetID: part.TargetID})
			}
		case is(el, nsOWL, "equivalentClass"):
			var parts []IntersectionPart
			parts, err = or.equivalent()
			if err == nil && len(parts) > 0 && len(t.IntersectionOf) == 0 {
				t.IntersectionOf = parts
			}
		default:
			err = or.dec.Skip()
		}
		if err != nil {
			return t, err
		}
	}
}

// restriction reads an element wrapping one owl:Restriction with
// owl:onProperty and owl:someValuesFrom. Called on the owl:Restriction
// itself, it reads just that restriction.
func (or *owlReader) restriction() (IntersectionPart, error) {
	var part IntersectionPart
	depth := 0
	for {
		tok, err := or.dec.Token()
		if err != nil {
			return part, err
		}
		switch el := tok.(type) {
		case xml.EndElement:
			if depth == 0 {
				return part, nil
			}
			depth--
		case xml.StartElement:
			if is(el, nsOWL, "Restriction") {
				depth++
				continue
			}
			res := attr(el, nsRDF, "resource")
			switch {
			case res == "":
			case is(el, nsOWL, "onProperty"):
				part.Relationship = or.pool.get(oboID(res))
			case is(el, nsOWL, "someValuesFrom"):
				part.TargetID = oboID(res)
			}
			if err := or.dec.Skip(); err != nil {
				return part, err
			}
		}
	}
}

// equivalent reads an owl:equivalentClass holding an anonymous owl:Class
// with an owl:intersectionOf collection. A conjunct that is neither a named
// class nor a simple restriction drops the whole definition.
func (or *owlReader) equivalent() ([]IntersectionPart, error) {
	var parts []IntersectionPart
	valid := true
	inCollection := false
	depth := 0

	for {
		tok, err := or.dec.Token()
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.EndElement:
			if depth == 0 {
				if !valid {
					return nil, nil
				}
				return parts, nil
			}
			if el.Name.Space == nsOWL && el.Name.Local == "intersectionOf" {
				inCollection = false
			}
			depth--
		case xml.StartElement:
			switch {
			case is(el, nsOWL, "intersectionOf"):
				inCollection = true
				depth++
				continue
			case inCollection && is(el, nsOWL, "Restriction"):
				part, err := or.restriction()
				if err != nil {
					return nil, err
				}
				if part.Relationship == "" || part.TargetID == "" {
					valid = false
				} else {
					parts = append(parts, part)
				}
				continue
			case inCollection && (is(el, nsRDF, "Description") || is(el, nsOWL, "Class")):
				if about := attr(el, nsRDF, "about"); about != "" {
					parts = append(parts, IntersectionPart{TargetID: oboID(about)})
				} else {
					valid = false
				}
			case is(el, nsOWL, "Class"):
				depth++
				continue
			default:
				valid = false
			}
			if err := or.dec.Skip(); err != nil {
				return nil, err
			}
		}
	}
}

// text returns the trimmed character data of the current element, nested
// elements included.
func (or *owlReader) text() string {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := or.dec.Token()
		if err != nil {
			return strings.TrimSpace(sb.String())
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String())
			}
			depth--
		}
	}
}

func is(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func attr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// oboID turns http://purl.obolibrary.org/obo/CHEBI_12345 into CHEBI:12345.
// Other IRIs are kept as they are.
func oboID(iri string) string {
	id, ok := strings.CutPrefix(iri, nsOBO)
	if !ok {
		return iri
	}
	if prefix, local, found := strings.Cut(id, "_"); found {
		return prefix + ":" + local
	}
	return id
}
