package ontology

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const maxOBOLine = 1 << 20

// internPool shares one string per relationship name.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

type stanzaKind int

const (
	stanzaHeader stanzaKind = iota
	stanzaTerm
	stanzaTypedef
	stanzaOther
)

// oboReader accumulates the stanza being read and flushes it into the
// ontology when the next stanza starts.
type oboReader struct {
	ont  *Ontology
	pool *internPool

	kind    stanzaKind
	term    Term
	typedef TypeDef
}

// ParseOBO parses an OBO 1.4 ontology. Only the tags that carry logical
// structure are kept: id, name, is_a, relationship, intersection_of and
// is_obsolete.
func ParseOBO(r io.Reader) (*Ontology, error) {
	or := &oboReader{ont: &Ontology{}, pool: newInternPool()}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxOBOLine)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if err := or.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	or.flush()
	return or.ont, nil
}

func (or *oboReader) line(line string) error {
	if line == "" || line[0] == '!' {
		return nil
	}
	if line[0] == '[' {
		or.flush()
		switch line {
		case "[Term]":
			or.kind = stanzaTerm
		case "[Typedef]":
			or.kind = stanzaTypedef
		default:
			or.kind = stanzaOther
		}
		return nil
	}

	tag, val, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("expected tag-value pair, got %q", line)
	}
	val = stripComment(val)

	switch or.kind {
	case stanzaHeader:
		or.header(tag, val)
	case stanzaTerm:
		return or.termTag(tag, val)
	case stanzaTypedef:
		switch tag {
		case "id":
			or.typedef.ID = or.pool.get(val)
		case "name":
			or.typedef.Name = val
		}
	}
	return nil
}

func (or *oboReader) flush() {
	switch or.kind {
	case stanzaTerm:
		if or.term.ID != "" {
			or.ont.Terms = append(or.ont.Terms, or.term)
		}
	case stanzaTypedef:
		if or.typedef.ID != "" {
			or.ont.TypeDefs = append(or.ont.TypeDefs, or.typedef)
		}
	}
	or.term, or.typedef = Term{}, TypeDef{}
}

func (or *oboReader) header(tag, val string) {
	switch tag {
	case "format-version":
		or.ont.FormatVersion = val
	case "data-version":
		or.ont.DataVersion = val
	case "ontology":
		or.ont.Ontology = val
	}
}

func (or *oboReader) termTag(tag, val string) error {
	t := &or.term
	fields := strings.Fields(val)

	switch tag {
	case "id":
		t.ID = val
	case "name":
		t.Name = val
	case "is_obsolete":
		t.IsObsolete = val == "true"
	case "is_a":
		if len(fields) == 0 {
			return errors.New("empty is_a")
		}
		t.Relationships = append(t.Relationships, Relationship{Type: IsA, TargetID: fields[0]})
	case "relationship":
		if len(fields) < 2 {
			return fmt.Errorf("malformed relationship %q", val)
		}
		t.Relationships = append(t.Relationships, Relationship{Type: or.pool.get(fields[0]), TargetID: fields[1]})
	case "intersection_of":
		switch len(fields) {
		case 0:
			return errors.New("empty intersection_of")
		case 1:
			t.IntersectionOf = append(t.IntersectionOf, IntersectionPart{TargetID: fields[0]})
		default:
			t.IntersectionOf = append(t.IntersectionOf, IntersectionPart{
				Relationship: or.pool.get(fields[0]),
				TargetID:     fields[1],
			})
		}
	}
	return nil
}

// stripComment trims val and drops a trailing "! comment" and trailing
// qualifier block.
func stripComment(val string) string {
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "!") {
		return ""
	}
	val, _, _ = strings.Cut(val, " !")
	val, _, _ = strings.Cut(val, " {")
	return strings.TrimSpace(val)
}
