package rulebased

import (
	"slices"
	"strconv"
	"strings"

	"github.com/nodeadmin/uel/atom"
)

// FlatSubsumption is one constraint ⊓Body ⊑ Head. The body is kept sorted and
// free of duplicates, so two subsumptions are equal iff their keys are equal.
type FlatSubsumption struct {
	body   []atom.ID
	head   atom.ID
	key    string
	solved bool
}

// NewFlatSubsumption canonicalizes body; the caller's slice is not retained.
func NewFlatSubsumption(body []atom.ID, head atom.ID) *FlatSubsumption {
	b := slices.Clone(body)
	slices.Sort(b)
	b = slices.Compact(b)

	var sb strings.Builder
	for i, id := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	sb.WriteByte('>')
	sb.WriteString(strconv.Itoa(int(head)))

	return &FlatSubsumption{body: b, head: head, key: sb.String()}
}

// Body returns the sorted body atoms. The slice must not be modified.
func (s *FlatSubsumption) Body() []atom.ID { return s.body }

func (s *FlatSubsumption) Head() atom.ID { return s.head }

// Key is the canonical identity of the subsumption.
func (s *FlatSubsumption) Key() string { return s.key }

func (s *FlatSubsumption) Solved() bool { return s.solved }

// Equal compares structurally, ignoring the solved flag.
func (s *FlatSubsumption) Equal(o *FlatSubsumption) bool {
	return o != nil && s.key == o.key
}

// BodyContains reports whether id occurs literally in the body.
func (s *FlatSubsumption) BodyContains(id atom.ID) bool {
	_, found := slices.BinarySearch(s.body, id)
	return found
}

// IsGround reports whether body and head mention no variable.
func (s *FlatSubsumption) IsGround(m *atom.Manager) bool {
	if !m.IsGround(s.head) {
		return false
	}
	for _, id := range s.body {
		if !m.IsGround(id) {
			return false
		}
	}
	return true
}

// BodyVariables returns the distinct variables occurring directly in the
// body, in body order.
func (s *FlatSubsumption) BodyVariables(m *atom.Manager) []atom.ID {
	var vars []atom.ID
	for _, id := range s.body {
		if m.IsVariable(id) {
			vars = append(vars, id)
		}
	}
	return vars
}

func (s *FlatSubsumption) Format(m *atom.Manager) string {
	return m.FormatConjunction(s.body) + " ⊑ " + m.Format(s.head)
}
