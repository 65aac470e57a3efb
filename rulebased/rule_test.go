package rulebased

import (
	"testing"

	"github.com/shoenig/test/must"

	"github.com/nodeadmin/uel/atom"
)

func TestFlatSubsumption_Canonical(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")

	s1 := NewFlatSubsumption([]atom.ID{b, a, b}, x)
	s2 := NewFlatSubsumption([]atom.ID{a, b}, x)
	must.True(t, s1.Equal(s2))
	must.Eq(t, s1.Key(), s2.Key())
	must.Eq(t, []atom.ID{a, b}, s1.Body())
	must.True(t, s1.BodyContains(b))
	must.False(t, s1.BodyContains(x))
	must.False(t, s1.IsGround(m))
	must.True(t, NewFlatSubsumption([]atom.ID{a}, b).IsGround(m))
	must.Eq(t, "A ⊓ B ⊑ X", s1.Format(m))
}

func TestNormalizedGoal_Indices(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")
	y := m.Variable("Y")

	n := newNormalizedGoal(m)
	s1 := NewFlatSubsumption([]atom.ID{x, y}, a)
	s2 := NewFlatSubsumption([]atom.ID{a}, x)

	must.True(t, n.Add(s1))
	must.False(t, n.Add(NewFlatSubsumption([]atom.ID{y, x}, a)))
	must.True(t, n.Add(s2))
	must.Eq(t, 2, n.Size())

	must.Eq(t, []*FlatSubsumption{s1}, n.ByBodyVariable(y))
	must.Eq(t, []*FlatSubsumption{s2}, n.ByHeadVariable(x))
	must.Eq(t, s1, n.FirstUnsolved())

	diff := NewAssignment(nil)
	diff.Add(x, m.Existential("r", a))
	exp := n.Expand(diff)
	must.Len(t, 1, exp)
	must.Eq(t, "A ⊑ ∃r.A", exp[0].Format(m))

	must.True(t, n.Remove(s1))
	must.SliceEmpty(t, n.ByBodyVariable(y))
	must.Eq(t, s2, n.FirstUnsolved())
	must.Eq(t, 2, n.MaxSize())

	s3 := NewFlatSubsumption([]atom.ID{y}, x)
	must.True(t, n.AddAll([]*FlatSubsumption{s1, s2, s3}))
	must.False(t, n.AddAll([]*FlatSubsumption{s3}))
	must.Eq(t, 3, n.MaxSize())

	stored, ok := n.Get(NewFlatSubsumption([]atom.ID{y}, x))
	must.True(t, ok)
	must.Eq(t, s3, stored)

	must.True(t, n.RemoveAll([]*FlatSubsumption{s1, s3}))
	must.False(t, n.Contains(s3))
	must.Eq(t, []*FlatSubsumption{s2}, n.All())
}

func TestRules_Applications(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")
	y := m.Variable("Y")
	ra := m.Existential("r", a)
	rb := m.Existential("r", b)
	rx := m.Existential("r", x)

	sub := NewFlatSubsumption([]atom.ID{x, y, rb, rx}, ra)
	asg := NewAssignment(m)

	dec := DecompositionRule{atoms: m}
	app, ok := dec.FirstApplication(sub, asg)
	must.True(t, ok)
	must.Eq(t, rb, app.Atom)
	app, ok = dec.NextApplication(sub, asg, app)
	must.True(t, ok)
	must.Eq(t, rx, app.Atom)

	res := dec.Apply(sub, asg, app)
	must.True(t, res.Successful)
	must.Eq(t, []*FlatSubsumption{sub}, res.Solved)
	must.Len(t, 1, res.NewUnsolved)
	must.Eq(t, "X ⊑ A", res.NewUnsolved[0].Format(m))

	_, ok = dec.NextApplication(sub, asg, app)
	must.False(t, ok)

	ext := ExtensionRule{atoms: m, order: OrderReverse}
	app, ok = ext.FirstApplication(sub, asg)
	must.True(t, ok)
	must.Eq(t, y, app.Atom)
	app, ok = ext.NextApplication(sub, asg, app)
	must.True(t, ok)
	must.Eq(t, x, app.Atom)

	res = ext.Apply(sub, asg, app)
	must.True(t, res.Successful)
	must.Eq(t, []atom.ID{ra}, res.NewSubsumers.Subsumers(x))
}

func TestRules_ForeignApplicationPanics(t *testing.T) {
	m := atom.NewManager()
	x := m.Variable("X")
	sub := NewFlatSubsumption([]atom.ID{x}, m.ConceptName("A"))

	defer func() {
		must.NotNil(t, recover())
	}()
	ExtensionRule{atoms: m}.Apply(sub, NewAssignment(m), Application{Rule: RuleDecomposition})
}

func TestEagerRules(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")
	eager := eagerRule{atoms: m}
	asg := NewAssignment(m)

	cases := []struct {
		name    string
		rule    Rule
		sub     *FlatSubsumption
		applies bool
		success bool
	}{
		{"ground holds", EagerGroundSolvingRule{eager}, NewFlatSubsumption([]atom.ID{a, b}, a), true, true},
		{"ground fails", EagerGroundSolvingRule{eager}, NewFlatSubsumption([]atom.ID{b}, a), true, false},
		{"ground skips variables", EagerGroundSolvingRule{eager}, NewFlatSubsumption([]atom.ID{x}, a), false, false},
		{"solving1", EagerSolving1Rule{eager}, NewFlatSubsumption([]atom.ID{x, a}, a), true, true},
		{"conflict name", EagerConflictRule{eager}, NewFlatSubsumption([]atom.ID{m.Existential("r", x)}, a), true, false},
		{"conflict role", EagerConflictRule{eager}, NewFlatSubsumption([]atom.ID{m.Existential("s", a)}, m.Existential("r", x)), true, false},
		{"no conflict", EagerConflictRule{eager}, NewFlatSubsumption([]atom.ID{m.Existential("r", b)}, m.Existential("r", x)), false, false},
		{"solving2 without subsumers", EagerSolving2Rule{eager}, NewFlatSubsumption([]atom.ID{x, b}, a), false, false},
		{"extension", EagerExtensionRule{eager}, NewFlatSubsumption([]atom.ID{x}, a), true, true},
		{"extension cyclic", EagerExtensionRule{eager}, NewFlatSubsumption([]atom.ID{x}, m.Existential("r", x)), true, false},
		{"extension blocked", EagerExtensionRule{eager}, NewFlatSubsumption([]atom.ID{x, b}, a), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, ok := tc.rule.FirstApplication(tc.sub, asg)
			must.Eq(t, tc.applies, ok)
			if !ok {
				return
			}
			must.Eq(t, tc.rule.ID(), app.Rule)
			must.Eq(t, tc.success, tc.rule.Apply(tc.sub, asg, app).Successful)

			_, ok = tc.rule.NextApplication(tc.sub, asg, app)
			must.False(t, ok)
		})
	}
}
