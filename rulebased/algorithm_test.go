package rulebased

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
	"github.com/nodeadmin/uel/reasoner"
)

func testConfig(t testing.TB, order Order) *Config {
	return &Config{
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:   t.Name(),
			Level:  hclog.Trace,
			Output: hclog.DefaultOutput,
		}),
		Order: order,
	}
}

// formatUnifier renders a unifier as "X:A ⊓ ∃r.B;Y:⊤" in variable order.
func formatUnifier(m *atom.Manager, defs []goal.Definition) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		parts[i] = m.Format(d.Definiendum) + ":" + m.FormatConjunction(d.Right)
	}
	return strings.Join(parts, ";")
}

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Fail()
	FailNow()
	Failed() bool
}

// allUnifiers drains the algorithm and returns every unifier in the order
// they were found.
func allUnifiers(t testingT, g *goal.Goal, order Order) []string {
	t.Helper()
	alg, err := New(g, &Config{Logger: hclog.NewNullLogger(), Order: order})
	must.NoError(t, err)

	// Every intermediate assignment stays acyclic, not only the leaves.
	saturations := 0
	alg.afterSaturate = func() {
		saturations++
		must.True(t, alg.assignment.IsAcyclic())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out []string
	for {
		ok, err := alg.ComputeNextUnifier(ctx)
		must.NoError(t, err)
		if !ok {
			break
		}
		must.True(t, alg.Assignment().IsAcyclic())
		must.NoError(t, reasoner.Verify(g, alg.Unifier()))
		out = append(out, formatUnifier(g.Atoms, alg.Unifier()))
	}
	must.Eq(t, StateExhausted, alg.State())
	if len(out) > 0 {
		must.Positive(t, saturations)
	}
	return out
}

func TestAlgorithm_SingleSubsumption(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, a)

	alg, err := New(g, testConfig(t, OrderInsertion))
	must.NoError(t, err)

	ok, err := alg.ComputeNextUnifier(context.Background())
	must.NoError(t, err)
	must.True(t, ok)
	must.Eq(t, StateFound, alg.State())
	must.Eq(t, []goal.Definition{{Definiendum: x, Right: []atom.ID{a}}}, alg.Unifier())

	ok, err = alg.ComputeNextUnifier(context.Background())
	must.NoError(t, err)
	must.False(t, ok)

	// Exhaustion is sticky.
	ok, err = alg.ComputeNextUnifier(context.Background())
	must.NoError(t, err)
	must.False(t, ok)
}

func TestAlgorithm_Unsolvable(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	c := m.ConceptName("C")
	d := m.ConceptName("D")
	x := m.Variable("X")

	cases := []struct {
		name  string
		build func(g *goal.Goal)
	}{
		{
			name: "existential clash",
			build: func(g *goal.Goal) {
				g.AddSubsumption([]atom.ID{x}, m.Existential("r", a))
				g.AddSubsumption([]atom.ID{m.Existential("r", b)}, x)
			},
		},
		{
			name: "ground conflict",
			build: func(g *goal.Goal) {
				g.AddSubsumption([]atom.ID{c}, d)
			},
		},
		{
			name: "cyclic",
			build: func(g *goal.Goal) {
				g.AddSubsumption([]atom.ID{x}, m.Existential("r", x))
			},
		},
		{
			name: "missing role",
			build: func(g *goal.Goal) {
				g.AddSubsumption([]atom.ID{a, m.Existential("s", b)}, m.Existential("r", x))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := goal.New(m)
			tc.build(g)
			must.SliceEmpty(t, allUnifiers(t, g, OrderInsertion))
		})
	}
}

func TestAlgorithm_ExistentialClashWithEqualFillers(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")
	ra := m.Existential("r", a)

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, ra)
	g.AddSubsumption([]atom.ID{ra}, x)

	must.Eq(t, []string{"X:∃r.A"}, allUnifiers(t, g, OrderInsertion))
}

func TestAlgorithm_Decomposition(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{m.Existential("r", x)}, m.Existential("r", a))

	must.Eq(t, []string{"X:A"}, allUnifiers(t, g, OrderInsertion))
}

func TestAlgorithm_Backtracking(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")
	y := m.Variable("Y")

	// X ⊓ Y ≡ A
	g := goal.New(m)
	g.AddEquation([]atom.ID{x, y}, []atom.ID{a})

	must.Eq(t, []string{"X:A;Y:⊤", "X:⊤;Y:A"}, allUnifiers(t, g, OrderInsertion))
	must.Eq(t, []string{"X:⊤;Y:A", "X:A;Y:⊤"}, allUnifiers(t, g, OrderReverse))
}

func TestAlgorithm_Definitions(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	d1 := m.Auxiliary("D1")
	d2 := m.Auxiliary("D2")
	x := m.Variable("X")

	// D1 ≡ A ⊓ ∃r.B, D2 ≡ A ⊓ ∃r.X, D1 ≡ D2
	g := goal.New(m)
	g.AddDefinition(d1, a, m.Existential("r", b))
	g.AddDefinition(d2, a, m.Existential("r", x))
	g.AddEquation([]atom.ID{d1}, []atom.ID{d2})

	// The definitions absorb each other's subsumers.
	must.Eq(t, []string{"D1:A ⊓ ∃r.B ⊓ ∃r.X;D2:A ⊓ ∃r.B ⊓ ∃r.X;X:B"},
		allUnifiers(t, g, OrderInsertion))
}

func TestAlgorithm_Deterministic(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")
	y := m.Variable("Y")
	z := m.Variable("Z")

	g := goal.New(m)
	g.AddEquation([]atom.ID{x, y, m.Existential("r", z)}, []atom.ID{a, m.Existential("r", b)})

	first := allUnifiers(t, g, OrderInsertion)
	must.SliceNotEmpty(t, first)
	must.Eq(t, first, allUnifiers(t, g, OrderInsertion))
}

func TestAlgorithm_UnsupportedFeature(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, a)
	g.Disequations = append(g.Disequations, goal.Disequation{Left: []atom.ID{x}, Right: []atom.ID{a}})
	g.Types = append(g.Types, goal.TypeAssertion{Variable: x, Type: a})

	_, err := New(g, nil)
	must.Error(t, err)
	must.True(t, errors.Is(err, ErrUnsupportedFeature))
	must.ErrorContains(t, err, "type restrictions")
}

func TestAlgorithm_NormalizationFailureIsSticky(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, a)

	alg, err := New(g, nil)
	must.NoError(t, err)

	// The goal changes after construction and is now unsupported.
	g.Types = append(g.Types, goal.TypeAssertion{Variable: x, Type: a})

	ok, err := alg.ComputeNextUnifier(context.Background())
	must.False(t, ok)
	must.True(t, errors.Is(err, ErrUnsupportedFeature))
	must.Eq(t, StateFailed, alg.State())

	ok, err = alg.ComputeNextUnifier(context.Background())
	must.False(t, ok)
	must.True(t, errors.Is(err, ErrUnsupportedFeature))
	must.Eq(t, StateFailed, alg.State())
	must.Eq(t, "failed", alg.State().String())
}

func TestAlgorithm_PrimitiveDefinitions(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")

	// X ⊑ A, A ⊓ B ⊑ X
	g := goal.New(m)
	g.AddPrimitiveDefinition(x, a)
	g.AddSubsumption([]atom.ID{a, b}, x)
	must.Eq(t, []string{"X:A"}, allUnifiers(t, g, OrderInsertion))

	n, err := NewNormalizedGoal(g)
	must.NoError(t, err)
	must.Eq(t, 2, n.Size())

	// X ⊑ A, B ⊑ X
	g = goal.New(m)
	g.AddPrimitiveDefinition(x, a)
	g.AddSubsumption([]atom.ID{b}, x)
	must.SliceEmpty(t, allUnifiers(t, g, OrderInsertion))

	// A primitive definition only contributes X ⊑ A.
	g = goal.New(m)
	g.AddPrimitiveDefinition(x, a)
	n, err = NewNormalizedGoal(g)
	must.NoError(t, err)
	must.Eq(t, []string{"X ⊑ A"}, formatAll(m, n.All()))

	g = goal.New(m)
	g.AddDefinition(x, a)
	n, err = NewNormalizedGoal(g)
	must.NoError(t, err)
	must.Eq(t, []string{"X ⊑ A", "A ⊑ X"}, formatAll(m, n.All()))
}

func formatAll(m *atom.Manager, subs []*FlatSubsumption) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Format(m))
	}
	return out
}

func TestAlgorithm_Interrupted(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, a)

	alg, err := New(g, nil)
	must.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := alg.ComputeNextUnifier(ctx)
	must.False(t, ok)
	must.True(t, errors.Is(err, ErrInterrupted))
	must.True(t, errors.Is(err, context.Canceled))
	must.Eq(t, StateInterrupted, alg.State())

	// An interrupted instance stays interrupted.
	_, err = alg.ComputeNextUnifier(context.Background())
	must.True(t, errors.Is(err, ErrInterrupted))
}

func TestAlgorithm_Stats(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	x := m.Variable("X")
	y := m.Variable("Y")

	g := goal.New(m)
	g.AddEquation([]atom.ID{x, y}, []atom.ID{a})

	alg, err := New(g, nil)
	must.NoError(t, err)
	for {
		ok, err := alg.ComputeNextUnifier(context.Background())
		must.NoError(t, err)
		if !ok {
			break
		}
	}

	stats := make(map[string]string)
	for _, s := range alg.Stats() {
		stats[s.Key] = s.Value
	}
	must.Eq(t, "2", stats["Unifiers"])
	must.Eq(t, "2", stats["Variables"])
	must.Eq(t, "2", stats["Search tree size"])
}

func TestAlgorithm_SaturationIsIdempotent(t *testing.T) {
	m := atom.NewManager()
	a := m.ConceptName("A")
	b := m.ConceptName("B")
	x := m.Variable("X")
	y := m.Variable("Y")

	g := goal.New(m)
	g.AddSubsumption([]atom.ID{x}, a, m.Existential("r", y))
	g.AddEquation([]atom.ID{y, b}, []atom.ID{b, m.Existential("s", x)})

	alg, err := New(g, nil)
	must.NoError(t, err)
	ok, err := alg.initialize(context.Background())
	must.NoError(t, err)
	must.True(t, ok)

	mark := alg.trail.mark()
	p := newPropagation(NewResult(nil, Application{}, true))
	for _, s := range alg.normalized.All() {
		if !s.solved {
			p.check(s, alg.eagerRules)
		}
	}
	must.True(t, alg.saturate(p))
	must.Eq(t, mark, alg.trail.mark())
	must.True(t, p.acc.IsEmpty())
}
