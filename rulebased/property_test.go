package rulebased

import (
	"slices"
	"testing"

	"github.com/shoenig/test/must"
	"pgregory.net/rapid"

	"github.com/nodeadmin/uel/atom"
	"github.com/nodeadmin/uel/goal"
)

// genGoal draws a small goal of equations and subsumptions over two
// constants, two variables and two roles.
func genGoal(t *rapid.T) *goal.Goal {
	m := atom.NewManager()
	names := []atom.ID{
		m.ConceptName("A"),
		m.ConceptName("B"),
		m.Variable("X"),
		m.Variable("Y"),
	}
	pool := slices.Clone(names)
	for _, role := range []string{"r", "s"} {
		for _, n := range names {
			pool = append(pool, m.Existential(role, n))
		}
	}

	side := rapid.SliceOfN(rapid.SampledFrom(pool), 1, 2)

	g := goal.New(m)
	for i, n := 0, rapid.IntRange(1, 3).Draw(t, "equations"); i < n; i++ {
		g.AddEquation(side.Draw(t, "left"), side.Draw(t, "right"))
	}
	for i, n := 0, rapid.IntRange(0, 2).Draw(t, "subsumptions"); i < n; i++ {
		g.AddSubsumption(side.Draw(t, "body"), side.Draw(t, "head")...)
	}
	return g
}

// Every unifier found is acyclic and solves the goal, and the set of
// unifiers does not depend on the enumeration order.
func TestAlgorithm_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := genGoal(rt)

		forward := allUnifiers(rt, g, OrderInsertion)
		backward := allUnifiers(rt, g, OrderReverse)

		slices.Sort(forward)
		slices.Sort(backward)
		must.Eq(rt, forward, backward)
		must.Eq(rt, len(forward), len(slices.Compact(slices.Clone(forward))))
	})
}

func TestTrail_RollbackRestoresState(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := genGoal(rt)
		n, err := NewNormalizedGoal(g)
		must.NoError(rt, err)
		a := NewAssignment(g.Atoms)
		tr := newTrail(n, a)

		m := g.Atoms
		vars := m.Variables()
		atoms := make([]atom.ID, m.Len())
		for i := range atoms {
			atoms[i] = atom.ID(i)
		}

		beforeKeys := subsumptionKeys(n)
		beforeSolved := solvedKeys(n)
		before := a.Copy()

		mark := tr.mark()
		for i, steps := 0, rapid.IntRange(1, 20).Draw(rt, "steps"); i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "edit") {
			case 0:
				body := rapid.SliceOfN(rapid.SampledFrom(atoms), 0, 3).Draw(rt, "body")
				tr.addSubsumption(NewFlatSubsumption(body, rapid.SampledFrom(atoms).Draw(rt, "head")))
			case 1:
				all := n.All()
				tr.solve(all[rapid.IntRange(0, len(all)-1).Draw(rt, "solve")])
			case 2:
				v := rapid.SampledFrom(vars).Draw(rt, "variable")
				tr.addSubsumer(v, rapid.SampledFrom(atoms).Draw(rt, "subsumer"))
			}
		}
		tr.rollback(mark)

		must.Eq(rt, beforeKeys, subsumptionKeys(n))
		must.Eq(rt, beforeSolved, solvedKeys(n))
		must.True(rt, before.Equal(a))
		for _, v := range vars {
			for _, s := range n.ByBodyVariable(v) {
				must.True(rt, n.Contains(s))
			}
			for _, s := range n.ByHeadVariable(v) {
				must.True(rt, n.Contains(s))
			}
		}
	})
}

func subsumptionKeys(n *NormalizedGoal) []string {
	var keys []string
	for _, s := range n.All() {
		keys = append(keys, s.Key())
	}
	return keys
}

func solvedKeys(n *NormalizedGoal) []string {
	var keys []string
	for _, s := range n.All() {
		if s.Solved() {
			keys = append(keys, s.Key())
		}
	}
	return keys
}
