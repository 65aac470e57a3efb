package reasoner

import (
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Context is the completion state of one concept C: its subsumers S(C) and
// the role links leaving and entering it.
type Context struct {
	id   ConceptID
	subs *set.Set[ConceptID]

	// succ[r] holds every D with (C, D) ∈ R(r); pred[r] every E with
	// (E, C) ∈ R(r).
	succ map[RoleID][]ConceptID
	pred map[RoleID][]ConceptID
}

// Subsumes reports whether d ∈ S(C).
func (c *Context) Subsumes(d ConceptID) bool {
	return c.subs.Contains(d)
}

type workItem struct {
	concept ConceptID
	added   ConceptID
}

type linkItem struct {
	source ConceptID
	role   RoleID
	target ConceptID
}

// saturation is one run of the completion rules over a fixed axiom store.
type saturation struct {
	store    *AxiomStore
	contexts []Context

	added  []workItem
	linked []linkItem
}

// Saturate runs the EL completion rules CR1–CR4 until no new inferences can
// be derived, and returns the context of every concept indexed by ConceptID.
func Saturate(st *SymbolTable, store *AxiomStore) []Context {
	n := st.ConceptCount()
	s := &saturation{
		store:    store,
		contexts: make([]Context, n),
		added:    make([]workItem, 0, n*2),
	}
	for i := range s.contexts {
		s.contexts[i] = Context{
			id:   ConceptID(i),
			subs: set.New[ConceptID](8),
			succ: make(map[RoleID][]ConceptID),
			pred: make(map[RoleID][]ConceptID),
		}
	}

	// S(C) = {C, ⊤} for each concept.
	for i := range s.contexts {
		c := ConceptID(i)
		s.derive(c, c)
		s.derive(c, Top)
	}

	for len(s.added) > 0 || len(s.linked) > 0 {
		if k := len(s.added); k > 0 {
			item := s.added[k-1]
			s.added = s.added[:k-1]
			s.subsumerAdded(item.concept, item.added)
			continue
		}
		k := len(s.linked)
		item := s.linked[k-1]
		s.linked = s.linked[:k-1]
		s.linkAdded(item)
	}
	return s.contexts
}

func (s *saturation) derive(c, d ConceptID) {
	if s.contexts[c].subs.Insert(d) {
		s.added = append(s.added, workItem{concept: c, added: d})
	}
}

func (s *saturation) link(c ConceptID, r RoleID, d ConceptID) {
	source, target := &s.contexts[c], &s.contexts[d]
	if slices.Contains(source.succ[r], d) {
		return
	}
	source.succ[r] = append(source.succ[r], d)
	target.pred[r] = append(target.pred[r], c)
	s.linked = append(s.linked, linkItem{source: c, role: r, target: d})
}

// subsumerAdded fires the rules triggered by d entering S(c).
func (s *saturation) subsumerAdded(c, d ConceptID) {
	// CR1: D ∈ S(C) and D ⊑ E gives E ∈ S(C).
	for _, e := range s.store.subToSups[d] {
		s.derive(c, e)
	}

	// CR2: D, D' ∈ S(C) and D ⊓ D' ⊑ E gives E ∈ S(C).
	for d2, results := range s.store.conjIndex[d] {
		if !s.contexts[c].Subsumes(d2) {
			continue
		}
		for _, e := range results {
			s.derive(c, e)
		}
	}

	// CR3: D ⊑ ∃R.B gives (C, B) ∈ R(R).
	for _, rf := range s.store.existRight[d] {
		s.link(c, rf.Role, rf.Fill)
	}

	// CR4 backward: (E, C) ∈ R(R) and ∃R.D ⊑ F give F ∈ S(E).
	for r, preds := range s.contexts[c].pred {
		for _, f := range s.store.existLeft[r][d] {
			for _, e := range preds {
				s.derive(e, f)
			}
		}
	}
}

// linkAdded fires CR4 for a new link: (C, D) ∈ R(R), E ∈ S(D) and ∃R.E ⊑ F
// give F ∈ S(C).
func (s *saturation) linkAdded(li linkItem) {
	byFill := s.store.existLeft[li.role]
	if len(byFill) == 0 {
		return
	}
	for _, e := range s.contexts[li.target].subs.Slice() {
		for _, f := range byFill[e] {
			s.derive(li.source, f)
		}
	}
}
