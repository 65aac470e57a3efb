package reasoner

// RoleFiller pairs a role with its filler concept.
type RoleFiller struct {
	Role RoleID
	Fill ConceptID
}

type pair struct{ sub, sup ConceptID }

// AxiomStore holds the normal forms of a TBox, indexed by the premise each
// completion rule matches on:
//
//	NF1: A ⊑ B         CR1
//	NF2: A₁ ⊓ A₂ ⊑ B   CR2
//	NF3: A ⊑ ∃R.B      CR3
//	NF4: ∃R.A ⊑ B      CR4
//
// Unification goals carry no role inclusions. Adding an axiom twice has no
// effect.
type AxiomStore struct {
	subToSups  map[ConceptID][]ConceptID
	conjIndex  map[ConceptID]map[ConceptID][]ConceptID
	existRight map[ConceptID][]RoleFiller
	existLeft  map[RoleID]map[ConceptID][]ConceptID

	nf1 map[pair]struct{}
	nf2 map[[3]ConceptID]struct{}
	nf3 map[[3]uint32]struct{}
	nf4 map[[3]uint32]struct{}
}

func NewAxiomStore() *AxiomStore {
	return &AxiomStore{
		subToSups:  make(map[ConceptID][]ConceptID),
		conjIndex:  make(map[ConceptID]map[ConceptID][]ConceptID),
		existRight: make(map[ConceptID][]RoleFiller),
		existLeft:  make(map[RoleID]map[ConceptID][]ConceptID),
		nf1:        make(map[pair]struct{}),
		nf2:        make(map[[3]ConceptID]struct{}),
		nf3:        make(map[[3]uint32]struct{}),
		nf4:        make(map[[3]uint32]struct{}),
	}
}

// Len is the number of distinct axioms in the store.
func (s *AxiomStore) Len() int {
	return len(s.nf1) + len(s.nf2) + len(s.nf3) + len(s.nf4)
}

// AddSubsumption adds NF1: sub ⊑ sup.
func (s *AxiomStore) AddSubsumption(sub, sup ConceptID) {
	k := pair{sub, sup}
	if _, ok := s.nf1[k]; ok {
		return
	}
	s.nf1[k] = struct{}{}
	s.subToSups[sub] = append(s.subToSups[sub], sup)
}

// AddConjunction adds NF2: left1 ⊓ left2 ⊑ right. The conjunction is indexed
// under both conjuncts.
func (s *AxiomStore) AddConjunction(left1, left2, right ConceptID) {
	if left2 < left1 {
		left1, left2 = left2, left1
	}
	k := [3]ConceptID{left1, left2, right}
	if _, ok := s.nf2[k]; ok {
		return
	}
	s.nf2[k] = struct{}{}

	index := func(a, b ConceptID) {
		if s.conjIndex[a] == nil {
			s.conjIndex[a] = make(map[ConceptID][]ConceptID, 4)
		}
		s.conjIndex[a][b] = append(s.conjIndex[a][b], right)
	}
	index(left1, left2)
	if left1 != left2 {
		index(left2, left1)
	}
}

// AddExistRight adds NF3: sub ⊑ ∃role.fill.
func (s *AxiomStore) AddExistRight(sub ConceptID, role RoleID, fill ConceptID) {
	k := [3]uint32{uint32(sub), uint32(role), uint32(fill)}
	if _, ok := s.nf3[k]; ok {
		return
	}
	s.nf3[k] = struct{}{}
	s.existRight[sub] = append(s.existRight[sub], RoleFiller{Role: role, Fill: fill})
}

// AddExistLeft adds NF4: ∃role.fill ⊑ sup.
func (s *AxiomStore) AddExistLeft(role RoleID, fill ConceptID, sup ConceptID) {
	k := [3]uint32{uint32(role), uint32(fill), uint32(sup)}
	if _, ok := s.nf4[k]; ok {
		return
	}
	s.nf4[k] = struct{}{}
	if s.existLeft[role] == nil {
		s.existLeft[role] = make(map[ConceptID][]ConceptID, 4)
	}
	s.existLeft[role][fill] = append(s.existLeft[role][fill], sup)
}
