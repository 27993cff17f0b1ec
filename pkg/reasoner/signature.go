package reasoner

// SigIndex maintains, for every named concept or role appearing anywhere
// in a pending GCI's expression tree, the set of GCI positions that
// mention it. Preprocessor.tryAbsorb consults this to prefer absorbing a
// GCI onto the named concept that already carries the smallest signature,
// rather than the first one found, so absorbed conjuncts spread across
// many concepts instead of piling onto whichever concept happens to
// appear first in one axiom.
type SigIndex struct {
	byConcept map[BP][]int
	byRole    map[RoleID][]int
}

// NewSigIndex returns an empty index.
func NewSigIndex() *SigIndex {
	return &SigIndex{byConcept: make(map[BP][]int), byRole: make(map[RoleID][]int)}
}

// Index walks bp's expression tree and records idx against every named
// concept and role it finds.
func (s *SigIndex) Index(dag *DAG, idx int, bp BP) {
	s.walk(dag, idx, bp, make(map[BP]bool))
}

func (s *SigIndex) walk(dag *DAG, idx int, bp BP, seen map[BP]bool) {
	key := BP(bp.Index())
	if seen[key] {
		return
	}
	seen[key] = true
	v := dag.Get(bp)
	switch v.Tag {
	case TagConcept:
		s.byConcept[key] = append(s.byConcept[key], idx)
	case TagAnd, TagCollection:
		for _, c := range v.Children {
			s.walk(dag, idx, c, seen)
		}
	case TagForall, TagLE, TagReflexive, TagProjection:
		rid := RoleID(v.Role.index())
		s.byRole[rid] = append(s.byRole[rid], idx)
		if IsValid(v.Filler) {
			s.walk(dag, idx, v.Filler, seen)
		}
	}
}

// ConceptSignature returns every recorded GCI index whose expression tree
// mentions concept, irrespective of the polarity concept was indexed
// under.
func (s *SigIndex) ConceptSignature(concept BP) []int {
	return s.byConcept[BP(concept.Index())]
}

// RoleSignature returns every recorded GCI index whose expression tree
// mentions role.
func (s *SigIndex) RoleSignature(role RoleID) []int {
	return s.byRole[RoleID(role.index())]
}
