package reasoner

// relKey identifies one asserted (individual, role, individual) triple.
type relKey struct {
	role RoleID
	from BP
	to   BP
}

// ABox holds individual-level assertions kept separate from the
// completion graph built during a satisfiability run: class assertions,
// an explicit role-filler table, and same/different-individual tracking.
// A query like roleFillers or relatedIndividuals reads straight out of
// this table instead of re-running a tableau pass over the whole
// knowledge base.
type ABox struct {
	dag *DAG

	individuals map[string]BP

	classAssertions map[BP][]BP

	related map[relKey]bool
	byFrom  map[RoleID]map[BP][]BP
	byTo    map[RoleID]map[BP][]BP

	parent    map[BP]BP
	different map[BP]map[BP]bool
}

// NewABox returns an empty ABox backed by dag for individual (Singleton)
// vertex creation.
func NewABox(dag *DAG) *ABox {
	return &ABox{
		dag:             dag,
		individuals:     make(map[string]BP),
		classAssertions: make(map[BP][]BP),
		related:         make(map[relKey]bool),
		byFrom:          make(map[RoleID]map[BP][]BP),
		byTo:            make(map[RoleID]map[BP][]BP),
		parent:          make(map[BP]BP),
		different:       make(map[BP]map[BP]bool),
	}
}

// Individual returns the Singleton BP for name, creating it on first use.
func (ab *ABox) Individual(name string) BP {
	if bp, ok := ab.individuals[name]; ok {
		return bp
	}
	bp := ab.dag.Singleton(name, BPInvalid)
	ab.individuals[name] = bp
	ab.parent[bp] = bp
	return bp
}

// Individuals returns every individual registered so far.
func (ab *ABox) Individuals() []BP {
	out := make([]BP, 0, len(ab.individuals))
	for _, bp := range ab.individuals {
		out = append(out, bp)
	}
	return out
}

// AssertClass records individual as directly asserted a member of
// concept.
func (ab *ABox) AssertClass(individual, concept BP) {
	ab.classAssertions[individual] = append(ab.classAssertions[individual], concept)
}

// AssertedClasses returns every concept asserted directly of individual or
// of any individual unioned into its same-as class.
func (ab *ABox) AssertedClasses(individual BP) []BP {
	root := ab.find(individual)
	var out []BP
	for bp, concepts := range ab.classAssertions {
		if ab.find(bp) == root {
			out = append(out, concepts...)
		}
	}
	return out
}

// AssertRole records individual from related to individual to by role.
// Idempotent: asserting the same triple twice has no further effect.
func (ab *ABox) AssertRole(role RoleID, from, to BP) {
	key := relKey{role: role, from: from, to: to}
	if ab.related[key] {
		return
	}
	ab.related[key] = true
	if ab.byFrom[role] == nil {
		ab.byFrom[role] = make(map[BP][]BP)
	}
	ab.byFrom[role][from] = append(ab.byFrom[role][from], to)
	if ab.byTo[role] == nil {
		ab.byTo[role] = make(map[BP][]BP)
	}
	ab.byTo[role][to] = append(ab.byTo[role][to], from)
}

// HasRole reports whether individual from was asserted related to
// individual to by role.
func (ab *ABox) HasRole(role RoleID, from, to BP) bool {
	return ab.related[relKey{role: role, from: from, to: to}]
}

// RoleFillers returns every individual asserted an R-filler of individual
// under role, across individual's same-as class.
func (ab *ABox) RoleFillers(individual BP, role RoleID) []BP {
	root := ab.find(individual)
	var out []BP
	for from, tos := range ab.byFrom[role] {
		if ab.find(from) == root {
			out = append(out, tos...)
		}
	}
	return out
}

// RoleFillersOf is RoleFillers' dual: every individual asserted to have
// individual as an R-filler under role.
func (ab *ABox) RoleFillersOf(individual BP, role RoleID) []BP {
	root := ab.find(individual)
	var out []BP
	for to, froms := range ab.byTo[role] {
		if ab.find(to) == root {
			out = append(out, froms...)
		}
	}
	return out
}

// RelatedIndividuals returns every (from, to) pair asserted for role.
func (ab *ABox) RelatedIndividuals(role RoleID) [][2]BP {
	var out [][2]BP
	for key := range ab.related {
		if key.role == role {
			out = append(out, [2]BP{key.from, key.to})
		}
	}
	return out
}

// find resolves bp to its same-as equivalence-class representative,
// registering bp as its own singleton root on first sight.
func (ab *ABox) find(bp BP) BP {
	if _, ok := ab.parent[bp]; !ok {
		ab.parent[bp] = bp
		return bp
	}
	for ab.parent[bp] != bp {
		ab.parent[bp] = ab.parent[ab.parent[bp]]
		bp = ab.parent[bp]
	}
	return bp
}

// CloseFunctionalRoles unions every pair of fillers asserted for the same
// (individual, functional role) pair: the ABox-level consequence of
// functional-role semantics (a R b, a R c, R functional ⇒ b = c) that plain
// union-find over explicit SameIndividuals assertions alone cannot derive.
// Meant to be called once, after every RoleAssertion/FunctionalRole axiom
// has been loaded and before any same-as query is answered.
func (ab *ABox) CloseFunctionalRoles(roles *RoleMaster) {
	for role, byFrom := range ab.byFrom {
		r, ok := roles.Get(role)
		if !ok || !r.Functional {
			continue
		}
		for _, tos := range byFrom {
			for i := 1; i < len(tos); i++ {
				ab.SameIndividuals(tos[0], tos[i])
			}
		}
	}
}

// SameIndividuals unions a and b into one same-as equivalence class.
func (ab *ABox) SameIndividuals(a, b BP) {
	ra, rb := ab.find(a), ab.find(b)
	if ra != rb {
		ab.parent[ra] = rb
	}
}

// IsSameIndividual reports whether a and b were unioned by
// SameIndividuals, directly or transitively.
func (ab *ABox) IsSameIndividual(a, b BP) bool {
	return ab.find(a) == ab.find(b)
}

// AssertDifferent records that a and b must denote distinct individuals.
func (ab *ABox) AssertDifferent(a, b BP) {
	if ab.different[a] == nil {
		ab.different[a] = make(map[BP]bool)
	}
	ab.different[a][b] = true
	if ab.different[b] == nil {
		ab.different[b] = make(map[BP]bool)
	}
	ab.different[b][a] = true
}

// IsDifferent reports whether a and b were asserted distinct.
func (ab *ABox) IsDifferent(a, b BP) bool {
	return ab.different[a][b]
}

// ConsistentSameDifferent reports false if any two individuals were both
// unioned together by SameIndividuals and asserted different by
// AssertDifferent, the one ABox-level contradiction that does not need a
// tableau pass to detect.
func (ab *ABox) ConsistentSameDifferent() bool {
	for a, others := range ab.different {
		for b := range others {
			if ab.IsSameIndividual(a, b) {
				return false
			}
		}
	}
	return true
}
