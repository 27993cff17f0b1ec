package reasoner

import "go.uber.org/zap"

// GCI is a general concept inclusion Lhs ⊑ Rhs, in internal BP form. Lhs
// == BPTop represents an unrestricted global axiom ⊤ ⊑ Rhs.
type GCI struct {
	Lhs BP
	Rhs BP
}

// Preprocessor normalises a set of loaded axioms into the canonical form
// the tableau and taxonomy consume: synonym resolution, GCI absorption
// into primitive concepts or role domains, range internalisation, and
// told-subsumer extraction for the classifier.
type Preprocessor struct {
	dag   *DAG
	roles *RoleMaster
	log   *zap.SugaredLogger

	gcis          []GCI
	sig           *SigIndex
	toldSubsumers map[BP][]BP
	globalAxiom   BP

	inconsistent bool
}

// NewPreprocessor returns an empty Preprocessor over dag/roles. log may be
// nil.
func NewPreprocessor(dag *DAG, roles *RoleMaster, log *zap.SugaredLogger) *Preprocessor {
	if log == nil {
		log = newNopLogger()
	}
	return &Preprocessor{
		dag:           dag,
		roles:         roles,
		log:           log,
		sig:           NewSigIndex(),
		toldSubsumers: make(map[BP][]BP),
		globalAxiom:   BPTop,
	}
}

// AddConceptInclusion records a pending Lhs ⊑ Rhs axiom for absorption.
func (p *Preprocessor) AddConceptInclusion(lhs, rhs BP) {
	if lhs == BPBottom || rhs == BPTop {
		return // trivially satisfied; absorbing it would only add noise
	}
	idx := len(p.gcis)
	p.gcis = append(p.gcis, GCI{Lhs: lhs, Rhs: rhs})
	p.sig.Index(p.dag, idx, lhs)
	p.sig.Index(p.dag, idx, rhs)
}

// AddConceptEquivalence records concept ≡ def. For a still-primitive named
// concept this resolves directly to a full unfold (concept ⊑ def and
// def ⊑ concept both hold by construction once concept's Definition is
// set), which is the synonym-resolution step of preprocessing applied to
// the common case of a named concept's own equivalence axiom. A
// concept re-defined with a different, already-set definition is instead
// carried forward as two ordinary GCIs so both directions still get
// absorbed or compiled into the global axiom.
func (p *Preprocessor) AddConceptEquivalence(concept, def BP) {
	v := p.dag.Get(concept)
	if v.Tag != TagConcept || concept.IsNegative() {
		p.AddConceptInclusion(concept, def)
		p.AddConceptInclusion(def, concept)
		return
	}
	if IsValid(v.Definition) {
		if v.Definition != def {
			p.log.Warnw("concept redefined; keeping first definition, absorbing the rest as GCIs",
				"concept", v.Name)
			p.AddConceptInclusion(concept, def)
			p.AddConceptInclusion(def, concept)
		}
		return
	}
	p.dag.SetDefinition(concept, def)
	p.recordToldSubsumer(concept, def)
}

// AddRoleRange records Range(R) = D: internalised as ∀R.D added to the
// global axiom, which the tableau's forall propagation then threads to
// every R-successor without special-casing range at all.
func (p *Preprocessor) AddRoleRange(role RoleID, d BP) {
	if d == BPTop {
		return
	}
	p.globalAxiom = p.dag.And(p.globalAxiom, p.dag.Forall(role, d))
}

// AddRoleDomain records Domain(R) = D directly (not via GCI absorption),
// for callers that already know the domain restriction rather than
// deriving it from a disjunctive axiom shape.
func (p *Preprocessor) AddRoleDomain(role RoleID, d BP) {
	p.absorbRoleDomain(role, d)
}

// MarkInconsistent records that the knowledge base was found inconsistent
// during preprocessing (e.g. a disjointness axiom between two synonyms).
// Absorb still runs to completion but a caller should treat every
// subsequent query as trivially answered per the standard convention.
func (p *Preprocessor) MarkInconsistent() { p.inconsistent = true }

// Inconsistent reports whether preprocessing detected an unconditional
// contradiction.
func (p *Preprocessor) Inconsistent() bool { return p.inconsistent }

// Absorb runs the absorption pass over every pending GCI: each axiom is
// rewritten into a concept- or role-domain-absorbed form where possible,
// and whatever cannot be absorbed is folded into the compiled global
// axiom. Idempotent to call twice (the second call finds no pending
// GCIs).
func (p *Preprocessor) Absorb() {
	for _, gci := range p.gcis {
		if p.tryAbsorb(gci) {
			continue
		}
		disjunction := orOf(p.dag, []BP{Inverse(gci.Lhs), gci.Rhs})
		p.globalAxiom = p.dag.And(p.globalAxiom, disjunction)
		p.log.Debugw("GCI could not be absorbed; folded into the global axiom")
	}
	p.gcis = nil
}

// GlobalAxiom returns the compiled T_G conjunct (BPTop if every axiom was
// absorbed), ready to install on a Tableau via SetGlobalAxiom.
func (p *Preprocessor) GlobalAxiom() BP { return p.globalAxiom }

// ToldSubsumers returns the told-subsumer map absorption derived, ready to
// feed Taxonomy.SetToldSubsumers per concept.
func (p *Preprocessor) ToldSubsumers() map[BP][]BP { return p.toldSubsumers }

// tryAbsorb attempts concept absorption, then role-domain absorption, on
// gci, rewritten uniformly as the disjunction ¬Lhs ⊔ Rhs regardless of
// whether Lhs is literally ⊤ or a more complex expression.
func (p *Preprocessor) tryAbsorb(gci GCI) bool {
	if v := p.dag.Get(gci.Lhs); v.Tag == TagConcept && !gci.Lhs.IsNegative() {
		p.absorbConceptInclusion(gci.Lhs, gci.Rhs)
		return true
	}

	whole := orOf(p.dag, []BP{Inverse(gci.Lhs), gci.Rhs})
	disjuncts, ok := conjunctsOf(p.dag, whole)
	if !ok {
		disjuncts = []BP{whole}
	}
	// A disjunct that is itself a disjunction (e.g. ¬(X ⊓ Y) from a
	// conjunctive Lhs) is split one level so its named parts are candidates.
	var flat []BP
	for _, d := range disjuncts {
		if inner, ok := conjunctsOf(p.dag, d); ok {
			flat = append(flat, inner...)
			continue
		}
		flat = append(flat, d)
	}
	disjuncts = flat

	type namedCandidate struct {
		idx   int
		named BP
	}
	var candidates []namedCandidate
	for i, d := range disjuncts {
		v := p.dag.Get(d)
		if v.Tag == TagConcept && d.IsNegative() {
			candidates = append(candidates, namedCandidate{idx: i, named: Inverse(d)})
		}
	}
	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if len(p.sig.ConceptSignature(c.named)) < len(p.sig.ConceptSignature(best.named)) {
				best = c
			}
		}
		rest := orOf(p.dag, concatExcept(disjuncts, best.idx))
		p.absorbConceptInclusion(best.named, rest)
		return true
	}
	for i, d := range disjuncts {
		v := p.dag.Get(d)
		if v.Tag == TagLE && v.N == 0 && v.Filler == BPTop && !d.IsNegative() {
			rest := orOf(p.dag, concatExcept(disjuncts, i))
			p.absorbRoleDomain(v.Role, rest)
			return true
		}
	}
	return false
}

// absorbConceptInclusion installs rest as a told-subsumer conjunct of
// named, unfolded only on named's positive occurrence.
func (p *Preprocessor) absorbConceptInclusion(named, rest BP) {
	p.dag.AddImplied(named, rest)
	p.recordToldSubsumer(named, rest)
	p.log.Debugw("absorbed concept inclusion", "concept", p.dag.Get(named).Name)
}

// absorbRoleDomain narrows role's domain to d: every node gaining an
// R-successor must now also satisfy d, enforced deterministically by
// Tableau.enforceRoleDomain rather than via a disjunctive global axiom.
func (p *Preprocessor) absorbRoleDomain(role RoleID, d BP) {
	r, ok := p.roles.Get(role)
	if !ok {
		return
	}
	p.roles.SetDomain(role, p.dag.And(r.Domain, d))
	p.log.Debugw("absorbed role-domain restriction", "role", r.Name)
}

// recordToldSubsumer registers every named concept appearing as a
// positive conjunct of rhs as a told subsumer of concept, consumed later
// by Taxonomy.SetToldSubsumers.
func (p *Preprocessor) recordToldSubsumer(concept, rhs BP) {
	for _, q := range namedConjuncts(p.dag, rhs) {
		if q == concept {
			continue
		}
		already := false
		for _, existing := range p.toldSubsumers[concept] {
			if existing == q {
				already = true
				break
			}
		}
		if !already {
			p.toldSubsumers[concept] = append(p.toldSubsumers[concept], q)
		}
	}
}

// namedConjuncts returns every named-concept BP appearing as a positive
// top-level conjunct of bp (recursing through nested And vertices). A
// negated reference is not a told subsumer by name, since ¬A is not
// itself a named concept inclusion target.
func namedConjuncts(dag *DAG, bp BP) []BP {
	if bp.IsNegative() {
		return nil
	}
	v := dag.Get(bp)
	switch v.Tag {
	case TagConcept:
		return []BP{bp}
	case TagAnd:
		var out []BP
		for _, c := range v.Children {
			out = append(out, namedConjuncts(dag, c)...)
		}
		return out
	default:
		return nil
	}
}

// conjunctsOf reports the disjuncts of bp when bp is a negated
// conjunction (¬(c1 ∧ ... ∧ cn) = ¬c1 ∨ ... ∨ ¬cn by De Morgan), the same
// representation the tableau's OR-rule expansion consumes.
func conjunctsOf(dag *DAG, bp BP) ([]BP, bool) {
	if !bp.IsNegative() {
		return nil, false
	}
	v := dag.Get(bp)
	if v.Tag != TagAnd {
		return nil, false
	}
	out := make([]BP, len(v.Children))
	for i, c := range v.Children {
		out[i] = Inverse(c)
	}
	return out, true
}

// orOf builds the disjunction of disjuncts via De Morgan over DAG.And, so
// the result hash-conses the same way every other vertex does.
func orOf(dag *DAG, disjuncts []BP) BP {
	switch len(disjuncts) {
	case 0:
		return BPBottom
	case 1:
		return disjuncts[0]
	}
	negated := make([]BP, len(disjuncts))
	for i, d := range disjuncts {
		negated[i] = Inverse(d)
	}
	return Inverse(dag.And(negated...))
}

// concatExcept returns a copy of list without the element at idx.
func concatExcept(list []BP, idx int) []BP {
	out := make([]BP, 0, len(list)-1)
	for j, v := range list {
		if j != idx {
			out = append(out, v)
		}
	}
	return out
}
