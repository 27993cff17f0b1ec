package reasoner

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reasoner is the small façade an external caller drives an ontology
// through: load axioms, call Preprocess once, then ask satisfiability,
// subsumption, instance, and hierarchy-navigation questions. It glues
// together the DAG, role hierarchy, preprocessor, tableau, taxonomy, and
// ABox without exposing any of their internals.
type Reasoner struct {
	dag   *DAG
	roles *RoleMaster
	pre   *Preprocessor
	sat   *Tableau
	tax   *Taxonomy
	abox  *ABox
	log   *zap.SugaredLogger

	preprocessed bool

	disjointRoles map[RoleID]map[RoleID]bool

	timeout    time.Duration
	cancelFunc context.CancelFunc
}

// NewReasoner returns an empty Reasoner. config may be nil, in which case
// DefaultConfig is used.
func NewReasoner(config *Config) *Reasoner {
	if config == nil {
		config = DefaultConfig()
	}
	log := config.Logger
	if log == nil {
		log = newNopLogger()
	}
	roles := NewRoleMaster()
	dag := NewDAG(roles)
	// Taxonomy gets its own Tableau over the same DAG/roles rather than
	// sharing the façade's: a classification run and a query must not
	// contend over one Tableau's completion-graph state. Sharing the
	// DAG/RoleMaster themselves is safe — they are read-only once
	// preprocessing completes.
	return &Reasoner{
		dag:           dag,
		roles:         roles,
		pre:           NewPreprocessor(dag, roles, log),
		sat:           NewTableau(dag, roles, config),
		tax:           NewTaxonomy(dag, NewTableau(dag, roles, config), log),
		abox:          NewABox(dag),
		log:           log,
		disjointRoles: make(map[RoleID]map[RoleID]bool),
		timeout:       config.timeoutDuration(),
	}
}

// Concept declares (or looks up) a primitive named concept.
func (r *Reasoner) Concept(name string) BP {
	return r.dag.AddConcept(name, PConcept)
}

// ConceptName returns concept's declared name, or "" if bp does not name a
// concept.
func (r *Reasoner) ConceptName(concept BP) string {
	return r.dag.Get(concept).Name
}

// IndividualName returns individual's declared name, or "" if bp does not
// name an individual.
func (r *Reasoner) IndividualName(individual BP) string {
	return r.dag.Get(individual).Individual
}

// ConjoinConcepts builds the conjunction of concepts, for a caller
// assembling a defined concept's body without reaching past the façade
// into the DAG directly.
func (r *Reasoner) ConjoinConcepts(concepts ...BP) BP {
	return r.dag.And(concepts...)
}

// Not negates concept.
func (r *Reasoner) Not(concept BP) BP { return Inverse(concept) }

// Or builds the disjunction of concepts via De Morgan over ConjoinConcepts.
func (r *Reasoner) Or(concepts ...BP) BP {
	return orOf(r.dag, concepts)
}

// Forall builds the universal restriction ∀role.filler.
func (r *Reasoner) Forall(role RoleID, filler BP) BP {
	return r.dag.Forall(role, filler)
}

// Some builds the existential restriction ∃role.filler, i.e. ¬(≤0
// role.filler).
func (r *Reasoner) Some(role RoleID, filler BP) BP {
	return Inverse(r.dag.Atmost(0, role, filler))
}

// Atmost builds the at-most number restriction (≤n role.filler).
func (r *Reasoner) Atmost(n int, role RoleID, filler BP) BP {
	return r.dag.Atmost(n, role, filler)
}

// Atleast builds the at-least number restriction (≥n role.filler), the
// negation of (≤n-1 role.filler); n<=0 is trivially true (⊤).
func (r *Reasoner) Atleast(n int, role RoleID, filler BP) BP {
	if n <= 0 {
		return BPTop
	}
	return Inverse(r.dag.Atmost(n-1, role, filler))
}

// Role declares (or looks up) an object or data role.
func (r *Reasoner) Role(name string, data bool) RoleID {
	return r.roles.Declare(name, data)
}

// InverseRole declares name as the inverse direction of role.
func (r *Reasoner) InverseRole(name string, role RoleID) RoleID {
	return r.roles.DeclareInverse(name, role)
}

// ConceptInclusion loads `lhs ⊑ rhs`.
func (r *Reasoner) ConceptInclusion(lhs, rhs BP) {
	r.pre.AddConceptInclusion(lhs, rhs)
}

// ConceptEquivalence loads `concept ≡ def`.
func (r *Reasoner) ConceptEquivalence(concept, def BP) {
	r.pre.AddConceptEquivalence(concept, def)
}

// DisjointConcepts loads pairwise disjointness among concepts, absorbed
// as `concepts[i] ⊑ ¬concepts[j]` for every i < j.
func (r *Reasoner) DisjointConcepts(concepts ...BP) {
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			r.pre.AddConceptInclusion(concepts[i], Inverse(concepts[j]))
		}
	}
}

// RoleInclusion loads `sub ⊑ super`.
func (r *Reasoner) RoleInclusion(sub, super RoleID) {
	r.roles.AddSubRole(sub, super)
}

// RoleComposition loads `chain[0]∘...∘chain[n-1] ⊑ super`.
func (r *Reasoner) RoleComposition(chain []RoleID, super RoleID) {
	r.roles.AddComposition(chain, super)
}

// RoleEquivalence loads mutual role inclusion between a and b.
func (r *Reasoner) RoleEquivalence(a, b RoleID) {
	r.roles.AddSubRole(a, b)
	r.roles.AddSubRole(b, a)
}

// DisjointRoles records that a and b may never both relate the same pair
// of individuals. Enforced as an advisory check by Preprocess, against
// the role triples asserted so far; it is not folded into the tableau's
// own edge-creation rules (see DESIGN.md for the scope of this
// simplification).
func (r *Reasoner) DisjointRoles(a, b RoleID) {
	if r.disjointRoles[a] == nil {
		r.disjointRoles[a] = make(map[RoleID]bool)
	}
	r.disjointRoles[a][b] = true
	if r.disjointRoles[b] == nil {
		r.disjointRoles[b] = make(map[RoleID]bool)
	}
	r.disjointRoles[b][a] = true
}

// disjointRolesConsistent reports false if any pair of roles marked
// disjoint by DisjointRoles was asserted to relate the same (from, to)
// pair of individuals.
func (r *Reasoner) disjointRolesConsistent() bool {
	for a, others := range r.disjointRoles {
		for b := range others {
			for _, pair := range r.abox.RelatedIndividuals(a) {
				if r.abox.HasRole(b, pair[0], pair[1]) {
					return false
				}
			}
		}
	}
	return true
}

// FunctionalRole marks role functional.
func (r *Reasoner) FunctionalRole(role RoleID) { r.roles.SetFunctional(role) }

// TransitiveRole marks role transitive.
func (r *Reasoner) TransitiveRole(role RoleID) { r.roles.SetTransitive(role) }

// ReflexiveRole marks role reflexive.
func (r *Reasoner) ReflexiveRole(role RoleID) { r.roles.SetReflexive(role) }

// IrreflexiveRole marks role irreflexive.
func (r *Reasoner) IrreflexiveRole(role RoleID) { r.roles.SetIrreflexive(role) }

// SymmetricRole marks role symmetric.
func (r *Reasoner) SymmetricRole(role RoleID) { r.roles.SetSymmetric(role) }

// RoleDomain loads `Domain(role) := d`.
func (r *Reasoner) RoleDomain(role RoleID, d BP) {
	r.pre.AddRoleDomain(role, d)
}

// RoleRange loads `Range(role) = d`.
func (r *Reasoner) RoleRange(role RoleID, d BP) {
	r.pre.AddRoleRange(role, d)
}

// Datatype declares (or looks up) a primitive datatype vertex.
func (r *Reasoner) Datatype(name string) BP {
	return r.dag.DataTypeVertex(name)
}

// DataValue builds the concrete literal vertex for value of dataType.
func (r *Reasoner) DataValue(dataType string, value interface{}) BP {
	return r.dag.DataValueVertex(dataType, value)
}

// DataRange builds a facet-restricted datatype expression, e.g. "age >
// 18" as DataRange("integer", FacetGT, 18).
func (r *Reasoner) DataRange(dataType string, op FacetOp, bound interface{}) BP {
	return r.dag.DataExpr(dataType, DataFacet{Op: op, Bound: bound})
}

// Individual declares (or looks up) a named individual.
func (r *Reasoner) Individual(name string) BP {
	return r.abox.Individual(name)
}

// ClassAssertion loads `individual : concept`.
func (r *Reasoner) ClassAssertion(individual, concept BP) {
	r.abox.AssertClass(individual, concept)
}

// RoleAssertion loads `(from, role, to)`.
func (r *Reasoner) RoleAssertion(role RoleID, from, to BP) {
	r.abox.AssertRole(role, from, to)
}

// NegativeRoleAssertion checks `¬(from, role, to)` against the ABox,
// returning false if the same triple was already asserted positively.
// The negative assertion is not recorded: later RoleAssertion calls,
// Preprocess and IsConsistent do not see it.
func (r *Reasoner) NegativeRoleAssertion(role RoleID, from, to BP) bool {
	return !r.abox.HasRole(role, from, to)
}

// SameIndividuals loads `a = b`.
func (r *Reasoner) SameIndividuals(a, b BP) {
	r.abox.SameIndividuals(a, b)
}

// DifferentIndividuals loads `a ≠ b`.
func (r *Reasoner) DifferentIndividuals(a, b BP) {
	r.abox.AssertDifferent(a, b)
}

// IsSameIndividuals reports whether a and b denote the same individual,
// either by direct/transitive SameIndividuals assertion or as a
// consequence of a functional role relating some individual to both (closed
// once, over every RoleAssertion loaded so far, by Preprocess).
func (r *Reasoner) IsSameIndividuals(ctx context.Context, a, b BP) (bool, error) {
	if !r.preprocessed {
		return false, newError(ErrMalformedInput, "query issued before Preprocess")
	}
	if r.pre.Inconsistent() {
		return true, nil
	}
	return r.abox.IsSameIndividual(a, b), nil
}

// Preprocess closes the role hierarchy, runs GCI absorption, installs the
// resulting global axiom and told-subsumer hints, and classifies every
// declared concept. Idempotent: a second call re-runs over whatever new
// axioms were loaded since, without discarding prior classification
// results for concepts that were not touched.
func (r *Reasoner) Preprocess(ctx context.Context) error {
	if err := r.roles.CloseHierarchy(); err != nil {
		if errors.Is(err, ErrRoleInclusionCycle) {
			return newError(ErrCycleInRoleInclusion, err.Error())
		}
		return err
	}

	if !r.disjointRolesConsistent() {
		r.pre.MarkInconsistent()
	}

	r.pre.Absorb()
	r.sat.SetGlobalAxiom(r.pre.GlobalAxiom())

	for concept, subsumers := range r.pre.ToldSubsumers() {
		r.tax.SetToldSubsumers(concept, subsumers)
	}

	r.abox.CloseFunctionalRoles(r.roles)

	if !r.abox.ConsistentSameDifferent() {
		r.pre.MarkInconsistent()
	}

	r.preprocessed = true
	return r.tax.Classify(ctx, r.dag.ConceptNames(), nil)
}

// queryCtx derives a context bounded by the façade's configured timeout
// (if any), returning a cancel func the caller must invoke once the query
// completes.
func (r *Reasoner) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// SetTimeout installs a per-query millisecond budget; zero disables it.
func (r *Reasoner) SetTimeout(ms int) {
	if ms <= 0 {
		r.timeout = 0
		return
	}
	r.timeout = time.Duration(ms) * time.Millisecond
}

// Cancel aborts whichever query is currently in flight, if any.
func (r *Reasoner) Cancel() {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
}

func (r *Reasoner) runQuery(ctx context.Context, bp BP) (bool, error) {
	if !r.preprocessed {
		return false, newError(ErrMalformedInput, "query issued before Preprocess")
	}
	qctx, cancel := r.queryCtx(ctx)
	r.cancelFunc = cancel
	defer func() { r.cancelFunc = nil; cancel() }()
	return r.sat.IsSatisfiable(qctx, bp)
}

// IsConsistent reports whether the loaded knowledge base is consistent:
// the global axiom is satisfiable and same-as/different-from assertions
// do not contradict each other.
func (r *Reasoner) IsConsistent(ctx context.Context) (bool, error) {
	if r.pre.Inconsistent() {
		return false, nil
	}
	return r.runQuery(ctx, BPTop)
}

// IsSatisfiable reports whether concept is satisfiable given the loaded
// axioms.
func (r *Reasoner) IsSatisfiable(ctx context.Context, concept BP) (bool, error) {
	if r.pre.Inconsistent() {
		return false, nil
	}
	return r.runQuery(ctx, concept)
}

// IsSubsumedBy reports whether sub ⊑ super, computed as the negation of
// satisfiability of sub ⊓ ¬super.
func (r *Reasoner) IsSubsumedBy(ctx context.Context, sub, super BP) (bool, error) {
	if r.pre.Inconsistent() {
		return true, nil
	}
	sat, err := r.runQuery(ctx, r.dag.And(sub, Inverse(super)))
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// IsDisjoint reports whether a ⊓ b is unsatisfiable.
func (r *Reasoner) IsDisjoint(ctx context.Context, a, b BP) (bool, error) {
	if r.pre.Inconsistent() {
		return false, nil
	}
	sat, err := r.runQuery(ctx, r.dag.And(a, b))
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// IsInstance reports whether individual is provably a member of concept:
// every concept asserted directly of individual (or of an individual
// unioned into its same-as class) is conjoined with ¬concept, and the
// result must be unsatisfiable. This answers instance checking purely
// from asserted types; it does not additionally derive membership from
// role-filler constraints the tableau would discover by expanding
// individual's asserted role edges (see DESIGN.md for the scope of this
// simplification).
func (r *Reasoner) IsInstance(ctx context.Context, individual, concept BP) (bool, error) {
	if r.pre.Inconsistent() {
		return true, nil
	}
	conj := individual
	for _, c := range r.abox.AssertedClasses(individual) {
		conj = r.dag.And(conj, c)
	}
	sat, err := r.runQuery(ctx, r.dag.And(conj, Inverse(concept)))
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// Types returns every declared concept individual is a provable instance
// of.
func (r *Reasoner) Types(ctx context.Context, individual BP) ([]BP, error) {
	var out []BP
	for _, c := range r.dag.ConceptNames() {
		ok, err := r.IsInstance(ctx, individual, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Instances returns every individual provably a member of concept.
func (r *Reasoner) Instances(ctx context.Context, concept BP) ([]BP, error) {
	var out []BP
	for _, ind := range r.abox.Individuals() {
		ok, err := r.IsInstance(ctx, ind, concept)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ind)
		}
	}
	return out, nil
}

// RoleFillers returns every asserted R-filler of individual.
func (r *Reasoner) RoleFillers(individual BP, role RoleID) []BP {
	return r.abox.RoleFillers(individual, role)
}

// RelatedIndividuals returns every (from, to) pair asserted for role.
func (r *Reasoner) RelatedIndividuals(role RoleID) [][2]BP {
	return r.abox.RelatedIndividuals(role)
}

// Parents returns the immediate taxonomy parents of concept's classified
// vertex.
func (r *Reasoner) Parents(concept BP) []BP { return r.vertexBPs(r.tax.Parents(concept)) }

// Children returns the immediate taxonomy children of concept's
// classified vertex.
func (r *Reasoner) Children(concept BP) []BP { return r.vertexBPs(r.tax.Children(concept)) }

// Ancestors returns every taxonomy ancestor of concept.
func (r *Reasoner) Ancestors(concept BP) []BP { return r.vertexBPs(r.tax.Ancestors(concept)) }

// Descendants returns every taxonomy descendant of concept.
func (r *Reasoner) Descendants(concept BP) []BP { return r.vertexBPs(r.tax.Descendants(concept)) }

// Equivalents returns every concept proven definitionally equivalent to
// concept.
func (r *Reasoner) Equivalents(concept BP) []BP { return r.tax.Equivalents(concept) }

// vertexBPs flattens a set of taxonomy vertices into the representative
// BP of each.
func (r *Reasoner) vertexBPs(vertices []*TaxonomyVertex) []BP {
	out := make([]BP, 0, len(vertices))
	for _, v := range vertices {
		if len(v.Synonyms) > 0 {
			out = append(out, v.Synonyms[0])
		}
	}
	return out
}

// RoleHierarchy materialises the current role hierarchy for navigation;
// CloseHierarchy (via Preprocess) must have been called first.
func (r *Reasoner) RoleHierarchy() *RoleHierarchy {
	return BuildRoleHierarchy(r.roles)
}
