package reasoner

import "context"

// pollInterval is the number of tableau iterations between cancellation
// and timeout checks.
const pollInterval = 5000

// BCKind identifies the kind of non-deterministic decision a branching
// context records.
type BCKind int

const (
	BCOr BCKind = iota
	BCChoose
	BCNN
	BCMaxMerge
	BCBarrier
)

// branchingContext is one save-level's decision record: the decision
// kind and its remaining alternatives, the curNode/curConcept at save
// time, and the branch's own dep-set contribution.
type branchingContext struct {
	kind     BCKind
	level    int
	concepts []BP     // remaining alternatives for BCOr/BCChoose
	pairs    [][2]int // remaining merge candidates for BCMaxMerge
	next     int

	curNode    int
	curConcept BP
	branchDep  DepSet
}

// Tableau (SatTester) runs the expansion-rule loop over one
// CompletionGraph/ToDoQueue pair per query: a trail-journalled store, an
// explicit save/restore stack of decision frames, and a poll point for
// cancellation, generalised from finite-domain labelling to tableau
// expansion rules and from a value trail to a dependency-set-aware
// completion graph.
type Tableau struct {
	dag    *DAG
	roles  *RoleMaster
	config *Config

	graph *CompletionGraph
	todo  *ToDoQueue
	bc    []*branchingContext

	dataReasoners map[int]*DataTypeReasoner

	cache *Cache
	iter  int

	// nominalNodes maps an individual's name to the completion-graph node
	// seeded for it at the start of the current query, by seedNominals.
	nominalNodes map[string]int
	// queryRoot is the node the current query's top-level concept was
	// added to. It can end up deleted mid-run if a nominal merge folds it
	// into another node (expandSingleton).
	queryRoot int

	buildingCache bool // true while running a nested SAT test to populate a modelCache

	// globalAxiom is the compiled T_G conjunct a preprocessing absorption
	// pass could not rewrite into a concept- or role-domain-absorbed
	// form. BPTop when nothing remains unabsorbed. Added to every fresh
	// node by newNode.
	globalAxiom BP
}

// SetGlobalAxiom installs the compiled T_G conjunct a Preprocessor
// produced after absorption. Must be called before the first query.
func (t *Tableau) SetGlobalAxiom(bp BP) {
	t.globalAxiom = bp
}

// NewTableau returns a Tableau over dag/roles using config. The Cache's
// build callback is wired to buildCacheByCGraph so that cache population
// and ordinary satisfiability testing share one code path.
func NewTableau(dag *DAG, roles *RoleMaster, config *Config) *Tableau {
	if config == nil {
		config = DefaultConfig()
	}
	t := &Tableau{dag: dag, roles: roles, config: config, globalAxiom: BPTop}
	t.cache = NewCache(dag, config.CacheCapacity, t.buildCacheByCGraph)
	return t
}

// reset discards the prior query's completion graph, queue, and
// branching stack, starting a fresh top-level query. Pools are not
// reused across top-level queries.
func (t *Tableau) reset() {
	t.graph = NewCompletionGraph()
	t.todo = NewToDoQueue(nil)
	t.bc = nil
	t.dataReasoners = make(map[int]*DataTypeReasoner)
	t.iter = 0
	t.nominalNodes = make(map[string]int)
	t.queryRoot = -1
}

// IsSatisfiable reports whether bp is satisfiable, running a fresh
// tableau expansion. A typed error is returned only for the fatal
// conditions of timeout or cancellation; an internal invariant failure
// instead surfaces as a panic for the caller's recover to catch.
func (t *Tableau) IsSatisfiable(ctx context.Context, bp BP) (bool, error) {
	return t.runSat(ctx, bp)
}

func (t *Tableau) runSat(ctx context.Context, bp BP) (bool, error) {
	t.reset()
	if clash, _ := t.seedNominals(); clash {
		return false, nil
	}
	node, clash, _ := t.newNode()
	if clash {
		return false, nil
	}
	t.queryRoot = node
	if clash, _ := t.addToDoEntry(node, bp, EmptyDepSet); clash {
		return false, nil
	}
	return t.checkSatisfiability(ctx)
}

// seedNominals creates one completion-graph node per individual declared in
// the DAG, before the query root is created. Without this, a GCI whose
// left-hand side is a nominal (e.g. {a} ⊑ C, absorbed only into the global
// axiom since a Singleton vertex never qualifies for concept absorption) is
// vacuously satisfiable: nothing forces {a} to actually be instantiated
// anywhere, so the disjunction it compiles to is always satisfied by
// picking the other disjunct. Seeding a node that already carries {a}
// positively in its own label forces the global axiom's disjunctions to
// resolve against that fact at that node instead.
func (t *Tableau) seedNominals() (bool, DepSet) {
	for _, s := range t.dag.Singletons() {
		v := t.dag.Get(s)
		n, clash, dep := t.newNominalNode(s)
		if clash {
			return true, dep
		}
		t.nominalNodes[v.Individual] = n
	}
	return false, EmptyDepSet
}

// newNominalNode allocates a nominal completion-graph node for individual
// (a TagSingleton BP), forcing individual itself into its label before the
// global axiom is seeded.
func (t *Tableau) newNominalNode(individual BP) (int, bool, DepSet) {
	n := t.graph.GetNewNode()
	t.graph.Node(n).Nominal = true
	for _, rid := range t.roles.ReflexiveRoles() {
		t.graph.AddRoleLabel(n, n, nil, rid, EmptyDepSet)
	}
	if clash, dep := t.addToDoEntry(n, individual, EmptyDepSet); clash {
		return n, true, dep
	}
	if t.globalAxiom == BPTop {
		return n, false, EmptyDepSet
	}
	clash, dep := t.addToDoEntry(n, t.globalAxiom, EmptyDepSet)
	return n, clash, dep
}

// buildCacheByCGraph runs a dedicated SAT test against bp to populate a
// modelCache. It runs the test in a fresh nested Tableau rather than
// reusing the caller's own graph/todo/bc state: CreateCache can be invoked
// from inside an in-progress outer query (doCacheNode, called from
// expandID), and reset()ing the caller's own state out from under itself
// mid-expansion would corrupt that query. The nested Tableau shares only
// the read-only dag/roles/config and the same Cache (so nested cache
// lookups still land in one shared store); buildingCache is set on it so
// that its own expansion does not recursively try to populate further
// caches.
func (t *Tableau) buildCacheByCGraph(bp BP) *modelCache {
	nested := &Tableau{dag: t.dag, roles: t.roles, config: t.config, globalAxiom: t.globalAxiom, cache: t.cache, buildingCache: true}

	sat, err := nested.runSat(context.Background(), bp)
	if err != nil || !sat {
		return newModelCache(CacheInvalid, false)
	}
	mc := newModelCache(CacheValid, true)
	if nested.graph != nil && nested.queryRoot >= 0 && !nested.graph.IsDeleted(nested.queryRoot) {
		root := nested.graph.Node(nested.queryRoot)
		for _, e := range root.Simple {
			mc.Labels[e.BP] = true
			if !isNamedRoleBP(t.dag, e.BP) {
				mc.Shallow = false
			}
		}
	} else {
		// The query root merged away into a nominal node (expandSingleton):
		// fall back to a non-shallow cache with no recorded labels rather
		// than guess which surviving node stands in for it.
		mc.Shallow = false
	}
	return mc
}

// isNamedRoleBP is a coarse shallow/deep discriminator: a cache stays
// shallow only while every label entry is a bare named concept.
func isNamedRoleBP(dag *DAG, bp BP) bool {
	v := dag.Get(bp)
	return v.Tag == TagConcept
}

// newNode allocates a node with no generating predecessor (a level-0 query
// root), inserting a self-edge for every globally reflexive role and
// seeding the compiled global axiom (if any unabsorbed GCIs remain after
// preprocessing).
func (t *Tableau) newNode() (int, bool, DepSet) {
	return t.newSuccessorNode(-1)
}

// newSuccessorNode is newNode, additionally recording parent as the node
// this one was created to discharge a SOME/GE obligation on. Blocking's
// ancestor walk follows this chain via Node.GeneratedFrom.
func (t *Tableau) newSuccessorNode(parent int) (int, bool, DepSet) {
	n := t.graph.GetNewNode()
	t.graph.Node(n).GeneratedFrom = parent
	for _, rid := range t.roles.ReflexiveRoles() {
		t.graph.AddRoleLabel(n, n, nil, rid, EmptyDepSet)
	}
	if t.globalAxiom == BPTop {
		return n, false, EmptyDepSet
	}
	clash, dep := t.addToDoEntry(n, t.globalAxiom, EmptyDepSet)
	return n, clash, dep
}

// checkSatisfiability is the tableau's main expansion loop: pop the
// highest-priority unexpanded label entry, dispatch it, and on a clash
// backtrack via tunedRestore until either the search recovers or the
// branching stack is exhausted.
func (t *Tableau) checkSatisfiability(ctx context.Context) (bool, error) {
	for {
		t.iter++
		if t.iter%pollInterval == 0 {
			select {
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					return false, newError(ErrTimeout, "tableau expansion exceeded its budget")
				}
				return false, newError(ErrCancelled, "tableau expansion was cancelled")
			default:
			}
		}

		item, ok := t.todo.GetNextEntry()
		if !ok {
			t.retestCGBlockedStatus()
			if clash, dep := t.checkFairness(); clash {
				if unsat := t.tunedRestore(dep); unsat {
					return false, nil
				}
				continue
			}
			return true, nil
		}

		if t.graph.IsDeleted(item.node) {
			continue
		}
		if clash, dep := t.commonTactic(item); clash {
			if unsat := t.tunedRestore(dep); unsat {
				return false, nil
			}
		}
	}
}

// retestCGBlockedStatus recomputes every node's blocker link before a SAT
// verdict is returned, since restores earlier in the run may have changed
// ancestor labels a previously-computed blocker relied on.
func (t *Tableau) retestCGBlockedStatus() {
	for i, n := range t.graph.nodes {
		if n.deleted || n.Nominal {
			continue
		}
		t.blockerOf(i)
	}
}

// blockerOf returns the nearest strict ancestor of node (via
// Node.GeneratedFrom) whose label subsumes node's own, or -1 if node is
// unblocked. A blocked node's SOME/GE obligations are considered already
// discharged by its blocker, which stands in for it in the model: this is
// what bounds the otherwise-unbounded successor chain a cyclic existential
// restriction (e.g. a concept defined as ∃R.itself under a transitive R)
// would generate. Nominal nodes are never blocked. The result is also
// cached on Node.Blocker/blockerValid for introspection, but blockerOf
// always recomputes rather than trusting that cache, since neither field is
// journalled and a restore can silently invalidate it.
func (t *Tableau) blockerOf(node int) int {
	n := t.graph.Node(node)
	blocker := -1
	if !n.Nominal {
		for anc := n.GeneratedFrom; anc != -1; anc = t.graph.Node(anc).GeneratedFrom {
			if t.graph.IsDeleted(anc) {
				continue
			}
			if t.labelSubsetOf(node, anc) {
				blocker = anc
				break
			}
		}
	}
	n.Blocker = blocker
	n.blockerValid = true
	return blocker
}

// labelSubsetOf reports whether every concept in node's label also appears
// in other's label: the subset-blocking condition under which other can
// stand in for node without losing any obligation node's label imposes.
func (t *Tableau) labelSubsetOf(node, other int) bool {
	n, o := t.graph.Node(node), t.graph.Node(other)
	for _, e := range n.Simple {
		if !nodeHasLabel(o, e.BP) {
			return false
		}
	}
	for _, e := range n.Complex {
		if !nodeHasLabel(o, e.BP) {
			return false
		}
	}
	return true
}

// checkFairness tests every fairness constraint against the saturated
// graph; a violation is reported as a clash so the normal backtracking
// path handles it uniformly.
func (t *Tableau) checkFairness() (bool, DepSet) {
	if len(t.config.FairnessConstraints) == 0 {
		return false, EmptyDepSet
	}
	for _, fc := range t.config.FairnessConstraints {
		satisfiedSomewhere := false
		for i, n := range t.graph.nodes {
			if n.deleted {
				continue
			}
			if nodeHasLabel(n, fc) {
				satisfiedSomewhere = true
				_ = i
				break
			}
		}
		if !satisfiedSomewhere {
			return true, EmptyDepSet
		}
	}
	return false, EmptyDepSet
}

func nodeHasLabel(n *Node, bp BP) bool {
	for _, e := range n.Simple {
		if e.BP == bp {
			return true
		}
	}
	for _, e := range n.Complex {
		if e.BP == bp {
			return true
		}
	}
	return false
}

// addToDoEntry adds (bp, dep) to node's label: TOP is a
// no-op, BOTTOM is an immediate clash, Collection heads are special-cased
// into an AND expansion, and tryAddConcept handles the done/clash/insert
// decision.
func (t *Tableau) addToDoEntry(node int, bp BP, dep DepSet) (clash bool, clashDep DepSet) {
	if bp == BPTop {
		return false, EmptyDepSet
	}
	if bp == BPBottom {
		return true, dep
	}

	v := t.dag.Get(bp)
	if v.Tag == TagCollection {
		bp = t.collectionToAnd(bp, v)
		v = t.dag.Get(bp)
	}

	done, isClash, existingDep := t.tryAddConcept(node, bp, dep)
	if isClash {
		return true, existingDep
	}
	if done {
		return false, EmptyDepSet
	}

	t.graph.AddConceptToNode(node, bp, dep, v.Tag)
	offset := len(t.nodeSimpleOrComplex(node, v.Tag)) - 1
	simple := v.Tag == TagConcept || v.Tag == TagSingleton || v.Tag == TagTop
	t.todo.AddEntry(node, offset, simple, bp, v.Tag)

	if v.Tag == TagDataValue || v.Tag == TagDataExpr {
		if c, d := t.checkDataNode(node, v, bp, dep); c {
			return true, d
		}
	}
	return false, EmptyDepSet
}

func (t *Tableau) nodeSimpleOrComplex(node int, tag VertexTag) []labelEntry {
	n := t.graph.Node(node)
	if tag == TagConcept || tag == TagSingleton || tag == TagTop {
		return n.Simple
	}
	return n.Complex
}

// collectionToAnd turns a one-of enumeration into the conjunction of
// "is one of these individuals", as an AND over Collection.Children.
func (t *Tableau) collectionToAnd(bp BP, v Vertex) BP {
	return t.dag.And(v.Children...)
}

// tryAddConcept checks bp against node's existing label: already present
// is a no-op (done), Inverse(bp) present is a clash, otherwise the caller
// inserts it fresh.
func (t *Tableau) tryAddConcept(node int, bp BP, dep DepSet) (done, clash bool, clashDep DepSet) {
	n := t.graph.Node(node)
	for _, e := range n.Simple {
		if e.BP == bp {
			return true, false, EmptyDepSet
		}
		if e.BP == Inverse(bp) {
			return false, true, e.Dep.Union(dep)
		}
	}
	for _, e := range n.Complex {
		if e.BP == bp {
			return true, false, EmptyDepSet
		}
		if e.BP == Inverse(bp) {
			return false, true, e.Dep.Union(dep)
		}
	}
	return false, false, EmptyDepSet
}

// checkDataNode folds a datatype label entry into node's DataTypeReasoner
// and reports whether the addition alone clashes.
func (t *Tableau) checkDataNode(node int, v Vertex, bp BP, dep DepSet) (bool, DepSet) {
	dr, ok := t.dataReasoners[node]
	if !ok {
		dr = NewDataTypeReasoner()
		t.dataReasoners[node] = dr
	}
	var entry DepInterval
	switch v.Tag {
	case TagDataValue:
		entry = PointInterval(v.DataValue)
	case TagDataExpr:
		entry = FacetInterval(v.DataFacet)
		if bp.IsNegative() {
			entry = negateFacetInterval(entry)
		}
	}
	if clash, d := dr.AddDataEntry(PrimitiveType(v.DataType), entry, dep); clash {
		return true, d
	}
	if clash, d := dr.CheckClash(); clash {
		return true, d
	}
	return false, EmptyDepSet
}

// negateFacetInterval flips a half-open facet interval for a negated
// DataExpr reference (¬(>18) behaves like <=18).
func negateFacetInterval(in DepInterval) DepInterval {
	out := DepInterval{}
	if in.Min.set {
		out.Max = Bound{Value: in.Min.Value, Inclusive: !in.Min.Inclusive, set: true}
	}
	if in.Max.set {
		out.Min = Bound{Value: in.Max.Value, Inclusive: !in.Max.Inclusive, set: true}
	}
	return out
}

// commonTactic dispatches on the concept's tag to pick an expansion rule.
// And/LE vertices serve two logical connectives each via the entry's
// polarity (De Morgan for And/Or, at-most/at-least for LE).
func (t *Tableau) commonTactic(item todoItem) (bool, DepSet) {
	if t.graph.IsDeleted(item.node) {
		return false, EmptyDepSet
	}
	v := t.dag.Get(item.bp)
	dep := t.entryDep(item)
	switch v.Tag {
	case TagConcept:
		return t.expandID(item.node, item.bp, v, dep)
	case TagSingleton:
		return t.expandSingleton(item.node, item.bp, v, dep)
	case TagAnd, TagCollection:
		if item.bp.IsNegative() {
			return t.expandOr(item.node, item.bp, v, dep)
		}
		return t.expandAnd(item.node, v, dep)
	case TagForall:
		return t.expandForall(item.node, v, dep)
	case TagLE:
		if item.bp.IsNegative() {
			return t.expandSome(item.node, v, dep)
		}
		return t.expandLE(item.node, v, dep)
	case TagReflexive:
		return t.expandReflexiveConcept(item.node, v, dep)
	default:
		return false, EmptyDepSet
	}
}

// entryDep recovers the dep-set recorded for a todo item's label entry.
func (t *Tableau) entryDep(item todoItem) DepSet {
	n := t.graph.Node(item.node)
	list := n.Complex
	if item.simple {
		list = n.Simple
	}
	if item.offset >= 0 && item.offset < len(list) {
		return list[item.offset].Dep
	}
	return EmptyDepSet
}

// canBeCached reports whether bp is a plain named-concept reference worth
// querying the subsumption cache for: the only shape buildCacheByCGraph's
// standalone SAT test answers soundly as a stand-in for bp's contribution
// to some larger node label.
func (t *Tableau) canBeCached(bp BP) bool {
	return t.dag.Get(bp).Tag == TagConcept
}

// doCacheNode consults (building if necessary) bp's cache and reports
// whether node's label can be judged clashed purely from it. Only a
// CacheInvalid verdict is ever acted on: a standalone-unsatisfiable named
// concept can never be satisfied as part of a larger conjunction either. A
// CacheValid verdict is never used to skip node's own expansion — that
// would be unsound whenever some other part of node's label interacts with
// bp's own role successors, since model-merging this way is incomplete for
// ∃/∀/≤ restrictions in general — it only marks the node Cached for
// bookkeeping.
func (t *Tableau) doCacheNode(node int, bp BP, dep DepSet) (bool, DepSet) {
	mc := t.cache.CreateCache(bp)
	switch mc.State {
	case CacheInvalid:
		return true, dep
	case CacheValid:
		t.graph.Node(node).Cached = true
	}
	return false, EmptyDepSet
}

// expandID unfolds a named concept's definition, if any. A negated
// reference to a primitive concept has no definition to expand.
func (t *Tableau) expandID(node int, bp BP, v Vertex, dep DepSet) (bool, DepSet) {
	if !t.buildingCache && t.canBeCached(bp) {
		if clash, d := t.doCacheNode(node, bp, dep); clash {
			return clash, d
		}
	}
	if IsValid(v.Definition) {
		target := v.Definition
		if bp.IsNegative() {
			target = Inverse(target)
		}
		if clash, clashDep := t.addToDoEntry(node, target, dep); clash {
			return clash, clashDep
		}
	}
	// Implied conjuncts are told-subsumer inclusions absorbed onto a
	// primitive concept; they only unfold on the positive occurrence.
	if !bp.IsNegative() {
		for _, imp := range v.Implied {
			if clash, clashDep := t.addToDoEntry(node, imp, dep); clash {
				return clash, clashDep
			}
		}
	}
	return false, EmptyDepSet
}

// expandSingleton implements the O-rule: a positive occurrence of a
// nominal's label entry identifies node with that individual's own
// canonical node (seeded by seedNominals). A negative occurrence asserts
// only "node is not this individual", which needs no further expansion
// beyond the ordinary label-clash bookkeeping already applied when it was
// inserted. When node is some other node than the canonical one, node is
// merged into it so later expansion observes one shared label; any of
// node's own pending label entries are re-queued against the canonical
// node; Merge alone does not do this, and a merged-away node's queued
// entries are otherwise silently dropped by checkSatisfiability's
// already-deleted check.
func (t *Tableau) expandSingleton(node int, bp BP, v Vertex, dep DepSet) (bool, DepSet) {
	if bp.IsNegative() {
		return false, EmptyDepSet
	}
	canonical, ok := t.nominalNodes[v.Individual]
	if !ok || canonical == node {
		return false, EmptyDepSet
	}
	src := t.graph.Node(node)
	movedSimple := append([]labelEntry(nil), src.Simple...)
	movedComplex := append([]labelEntry(nil), src.Complex...)
	simpleBefore := len(t.graph.Node(canonical).Simple)
	complexBefore := len(t.graph.Node(canonical).Complex)
	t.graph.Merge(node, canonical, dep)
	for i, e := range movedSimple {
		t.todo.AddEntry(canonical, simpleBefore+i, true, e.BP, t.dag.Get(e.BP).Tag)
	}
	for i, e := range movedComplex {
		t.todo.AddEntry(canonical, complexBefore+i, false, e.BP, t.dag.Get(e.BP).Tag)
	}
	return t.scanLabelClash(canonical)
}

// expandAnd adds every conjunct to node's label.
func (t *Tableau) expandAnd(node int, v Vertex, dep DepSet) (bool, DepSet) {
	for _, c := range v.Children {
		if clash, d := t.addToDoEntry(node, c, dep); clash {
			return true, d
		}
	}
	return false, EmptyDepSet
}

// expandOr performs the OR-rule: a negated And-vertex is the disjunction
// of its children's negations (De Morgan), a non-deterministic choice
// requiring a branching context.
func (t *Tableau) expandOr(node int, bp BP, v Vertex, dep DepSet) (bool, DepSet) {
	alternatives := make([]BP, len(v.Children))
	for i, c := range v.Children {
		alternatives[i] = Inverse(c)
	}
	return t.branchConcepts(node, alternatives, dep, BCOr)
}

// branchConcepts saves a new level, pushes a BCOr/BCChoose branching
// context, and tries alternatives in order.
func (t *Tableau) branchConcepts(node int, alternatives []BP, dep DepSet, kind BCKind) (bool, DepSet) {
	level := t.save()
	bc := &branchingContext{kind: kind, level: level, concepts: alternatives, curNode: node, branchDep: dep}
	t.bc = append(t.bc, bc)
	return t.tryNextAlternative(bc)
}

func (t *Tableau) save() int {
	gl := t.graph.Save()
	t.todo.Save()
	return gl
}

// tryNextAlternative tries each untried alternative of bc in order. Since
// a clash detected before any label mutation leaves nothing to undo, it
// is safe to try the next alternative immediately rather than restoring.
// tryNextAlternative returns clash=true only once every alternative has
// been exhausted, popping bc itself in that case.
func (t *Tableau) tryNextAlternative(bc *branchingContext) (bool, DepSet) {
	switch bc.kind {
	case BCOr, BCChoose:
		for bc.next < len(bc.concepts) {
			alt := bc.concepts[bc.next]
			bc.next++
			depAlt := SingletonDepSet(bc.level).Union(bc.branchDep)
			if clash, _ := t.addToDoEntry(bc.curNode, alt, depAlt); !clash {
				return false, EmptyDepSet
			}
		}
	case BCMaxMerge:
		for bc.next < len(bc.pairs) {
			pair := bc.pairs[bc.next]
			bc.next++
			depAlt := SingletonDepSet(bc.level).Union(bc.branchDep)
			if clash, _ := t.tryMergePair(pair[0], pair[1], depAlt); !clash {
				return false, EmptyDepSet
			}
		}
	}
	t.popBC()
	return true, SingletonDepSet(bc.level).Union(bc.branchDep)
}

func (t *Tableau) popBC() {
	if len(t.bc) > 0 {
		t.bc = t.bc[:len(t.bc)-1]
	}
}

// tunedRestore consumes clashDep, popping branching contexts whose level
// is absent from it (dependency-directed jumping) until the deepest
// contributing level is found, then tries that level's next alternative.
// It returns true (UNSAT) once the stack empties with the clash still
// unresolved.
func (t *Tableau) tunedRestore(clashDep DepSet) bool {
	for len(t.bc) > 0 {
		bc := t.bc[len(t.bc)-1]
		if t.config.UseBackjumping && !clashDep.HasLevel(bc.level) {
			t.bc = t.bc[:len(t.bc)-1]
			continue
		}
		t.graph.Restore(bc.level - 1)
		t.todo.Restore(bc.level - 1)
		clash, newDep := t.tryNextAlternative(bc)
		if !clash {
			return false
		}
		clashDep = newDep
	}
	return true
}

// expandForall propagates v.Filler to every R-successor of node, where R
// is v.Role or any of its sub-roles (the sub-role closure for transitive
// roles was already baked into distinct Forall vertices by DAG.Forall;
// here we additionally honour plain, non-transitive sub-roling).
func (t *Tableau) expandForall(node int, v Vertex, dep DepSet) (bool, DepSet) {
	n := t.graph.Node(node)
	for to, e := range n.Out {
		if !t.edgeImpliesRole(e, v.Role) {
			continue
		}
		if clash, d := t.addToDoEntry(to, v.Filler, dep.Union(e.Dep)); clash {
			return true, d
		}
	}
	return false, EmptyDepSet
}

func (t *Tableau) edgeImpliesRole(e *Edge, role RoleID) bool {
	if e.Roles[role] {
		return true
	}
	for r := range e.Roles {
		if t.isSubRoleOf(r, role) {
			return true
		}
	}
	return false
}

func (t *Tableau) isSubRoleOf(sub, super RoleID) bool {
	if sub == super {
		return true
	}
	for _, a := range t.roles.Ancestors(sub) {
		if a == super {
			return true
		}
	}
	return false
}

// expandReflexiveConcept implements the hasSelf construct: adding
// Reflexive(role) to node's label asserts a role self-loop at node.
func (t *Tableau) expandReflexiveConcept(node int, v Vertex, dep DepSet) (bool, DepSet) {
	t.graph.AddRoleLabel(node, node, nil, v.Role, dep)
	return t.enforceRoleDomain(node, v.Role, dep)
}

// countSuccessorsWithFiller counts R-successors of node whose label
// already contains filler.
func (t *Tableau) countSuccessorsWithFiller(node int, role RoleID, filler BP) []int {
	var out []int
	n := t.graph.Node(node)
	for to, e := range n.Out {
		if !t.edgeImpliesRole(e, role) {
			continue
		}
		if nodeHasLabel(t.graph.Node(to), filler) {
			out = append(out, to)
		}
	}
	return out
}

// expandSome implements the SOME/GE rule: ¬(<=n R.C) requires at least
// n+1 R-successors satisfying C. A functional role instead merges the new
// requirement into its single existing successor.
func (t *Tableau) expandSome(node int, v Vertex, dep DepSet) (bool, DepSet) {
	need := v.N + 1
	satisfied := t.countSuccessorsWithFiller(node, v.Role, v.Filler)

	if role, ok := t.roles.Get(v.Role); ok && role.Functional {
		if need > 1 {
			return true, dep
		}
		n := t.graph.Node(node)
		for to, e := range n.Out {
			if t.edgeImpliesRole(e, v.Role) {
				return t.addToDoEntry(to, v.Filler, dep)
			}
		}
	}

	if t.blockerOf(node) != -1 {
		return false, EmptyDepSet
	}

	for len(satisfied) < need {
		to, clash, d := t.newSuccessorNode(node)
		if clash {
			return true, d
		}
		t.graph.AddRoleLabel(node, to, nil, v.Role, dep)
		if clash, d := t.enforceRoleDomain(node, v.Role, dep); clash {
			return true, d
		}
		if clash, d := t.addToDoEntry(to, v.Filler, dep); clash {
			return true, d
		}
		satisfied = append(satisfied, to)
	}
	return false, EmptyDepSet
}

// enforceRoleDomain adds role's domain restriction to node whenever node
// gains an outgoing role edge, the deterministic enforcement a role-domain
// absorption installs in place of a disjunctive global axiom.
func (t *Tableau) enforceRoleDomain(node int, role RoleID, dep DepSet) (bool, DepSet) {
	r, ok := t.roles.Get(role)
	if !ok || !IsValid(r.Domain) || r.Domain == BPTop {
		return false, EmptyDepSet
	}
	return t.addToDoEntry(node, r.Domain, dep)
}

// expandLE implements the at-most rule: if more than n R-successors
// satisfy filler, some of them must be merged until at most n remain.
// Candidate pairs are tried in index order as a BCMaxMerge branching
// context; see DESIGN.md for the scope of this simplification relative
// to full pairwise nondeterminism with inverse-role interaction.
func (t *Tableau) expandLE(node int, v Vertex, dep DepSet) (bool, DepSet) {
	if role, ok := t.roles.Get(v.Role); ok && !role.simple {
		panic("reasoner: cardinality restriction on non-simple role")
	}
	successors := t.countSuccessorsWithFiller(node, v.Role, v.Filler)
	if len(successors) <= v.N {
		return false, EmptyDepSet
	}
	var pairs [][2]int
	for i := 0; i < len(successors); i++ {
		for j := i + 1; j < len(successors); j++ {
			pairs = append(pairs, [2]int{successors[i], successors[j]})
		}
	}
	level := t.save()
	bc := &branchingContext{kind: BCMaxMerge, level: level, pairs: pairs, curNode: node, branchDep: dep}
	t.bc = append(t.bc, bc)
	clash, clashDep := t.tryNextAlternative(bc)
	if clash {
		return true, clashDep
	}
	// One merge may not be enough; re-check.
	return t.expandLE(node, v, dep)
}

// tryMergePair attempts to merge b into a, reporting a clash if the merge
// is forbidden (two distinct nominals) or the merged label is
// inconsistent.
func (t *Tableau) tryMergePair(a, b int, dep DepSet) (bool, DepSet) {
	na, nb := t.graph.Node(a), t.graph.Node(b)
	if na.Nominal && nb.Nominal {
		return true, dep
	}
	t.graph.Merge(b, a, dep)
	if clash, d := t.scanLabelClash(a); clash {
		return true, d
	}
	return false, EmptyDepSet
}

// scanLabelClash checks a's simple label for a direct bp/Inverse(bp)
// contradiction, as can arise after a merge.
func (t *Tableau) scanLabelClash(node int) (bool, DepSet) {
	n := t.graph.Node(node)
	for i, e := range n.Simple {
		for j := i + 1; j < len(n.Simple); j++ {
			if n.Simple[j].BP == Inverse(e.BP) {
				return true, e.Dep.Union(n.Simple[j].Dep)
			}
		}
	}
	return false, EmptyDepSet
}
