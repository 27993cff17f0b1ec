package reasoner

import (
	"context"

	"go.uber.org/zap"
)

// ProgressMonitor receives per-concept callbacks during classification and
// may request cancellation between concepts. Classification checks
// ShouldCancel once per concept, never mid-concept, since a single
// concept's top-down/bottom-up search is not itself a safe suspension
// point.
type ProgressMonitor interface {
	OnConceptStart(name string)
	OnConceptDone(name string)
	ShouldCancel() bool
}

type noopProgressMonitor struct{}

func (noopProgressMonitor) OnConceptStart(string) {}
func (noopProgressMonitor) OnConceptDone(string)  {}
func (noopProgressMonitor) ShouldCancel() bool    { return false }

// TaxonomyVertex is one position in the classified subsumption order: a
// set of synonymous concept names (proven definitionally equivalent, so
// sharing one vertex) plus links to its immediate parents and children.
type TaxonomyVertex struct {
	Synonyms []BP
	Parents  []*TaxonomyVertex
	Children []*TaxonomyVertex
}

func containsVertex(list []*TaxonomyVertex, v *TaxonomyVertex) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func dedupeVertices(list []*TaxonomyVertex) []*TaxonomyVertex {
	var out []*TaxonomyVertex
	for _, v := range list {
		if !containsVertex(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Taxonomy builds and holds the classified partial order of named concepts
// under subsumption. It does not run its own search: every subsumption
// test is delegated to a Tableau's satisfiability oracle, the same way
// isSubsumedBy is defined elsewhere as the negation of a satisfiability
// test on a conjunction.
type Taxonomy struct {
	dag *DAG
	sat *Tableau
	log *zap.SugaredLogger

	top *TaxonomyVertex
	bot *TaxonomyVertex

	byBP map[BP]*TaxonomyVertex

	toldSubsumers map[BP][]BP

	onStack map[BP]bool
	stack   []BP
}

// NewTaxonomy returns an empty taxonomy with just TOP and BOTTOM vertices.
// log may be nil, in which case classification logs nowhere.
func NewTaxonomy(dag *DAG, sat *Tableau, log *zap.SugaredLogger) *Taxonomy {
	top := &TaxonomyVertex{Synonyms: []BP{BPTop}}
	bot := &TaxonomyVertex{Synonyms: []BP{BPBottom}}
	top.Children = []*TaxonomyVertex{bot}
	bot.Parents = []*TaxonomyVertex{top}
	if log == nil {
		log = newNopLogger()
	}
	return &Taxonomy{
		dag:     dag,
		sat:     sat,
		log:     log,
		top:     top,
		bot:     bot,
		byBP:    map[BP]*TaxonomyVertex{BPTop: top, BPBottom: bot},
		onStack: make(map[BP]bool),
	}
}

// SetToldSubsumers installs the told-subsumer hints derived from absorbed
// `P ⊑ Q` axioms for a concept: Q is a named concept appearing directly on
// the right of an inclusion with P on the left. Classification consumes
// these to seed both cycle detection and top-down pruning.
func (t *Taxonomy) SetToldSubsumers(p BP, subsumers []BP) {
	if t.toldSubsumers == nil {
		t.toldSubsumers = make(map[BP][]BP)
	}
	t.toldSubsumers[p] = subsumers
}

// Classify runs classification over every BP in names (each must be a
// TagConcept vertex), skipping already-classified and non-classifiable
// entries. Told-subsumer cycles are resolved by collapsing the cycle into
// one synonym vertex rather than failing classification.
func (t *Taxonomy) Classify(ctx context.Context, names []BP, monitor ProgressMonitor) error {
	if monitor == nil {
		monitor = noopProgressMonitor{}
	}
	for _, p := range names {
		if t.dag.Get(p).Tag != TagConcept {
			continue
		}
		if _, done := t.byBP[p]; done {
			continue
		}
		if err := t.pushAndClassify(ctx, p, monitor); err != nil {
			return err
		}
	}
	return nil
}

// pushAndClassify pushes p and its told subsumers onto a stack, walking
// unclassified told subsumers first so a concept is always classified
// after every told subsumer it depends on. Encountering p already on the
// stack means every vertex from that occurrence to the top of the stack
// forms a told-subsumer cycle: they all become synonyms of the first
// occurrence.
func (t *Taxonomy) pushAndClassify(ctx context.Context, p BP, monitor ProgressMonitor) error {
	if t.onStack[p] {
		return nil
	}
	if _, done := t.byBP[p]; done {
		return nil
	}
	t.onStack[p] = true
	t.stack = append(t.stack, p)
	defer func() {
		delete(t.onStack, p)
		t.stack = t.stack[:len(t.stack)-1]
	}()

	for _, q := range t.toldSubsumers[p] {
		if q == p {
			continue
		}
		if pos := t.stackIndex(q); pos >= 0 {
			t.collapseCycle(pos)
			continue
		}
		if _, done := t.byBP[q]; !done {
			if err := t.pushAndClassify(ctx, q, monitor); err != nil {
				return err
			}
		}
	}

	if _, done := t.byBP[p]; done {
		// Collapsed into an already-classified synonym vertex while a told
		// subsumer's cycle was being resolved above.
		return nil
	}

	name := t.dag.Get(p).Name
	if err := ctx.Err(); err != nil {
		return err
	}
	if monitor.ShouldCancel() {
		return newError(ErrCancelled, "classification cancelled before "+name)
	}
	monitor.OnConceptStart(name)
	if err := t.doClassification(ctx, p); err != nil {
		return err
	}
	monitor.OnConceptDone(name)
	return nil
}

func (t *Taxonomy) stackIndex(bp BP) int {
	for i, s := range t.stack {
		if s == bp {
			return i
		}
	}
	return -1
}

// collapseCycle merges every stack entry from pos to the top of the stack
// into one synonym vertex rooted at stack[pos].
func (t *Taxonomy) collapseCycle(pos int) {
	root := t.stack[pos]
	rv, ok := t.byBP[root]
	if !ok {
		rv = &TaxonomyVertex{Synonyms: []BP{root}}
		t.byBP[root] = rv
	}
	merged := 0
	for i := pos + 1; i < len(t.stack); i++ {
		member := t.stack[i]
		if member == root {
			continue
		}
		rv.Synonyms = append(rv.Synonyms, member)
		t.byBP[member] = rv
		merged++
	}
	t.log.Warnw("told-subsumer cycle collapsed to synonyms",
		"root", t.dag.Get(root).Name, "merged", merged)
}

// representative returns any one BP of v's synonym set; every SAT test
// against v can use any synonym interchangeably since they are, by
// construction, definitionally equivalent.
func (t *Taxonomy) representative(v *TaxonomyVertex) BP {
	return v.Synonyms[0]
}

// subsumes reports whether a subsumes b, i.e. whether b ⊑ a, computed as
// the negation of satisfiability of b ⊓ ¬a.
func (t *Taxonomy) subsumes(ctx context.Context, a, b BP) (bool, error) {
	conj := t.dag.And(b, Inverse(a))
	sat, err := t.sat.IsSatisfiable(ctx, conj)
	if err != nil {
		return false, err
	}
	return !sat, nil
}

// doClassification classifies the single concept p: first checks whether
// it is a synonym of an already-classified told subsumer, then locates
// its parents by a top-down walk from TOP and its children by a
// bottom-up walk from BOTTOM, and splices a fresh vertex between them.
func (t *Taxonomy) doClassification(ctx context.Context, p BP) error {
	synonym, err := t.synonymOf(ctx, p)
	if err != nil {
		return err
	}
	if synonym != nil {
		synonym.Synonyms = append(synonym.Synonyms, p)
		t.byBP[p] = synonym
		return nil
	}

	downTruth := map[*TaxonomyVertex]bool{t.top: true, t.bot: false}
	downKnown := map[*TaxonomyVertex]bool{t.top: true, t.bot: true}
	for _, q := range t.toldSubsumers[p] {
		if qv, ok := t.byBP[q]; ok {
			t.markTrueUpward(qv, downTruth, downKnown)
		}
	}
	parents, err := t.topDown(ctx, p, t.top, downTruth, downKnown, make(map[*TaxonomyVertex]bool))
	if err != nil {
		return err
	}

	upTruth := map[*TaxonomyVertex]bool{t.bot: true, t.top: false}
	upKnown := map[*TaxonomyVertex]bool{t.bot: true, t.top: true}
	children, err := t.bottomUp(ctx, p, t.bot, upTruth, upKnown, make(map[*TaxonomyVertex]bool))
	if err != nil {
		return err
	}

	nv := &TaxonomyVertex{Synonyms: []BP{p}}
	t.byBP[p] = nv
	t.splice(nv, parents, children)
	return nil
}

// synonymOf reports whether p is definitionally equivalent to an
// already-classified told subsumer, and if so returns that subsumer's
// vertex.
func (t *Taxonomy) synonymOf(ctx context.Context, p BP) (*TaxonomyVertex, error) {
	for _, q := range t.toldSubsumers[p] {
		qv, ok := t.byBP[q]
		if !ok {
			continue
		}
		qSubsumesP, err := t.subsumes(ctx, q, p)
		if err != nil {
			return nil, err
		}
		if !qSubsumesP {
			continue
		}
		pSubsumesQ, err := t.subsumes(ctx, p, q)
		if err != nil {
			return nil, err
		}
		if pSubsumesQ {
			return qv, nil
		}
	}
	return nil, nil
}

// markTrueUpward pre-marks v and every ancestor of v as true in a
// top-down truth map, so a later topDown walk that reaches an already-true
// ancestor skips its SAT test.
func (t *Taxonomy) markTrueUpward(v *TaxonomyVertex, truth, known map[*TaxonomyVertex]bool) {
	if known[v] && truth[v] {
		return
	}
	truth[v] = true
	known[v] = true
	for _, par := range v.Parents {
		t.markTrueUpward(par, truth, known)
	}
}

// topDown walks from v towards its children testing whether v subsumes p.
// Subsumption is monotone under the existing order: if v does not subsume
// p, no descendant of v can either, so the walk prunes there. It returns
// the most-specific true vertices reachable from v — candidate direct
// parents of p.
func (t *Taxonomy) topDown(ctx context.Context, p BP, v *TaxonomyVertex, truth, known map[*TaxonomyVertex]bool, visiting map[*TaxonomyVertex]bool) ([]*TaxonomyVertex, error) {
	if visiting[v] {
		return nil, nil
	}
	visiting[v] = true
	defer delete(visiting, v)

	if !known[v] {
		ok, err := t.subsumes(ctx, t.representative(v), p)
		if err != nil {
			return nil, err
		}
		truth[v] = ok
		known[v] = true
	}
	if !truth[v] {
		return nil, nil
	}

	var frontier []*TaxonomyVertex
	for _, c := range v.Children {
		childFrontier, err := t.topDown(ctx, p, c, truth, known, visiting)
		if err != nil {
			return nil, err
		}
		frontier = append(frontier, childFrontier...)
	}
	if len(frontier) == 0 {
		return []*TaxonomyVertex{v}, nil
	}
	return frontier, nil
}

// bottomUp is topDown's dual: it walks from v towards its parents testing
// whether v is subsumed by p, returning the most-general true vertices —
// candidate direct children of p.
func (t *Taxonomy) bottomUp(ctx context.Context, p BP, v *TaxonomyVertex, truth, known map[*TaxonomyVertex]bool, visiting map[*TaxonomyVertex]bool) ([]*TaxonomyVertex, error) {
	if visiting[v] {
		return nil, nil
	}
	visiting[v] = true
	defer delete(visiting, v)

	if !known[v] {
		ok, err := t.subsumes(ctx, p, t.representative(v))
		if err != nil {
			return nil, err
		}
		truth[v] = ok
		known[v] = true
	}
	if !truth[v] {
		return nil, nil
	}

	var frontier []*TaxonomyVertex
	for _, par := range v.Parents {
		parentFrontier, err := t.bottomUp(ctx, p, par, truth, known, visiting)
		if err != nil {
			return nil, err
		}
		frontier = append(frontier, parentFrontier...)
	}
	if len(frontier) == 0 {
		return []*TaxonomyVertex{v}, nil
	}
	return frontier, nil
}

// splice inserts nv between parents and children, removing any
// parent→child edge that nv now mediates so that a direct parent of nv
// never also has a child that is itself a subsumer of nv (the
// redundant-parent-removal invariant).
func (t *Taxonomy) splice(nv *TaxonomyVertex, parents, children []*TaxonomyVertex) {
	parents = dedupeVertices(parents)
	children = dedupeVertices(children)
	if len(parents) == 0 {
		parents = []*TaxonomyVertex{t.top}
	}
	if len(children) == 0 {
		children = []*TaxonomyVertex{t.bot}
	}
	nv.Parents = parents
	nv.Children = children

	for _, par := range parents {
		par.Children = append(par.Children, nv)
		var kept []*TaxonomyVertex
		for _, c := range par.Children {
			if c != nv && containsVertex(children, c) {
				continue
			}
			kept = append(kept, c)
		}
		par.Children = kept
	}
	for _, c := range children {
		c.Parents = append(c.Parents, nv)
		var kept []*TaxonomyVertex
		for _, par := range c.Parents {
			if par != nv && containsVertex(parents, par) {
				continue
			}
			kept = append(kept, par)
		}
		c.Parents = kept
	}
}

// VertexOf returns the taxonomy vertex a classified concept belongs to, if
// it has been classified.
func (t *Taxonomy) VertexOf(p BP) (*TaxonomyVertex, bool) {
	v, ok := t.byBP[p]
	return v, ok
}

// Parents returns the immediate parents of p's taxonomy vertex.
func (t *Taxonomy) Parents(p BP) []*TaxonomyVertex {
	v, ok := t.byBP[p]
	if !ok {
		return nil
	}
	return v.Parents
}

// Children returns the immediate children of p's taxonomy vertex.
func (t *Taxonomy) Children(p BP) []*TaxonomyVertex {
	v, ok := t.byBP[p]
	if !ok {
		return nil
	}
	return v.Children
}

// Ancestors returns every vertex reachable by following Parents links from
// p's vertex, not including p's own vertex.
func (t *Taxonomy) Ancestors(p BP) []*TaxonomyVertex {
	v, ok := t.byBP[p]
	if !ok {
		return nil
	}
	seen := make(map[*TaxonomyVertex]bool)
	var out []*TaxonomyVertex
	var walk func(*TaxonomyVertex)
	walk = func(cur *TaxonomyVertex) {
		for _, par := range cur.Parents {
			if seen[par] {
				continue
			}
			seen[par] = true
			out = append(out, par)
			walk(par)
		}
	}
	walk(v)
	return out
}

// Descendants returns every vertex reachable by following Children links
// from p's vertex, not including p's own vertex.
func (t *Taxonomy) Descendants(p BP) []*TaxonomyVertex {
	v, ok := t.byBP[p]
	if !ok {
		return nil
	}
	seen := make(map[*TaxonomyVertex]bool)
	var out []*TaxonomyVertex
	var walk func(*TaxonomyVertex)
	walk = func(cur *TaxonomyVertex) {
		for _, c := range cur.Children {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(v)
	return out
}

// Equivalents returns every synonym BP sharing p's taxonomy vertex,
// excluding p itself.
func (t *Taxonomy) Equivalents(p BP) []BP {
	v, ok := t.byBP[p]
	if !ok {
		return nil
	}
	var out []BP
	for _, s := range v.Synonyms {
		if s != p {
			out = append(out, s)
		}
	}
	return out
}
