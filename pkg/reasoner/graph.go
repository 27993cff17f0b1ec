package reasoner

import "github.com/google/uuid"

// labelEntry is one (concept, dep-set) pair in a node's label.
type labelEntry struct {
	BP  BP
	Dep DepSet
}

// Edge is a role-labelled arc between two completion-graph nodes. Only
// the forward direction owns the edge record; the reverse direction is an
// observer link recorded in the target node's incoming list, per
// ("arcs carry role labels in both directions but only one
// direction owns the edge record").
type Edge struct {
	From, To int // node indices
	Roles    map[RoleID]bool
	Dep      DepSet
}

// Node is a single completion-graph node: identity, nominal-level flag,
// a label split into simple and complex halves, outgoing/incoming edges,
// a non-owning blocker link, and cache/purge bookkeeping.
type Node struct {
	ID uuid.UUID

	Nominal bool // nominal nodes belong to level 0 and are never blocked
	Level   int  // save-level this node's slot was allocated at; 0 for nominals

	Simple  []labelEntry // label entries whose concept is a "simple" tag (named concept, nominal, TOP; either polarity)
	Complex []labelEntry // label entries needing further expansion (AND, OR, SOME, FORALL, LE, ...)

	// used tracks, for quick future probes, which BPs (by absolute value)
	// have ever been added to this node's label and with which polarity,
	// ("update the per-node 'used concepts' set for both
	// polarities").
	usedPos map[BP]bool
	usedNeg map[BP]bool

	Out map[int]*Edge // successor node index -> owned edge
	In  []*Edge        // incoming edges owned by some predecessor

	// Blocker is a weak (non-owning) reference to the node that blocks
	// this one, or -1 if unblocked. It must be invalidated on restore to
	// the level that created the block.
	Blocker      int
	blockerValid bool // false once stale after a restore

	// GeneratedFrom is the predecessor this node was created to satisfy a
	// SOME/GE obligation on, or -1 for a node with no such predecessor
	// (level-0 query/nominal nodes). Blocking walks this chain looking for
	// an ancestor whose label subsumes this node's.
	GeneratedFrom int

	Cached     bool // a CacheValid modelCache was found for a label entry; bookkeeping only, expansion continues
	PurgeDep   DepSet
	deleted    bool // true once merged away or restored past its allocation level
}

// journalOp is one reversible mutation recorded at the current save
// level. CompletionGraph.restore replays these in reverse order until the
// target level is reached: a forward-only journal, never a two-way diff.
type journalOp struct {
	level int
	undo  func(g *CompletionGraph)
}

// CompletionGraph is the labelled graph grown by one tableau expansion.
// Every mutating operation is journalled at the current level so that
// restore(k) can undo exactly the operations performed since level k,
// the same snapshot/undo trail shape used for finite-domain backtracking.
type CompletionGraph struct {
	nodes   []*Node
	journal []journalOp
	level   int
	maxSize int
}

// NewCompletionGraph returns an empty graph at level 0.
func NewCompletionGraph() *CompletionGraph {
	return &CompletionGraph{}
}

// GetNewNode allocates a fresh node, journalling its removal on restore
// past the current level.
func (g *CompletionGraph) GetNewNode() int {
	idx := len(g.nodes)
	n := &Node{ID: uuid.New(), Level: g.level, Blocker: -1, GeneratedFrom: -1, Out: make(map[int]*Edge),
		usedPos: make(map[BP]bool), usedNeg: make(map[BP]bool)}
	g.nodes = append(g.nodes, n)
	if len(g.nodes) > g.maxSize {
		g.maxSize = len(g.nodes)
	}
	g.record(func(gr *CompletionGraph) {
		gr.nodes[idx].deleted = true
	})
	return idx
}

// Node returns the node at idx. Callers must not retain the pointer
// across a restore that deletes idx.
func (g *CompletionGraph) Node(idx int) *Node { return g.nodes[idx] }

// MaxSize returns the high-water mark of simultaneously-live node slots.
func (g *CompletionGraph) MaxSize() int { return g.maxSize }

// record appends undo to the journal at the current level.
func (g *CompletionGraph) record(undo func(g *CompletionGraph)) {
	g.journal = append(g.journal, journalOp{level: g.level, undo: undo})
}

// Save increments the current level and returns it. Tableau.save() calls
// this alongside ToDoQueue.Save and pushes a matching branching context.
func (g *CompletionGraph) Save() int {
	g.level++
	return g.level
}

// Restore replays the journal in reverse until every operation recorded
// at a level > target has been undone, then sets the current level to
// target. Branching-level monotonicity guarantees this
// never needs to "redo" anything: concept entries only grow until a
// restore.
func (g *CompletionGraph) Restore(target int) {
	for len(g.journal) > 0 {
		last := g.journal[len(g.journal)-1]
		if last.level <= target {
			break
		}
		last.undo(g)
		g.journal = g.journal[:len(g.journal)-1]
	}
	g.level = target
}

// Level returns the current save level.
func (g *CompletionGraph) Level() int { return g.level }

// AddConceptToNode adds (bp, dep) to node's label under the given tag,
// splitting it into the simple or complex half based on whether tag
// requires further expansion, and marks bp in the node's "used concepts"
// sets. It does no clash detection: that lives in addToDoEntry
// (tableau.go), which is the only caller in normal operation.
func (g *CompletionGraph) AddConceptToNode(node int, bp BP, dep DepSet, tag VertexTag) {
	n := g.nodes[node]
	entry := labelEntry{BP: bp, Dep: dep}
	simple := tag == TagConcept || tag == TagSingleton || tag == TagTop
	if simple {
		n.Simple = append(n.Simple, entry)
		idx := len(n.Simple) - 1
		g.record(func(gr *CompletionGraph) {
			gr.nodes[node].Simple = gr.nodes[node].Simple[:idx]
		})
	} else {
		n.Complex = append(n.Complex, entry)
		idx := len(n.Complex) - 1
		g.record(func(gr *CompletionGraph) {
			gr.nodes[node].Complex = gr.nodes[node].Complex[:idx]
		})
	}
	if bp.IsNegative() {
		n.usedNeg[BP(bp.Index())] = true
	} else {
		n.usedPos[bp] = true
	}
}

// AddRoleLabel adds (or extends) an edge from -> to labelled with role
// and dep, returning the owning edge. If predEdge is non-nil, the new
// role/dep are merged into that existing edge instead of creating a new
// one (used when a role successor already has an edge from a prior
// expansion).
func (g *CompletionGraph) AddRoleLabel(from, to int, predEdge *Edge, role RoleID, dep DepSet) *Edge {
	if predEdge != nil {
		wasPresent := predEdge.Roles[role]
		oldDep := predEdge.Dep
		predEdge.Roles[role] = true
		predEdge.Dep = predEdge.Dep.Union(dep)
		g.record(func(gr *CompletionGraph) {
			if !wasPresent {
				delete(predEdge.Roles, role)
			}
			predEdge.Dep = oldDep
		})
		return predEdge
	}
	e := &Edge{From: from, To: to, Roles: map[RoleID]bool{role: true}, Dep: dep}
	g.nodes[from].Out[to] = e
	g.nodes[to].In = append(g.nodes[to].In, e)
	inIdx := len(g.nodes[to].In) - 1
	g.record(func(gr *CompletionGraph) {
		delete(gr.nodes[from].Out, to)
		gr.nodes[to].In = gr.nodes[to].In[:inIdx]
	})
	return e
}

// FindEdge returns the owned edge from -> to, if any.
func (g *CompletionGraph) FindEdge(from, to int) (*Edge, bool) {
	e, ok := g.nodes[from].Out[to]
	return e, ok
}

// Successors calls f for every node reachable from node by an edge
// labelled with role.
func (g *CompletionGraph) Successors(node int, role RoleID, f func(to int, e *Edge)) {
	for to, e := range g.nodes[node].Out {
		if e.Roles[role] {
			f(to, e)
		}
	}
}

// Predecessors calls f for every node with an edge into node labelled
// with role.
func (g *CompletionGraph) Predecessors(node int, role RoleID, f func(from int, e *Edge)) {
	for _, e := range g.nodes[node].In {
		if e.Roles[role] {
			f(e.From, e)
		}
	}
}

// Merge merges node1 into node2 (node1 becomes a forward to node2): every
// label entry of node1 is copied onto node2, and node1 is marked deleted.
// node1's edges are not moved to node2. Returns the surviving node index
// (always node2, for caller clarity).
func (g *CompletionGraph) Merge(node1, node2 int, dep DepSet) int {
	n1, n2 := g.nodes[node1], g.nodes[node2]
	oldDeleted := n1.deleted

	addedSimple := 0
	for _, e := range n1.Simple {
		n2.Simple = append(n2.Simple, labelEntry{BP: e.BP, Dep: e.Dep.Union(dep)})
		addedSimple++
	}
	addedComplex := 0
	for _, e := range n1.Complex {
		n2.Complex = append(n2.Complex, labelEntry{BP: e.BP, Dep: e.Dep.Union(dep)})
		addedComplex++
	}
	n1.deleted = true

	simpleLen, complexLen := len(n2.Simple), len(n2.Complex)
	g.record(func(gr *CompletionGraph) {
		gr.nodes[node1].deleted = oldDeleted
		gr.nodes[node2].Simple = gr.nodes[node2].Simple[:simpleLen-addedSimple]
		gr.nodes[node2].Complex = gr.nodes[node2].Complex[:complexLen-addedComplex]
	})
	return node2
}

// IsDeleted reports whether node has been merged away or restored past
// its allocation level.
func (g *CompletionGraph) IsDeleted(node int) bool { return g.nodes[node].deleted }
