package reasoner

import (
	"fmt"
	"sort"
	"strings"
)

// VertexTag identifies which variant of concept/role expression a DAG
// vertex represents. The tableau's commonTactic dispatches on this tag to
// pick an expansion rule, and the ToDoQueue uses it to choose a priority
// bucket.
type VertexTag int

const (
	// TagTop is the reserved universal-concept vertex.
	TagTop VertexTag = iota
	// TagConcept is a named concept, primitive or defined.
	TagConcept
	// TagSingleton is a nominal: the concept denoting exactly one individual.
	TagSingleton
	// TagDataType is a datatype name (e.g. integer, string).
	TagDataType
	// TagDataValue is a concrete literal of some datatype.
	TagDataValue
	// TagDataExpr is a facet restriction over a datatype (e.g. >18).
	TagDataExpr
	// TagAnd is a conjunction of children.
	TagAnd
	// TagCollection is a one-of enumeration, special-cased into an AND
	// expansion by the tableau.
	TagCollection
	// TagForall is a universal restriction over a role.
	TagForall
	// TagLE is an at-most number restriction; at-least is its negation.
	TagLE
	// TagReflexive asserts reflexivity of a role at a node.
	TagReflexive
	// TagProjection is a role projection vertex used by number-restriction
	// absorption with inverse roles.
	TagProjection
)

func (t VertexTag) String() string {
	switch t {
	case TagTop:
		return "Top"
	case TagConcept:
		return "Concept"
	case TagSingleton:
		return "Singleton"
	case TagDataType:
		return "DataType"
	case TagDataValue:
		return "DataValue"
	case TagDataExpr:
		return "DataExpr"
	case TagAnd:
		return "And"
	case TagCollection:
		return "Collection"
	case TagForall:
		return "Forall"
	case TagLE:
		return "LE"
	case TagReflexive:
		return "Reflexive"
	case TagProjection:
		return "Projection"
	default:
		return "Unknown"
	}
}

// NameKind distinguishes primitive named concepts (no known necessary and
// sufficient definition, only told subsumers) from defined ones (an
// explicit equivalence). Negated references to a primitive name return
// unchanged from cache preparation: there is no definition to expand on
// the negative side.
type NameKind int

const (
	// PConcept is a primitive named concept.
	PConcept NameKind = iota
	// NConcept is a fully defined named concept.
	NConcept
)

// Vertex is a single DAG node: a tagged variant over the concept/role
// expression language. Rather than a class hierarchy per variant, a
// single struct carries every field any variant might need; only the
// fields relevant to Tag are meaningful for a given vertex.
type Vertex struct {
	Tag VertexTag

	// Name-bearing vertices (TagConcept, TagDataType).
	Name string
	Kind NameKind // meaningful only for TagConcept
	// PName is the BP a named concept uses to refer to itself. SetDefinition
	// rejects a second, different definition for the same name; two
	// distinct names given the same definition are not rejected.
	PName BP
	// Definition is the (possibly invalid) BP this name expands to.
	Definition BP
	// Implied holds one-directional told-subsumer conjuncts absorbed onto
	// a primitive concept (from `A ⊑ F` axioms): unlike Definition, these
	// only unfold on the positive occurrence of the name, never the
	// negative one, since A ⊑ F does not license ¬A ⊑ ¬F.
	Implied []BP

	// TagSingleton.
	Individual string

	// TagDataValue / TagDataExpr.
	DataValue  interface{}
	DataFacet  DataFacet
	DataType   string

	// TagAnd / TagCollection: sorted, deduplicated children.
	Children []BP

	// TagForall / TagLE / TagReflexive / TagProjection.
	Role RoleID // role ID, encoded as described in role.go; sign = direction

	// N is the cardinality bound for TagLE.
	N int
	// Filler is the concept restricting the role successor for
	// TagForall/TagLE.
	Filler BP

	// posCache / negCache are the two polarity cache slots every vertex
	// carries, read and written only through DAG.SetCache/GetCache.
	// Cache.CreateCache keeps its own per-polarity LRU and does not use them.
	posCache *modelCache
	negCache *modelCache
}

// DataFacet describes a comparison restriction applied to a datatype
// value, e.g. ">18" or "<10".
type DataFacet struct {
	Op    FacetOp
	Bound interface{}
}

// FacetOp enumerates the comparison operators a DataExpr vertex may carry.
type FacetOp int

const (
	FacetGT FacetOp = iota
	FacetGE
	FacetLT
	FacetLE
	FacetEQ
)

// DAG is the content-hashed store of concept/role vertices. Syntactically
// equal sub-expressions are hash-consed to a single BP: add() returns the
// existing BP for an equivalent vertex rather than appending a duplicate.
type DAG struct {
	vertices   []Vertex      // index 0 unused; index i holds vertex for BP(i)
	index      map[string]BP // content hash -> canonical BP
	names      map[string]BP // concept name -> its BP, for lookup by name
	singletons map[string]BP // individual name -> its Singleton BP
	roles      *RoleMaster   // owning role master, for forall transitivity closure
}

// NewDAG creates a DAG pre-populated with the TOP and BOTTOM vertices at
// their reserved indices.
func NewDAG(roles *RoleMaster) *DAG {
	d := &DAG{
		vertices:   make([]Vertex, 2), // reserve index 0 (invalid) and 1 (TOP)
		index:      make(map[string]BP),
		names:      make(map[string]BP),
		singletons: make(map[string]BP),
		roles:      roles,
	}
	d.vertices[bpTopValue] = Vertex{Tag: TagTop}
	d.index["TOP"] = BPTop
	return d
}

// hashKey computes a content-hash key for a vertex, used for hash-consing.
// Two vertices with equal keys are considered the same DAG node.
func hashKey(v Vertex) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", v.Tag)
	switch v.Tag {
	case TagConcept, TagDataType:
		b.WriteString(v.Name)
	case TagSingleton:
		b.WriteString(v.Individual)
	case TagDataValue:
		fmt.Fprintf(&b, "%s|%v", v.DataType, v.DataValue)
	case TagDataExpr:
		fmt.Fprintf(&b, "%s|%d|%v", v.DataType, v.DataFacet.Op, v.DataFacet.Bound)
	case TagAnd, TagCollection:
		for _, c := range v.Children {
			fmt.Fprintf(&b, "%d,", c)
		}
	case TagForall, TagLE:
		fmt.Fprintf(&b, "%d|%d|%d", v.Role, v.N, v.Filler)
	case TagReflexive, TagProjection:
		fmt.Fprintf(&b, "%d", v.Role)
	}
	return b.String()
}

// add inserts vertex into the DAG, returning its canonical BP. If an
// equivalent vertex already exists, the existing BP is returned and
// nothing new is allocated.
func (d *DAG) add(v Vertex) BP {
	if v.Tag == TagAnd || v.Tag == TagCollection {
		v.Children = sortDedupBP(v.Children)
	}
	key := hashKey(v)
	if bp, ok := d.index[key]; ok {
		return bp
	}
	d.vertices = append(d.vertices, v)
	bp := BP(len(d.vertices) - 1)
	d.index[key] = bp
	return bp
}

// sortDedupBP returns a sorted, duplicate-free copy of bps. And-vertex
// children must be sorted and deduplicated so that syntactically
// equivalent conjunctions hash-cons to the same vertex.
func sortDedupBP(bps []BP) []BP {
	if len(bps) == 0 {
		return nil
	}
	cp := append([]BP(nil), bps...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:1]
	for _, v := range cp[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Get returns the vertex at bp, ignoring polarity. Callers that need the
// polarity-aware view should consult the tag and apply Inverse semantics
// themselves (a negated named concept does not expand its definition).
func (d *DAG) Get(bp BP) Vertex {
	return d.vertices[bp.Index()]
}

// SetCache attaches a modelCache to (bp, polarity). At most one cache may
// ever be stored per (vertex, polarity); SetCache panics if a cache is
// already present, since that indicates an internal invariant failure
// rather than a recoverable condition.
func (d *DAG) SetCache(bp BP, c *modelCache) {
	idx := bp.Index()
	v := &d.vertices[idx]
	if bp.IsNegative() {
		if v.negCache != nil {
			panic("reasoner: cache already set for negative polarity")
		}
		v.negCache = c
		return
	}
	if v.posCache != nil {
		panic("reasoner: cache already set for positive polarity")
	}
	v.posCache = c
}

// GetCache returns the cache attached to (bp, polarity), or nil if none.
func (d *DAG) GetCache(bp BP) *modelCache {
	idx := bp.Index()
	v := &d.vertices[idx]
	if bp.IsNegative() {
		return v.negCache
	}
	return v.posCache
}

// AddConcept registers a named concept. If a concept with the same name
// already exists, its BP is returned unchanged. kind distinguishes
// primitive from defined concepts; SetDefinition below attaches the
// equivalence for defined concepts, enforcing the "no double-sided
// naming" invariant.
func (d *DAG) AddConcept(name string, kind NameKind) BP {
	if bp, ok := d.names[name]; ok {
		return bp
	}
	bp := d.add(Vertex{Tag: TagConcept, Name: name, Kind: kind, Definition: BPInvalid})
	d.vertices[bp.Index()].PName = bp
	d.names[name] = bp
	return bp
}

// LookupConcept returns the BP of a previously-registered named concept.
func (d *DAG) LookupConcept(name string) (BP, bool) {
	bp, ok := d.names[name]
	return bp, ok
}

// ConceptNames returns every registered named concept's BP, in no
// particular order.
func (d *DAG) ConceptNames() []BP {
	out := make([]BP, 0, len(d.names))
	for _, bp := range d.names {
		out = append(out, bp)
	}
	return out
}

// SetDefinition attaches a definition to a named concept, turning it into
// an NConcept. It is an error (reported as InternalInvariantFailure by the
// caller) to call this twice with different definitions.
func (d *DAG) SetDefinition(concept BP, definition BP) {
	v := &d.vertices[concept.Index()]
	if v.Tag != TagConcept {
		panic("reasoner: SetDefinition on non-concept vertex")
	}
	if IsValid(v.Definition) && v.Definition != definition {
		panic("reasoner: double-sided naming of concept " + v.Name)
	}
	v.Definition = definition
	v.Kind = NConcept
}

// AddImplied appends a one-directional told-subsumer conjunct to a
// primitive concept, absorbed from a `concept ⊑ implied` inclusion axiom.
// Duplicate conjuncts are ignored.
func (d *DAG) AddImplied(concept BP, implied BP) {
	v := &d.vertices[concept.Index()]
	for _, c := range v.Implied {
		if c == implied {
			return
		}
	}
	v.Implied = append(v.Implied, implied)
}

// GetImplied returns the told-subsumer conjuncts absorbed onto concept.
func (d *DAG) GetImplied(concept BP) []BP {
	return d.vertices[concept.Index()].Implied
}

// And creates (or reuses) the conjunction of children. An empty
// conjunction is TOP; a singleton conjunction degenerates to its only
// child, since [X] and X are semantically identical and hash-consing
// should not allocate a wrapper for it.
func (d *DAG) And(children ...BP) BP {
	filtered := children[:0:0]
	for _, c := range children {
		if c == BPTop {
			continue
		}
		filtered = append(filtered, c)
	}
	sorted := sortDedupBP(filtered)
	if len(sorted) == 0 {
		return BPTop
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	for _, c := range sorted {
		if has(sorted, Inverse(c)) {
			return BPBottom
		}
	}
	return d.add(Vertex{Tag: TagAnd, Children: sorted})
}

func has(bps []BP, target BP) bool {
	i := sort.Search(len(bps), func(i int) bool { return bps[i] >= target })
	return i < len(bps) && bps[i] == target
}

// Collection creates a one-of enumeration over the given singleton BPs.
// The tableau special-cases a Collection head into an AND expansion
// during addToDoEntry.
func (d *DAG) Collection(members ...BP) BP {
	return d.add(Vertex{Tag: TagCollection, Children: sortDedupBP(members)})
}

// Forall creates (or reuses) a universal restriction ∀role.filler, and
// additionally internalises ∀S.filler for every transitive sub-role S of
// role. The returned BP is the requested vertex; the transitive-closure
// vertices are allocated as a side effect so the tableau's forall
// propagation can find them without recomputing the closure at SAT time.
func (d *DAG) Forall(role RoleID, filler BP) BP {
	bp := d.add(Vertex{Tag: TagForall, Role: role, Filler: filler})
	if d.roles != nil {
		for _, sub := range d.roles.TransitiveSubRoles(role) {
			d.add(Vertex{Tag: TagForall, Role: sub, Filler: filler})
		}
	}
	return bp
}

// Atmost creates (or reuses) an at-most number restriction (≤ n role
// filler). GE (at-least) restrictions are represented as the negation of
// the corresponding LE vertex, so no separate GE tag exists.
func (d *DAG) Atmost(n int, role RoleID, filler BP) BP {
	return d.add(Vertex{Tag: TagLE, N: n, Role: role, Filler: filler})
}

// Reflexive creates (or reuses) the Reflexive(role) vertex, asserting
// reflexivity of role at whatever node it is added to.
func (d *DAG) Reflexive(role RoleID) BP {
	return d.add(Vertex{Tag: TagReflexive, Role: role})
}

// Singleton creates (or reuses) the nominal concept denoting individual.
func (d *DAG) Singleton(individual string, definition BP) BP {
	bp := d.add(Vertex{Tag: TagSingleton, Individual: individual, Definition: definition})
	d.singletons[individual] = bp
	return bp
}

// Singletons returns the BP of every nominal concept created via Singleton,
// in no particular order. Used to seed a dedicated completion-graph node
// per individual before a satisfiability test, so that a GCI whose
// left-hand side is a nominal (e.g. {a} ⊑ C) has somewhere to actually
// force {a} onto, rather than being satisfiable by never instantiating {a}
// at all.
func (d *DAG) Singletons() []BP {
	out := make([]BP, 0, len(d.singletons))
	for _, bp := range d.singletons {
		out = append(out, bp)
	}
	return out
}

// DataTypeVertex registers (or reuses) a datatype name vertex.
func (d *DAG) DataTypeVertex(name string) BP {
	return d.add(Vertex{Tag: TagDataType, Name: name})
}

// DataValueVertex creates (or reuses) a literal value vertex of the given
// datatype.
func (d *DAG) DataValueVertex(dataType string, value interface{}) BP {
	return d.add(Vertex{Tag: TagDataValue, DataType: dataType, DataValue: value})
}

// DataExpr creates (or reuses) a facet restriction vertex.
func (d *DAG) DataExpr(dataType string, facet DataFacet) BP {
	return d.add(Vertex{Tag: TagDataExpr, DataType: dataType, DataFacet: facet})
}

// Size returns the number of allocated vertices, including the reserved
// slots.
func (d *DAG) Size() int { return len(d.vertices) }
