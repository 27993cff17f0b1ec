package reasoner

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDAG(t *testing.T) *DAG {
	t.Helper()
	rm := NewRoleMaster()
	return NewDAG(rm)
}

func TestDAGConceptHashConsing(t *testing.T) {
	d := newTestDAG(t)
	a1 := d.AddConcept("Person", PConcept)
	a2 := d.AddConcept("Person", PConcept)
	assert.Equal(t, a1, a2)

	b := d.AddConcept("Animal", PConcept)
	assert.NotEqual(t, a1, b)

	bp, ok := d.LookupConcept("Person")
	require.True(t, ok)
	assert.Equal(t, a1, bp)

	_, ok = d.LookupConcept("Nonexistent")
	assert.False(t, ok)
}

func TestDAGConceptNames(t *testing.T) {
	d := newTestDAG(t)
	d.AddConcept("Person", PConcept)
	d.AddConcept("Animal", PConcept)

	names := d.ConceptNames()
	assert.Len(t, names, 2)
}

func TestDAGSetDefinitionTurnsPrimitiveIntoDefined(t *testing.T) {
	d := newTestDAG(t)
	c := d.AddConcept("Parent", PConcept)
	human := d.AddConcept("Human", PConcept)

	d.SetDefinition(c, human)
	got := d.Get(c)
	assert.Equal(t, NConcept, got.Kind)
	assert.Equal(t, human, got.Definition)
}

func TestDAGSetDefinitionTwiceWithSameValueIsNoop(t *testing.T) {
	d := newTestDAG(t)
	c := d.AddConcept("Parent", PConcept)
	human := d.AddConcept("Human", PConcept)
	d.SetDefinition(c, human)
	assert.NotPanics(t, func() { d.SetDefinition(c, human) })
}

func TestDAGSetDefinitionTwiceWithDifferentValuePanics(t *testing.T) {
	d := newTestDAG(t)
	c := d.AddConcept("Parent", PConcept)
	human := d.AddConcept("Human", PConcept)
	animal := d.AddConcept("Animal", PConcept)
	d.SetDefinition(c, human)
	assert.Panics(t, func() { d.SetDefinition(c, animal) })
}

func TestDAGAddImpliedDeduplicates(t *testing.T) {
	d := newTestDAG(t)
	c := d.AddConcept("Parent", PConcept)
	human := d.AddConcept("Human", PConcept)

	d.AddImplied(c, human)
	d.AddImplied(c, human)
	assert.Equal(t, []BP{human}, d.GetImplied(c))
}

func TestDAGAndSortsAndDedupes(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)
	b := d.AddConcept("B", PConcept)

	and1 := d.And(a, b, a)
	and2 := d.And(b, a)
	assert.Equal(t, and1, and2)
}

func TestDAGAndWithTopIsIdentity(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)
	assert.Equal(t, a, d.And(a, BPTop))
}

func TestDAGAndEmptyIsTop(t *testing.T) {
	d := newTestDAG(t)
	assert.Equal(t, BPTop, d.And())
}

func TestDAGAndSingletonDegeneratesToChild(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)
	assert.Equal(t, a, d.And(a))
}

func TestDAGAndWithComplementIsBottom(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)
	assert.Equal(t, BPBottom, d.And(a, Inverse(a)))
}

func TestDAGForallHashConsing(t *testing.T) {
	d := newTestDAG(t)
	rm := d.roles
	role := rm.Declare("hasChild", false)
	filler := d.AddConcept("Human", PConcept)

	f1 := d.Forall(role, filler)
	f2 := d.Forall(role, filler)
	assert.Equal(t, f1, f2)
}

func TestDAGAtmostHashConsing(t *testing.T) {
	d := newTestDAG(t)
	rm := d.roles
	role := rm.Declare("hasChild", false)
	filler := d.AddConcept("Human", PConcept)

	le1 := d.Atmost(2, role, filler)
	le2 := d.Atmost(2, role, filler)
	assert.Equal(t, le1, le2)

	le3 := d.Atmost(3, role, filler)
	assert.NotEqual(t, le1, le3)
}

func TestDAGSingletonAndDataVertices(t *testing.T) {
	d := newTestDAG(t)
	s1 := d.Singleton("alice", BPInvalid)
	s2 := d.Singleton("alice", BPInvalid)
	assert.Equal(t, s1, s2)

	dt := d.DataTypeVertex("integer")
	dv1 := d.DataValueVertex("integer", 18)
	dv2 := d.DataValueVertex("integer", 18)
	assert.Equal(t, dv1, dv2)
	assert.NotEqual(t, dt, dv1)

	de := d.DataExpr("integer", DataFacet{Op: FacetGT, Bound: 18})
	assert.NotEqual(t, de, dv1)
}

func TestDAGCacheSetGetAndPanicOnReset(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)

	assert.Nil(t, d.GetCache(a))
	c := &modelCache{}
	d.SetCache(a, c)
	assert.Same(t, c, d.GetCache(a))

	assert.Panics(t, func() { d.SetCache(a, &modelCache{}) })
}

func TestDAGCachePolarityIsIndependent(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)

	pos := &modelCache{}
	neg := &modelCache{}
	d.SetCache(a, pos)
	d.SetCache(Inverse(a), neg)

	assert.Same(t, pos, d.GetCache(a))
	assert.Same(t, neg, d.GetCache(Inverse(a)))
}

// TestDAGAndChildrenSnapshotIsOrderIndependent asserts that two
// conjunctions built from the same operands in different orders
// hash-cons to a vertex with byte-identical Children, not merely an equal
// BP: the sort/dedup step in And must leave no trace of construction
// order in the vertex snapshot itself.
func TestDAGAndChildrenSnapshotIsOrderIndependent(t *testing.T) {
	d := newTestDAG(t)
	a := d.AddConcept("A", PConcept)
	b := d.AddConcept("B", PConcept)
	c := d.AddConcept("C", PConcept)

	forward := d.Get(d.And(a, b, c))
	reversed := d.Get(d.And(c, b, a))

	if diff := cmp.Diff(forward.Children, reversed.Children); diff != "" {
		t.Errorf("And(a,b,c) vs And(c,b,a) Children snapshot mismatch (-forward +reversed):\n%s", diff)
	}
}

func TestDAGSingletonsEnumeratesEveryIndividual(t *testing.T) {
	d := newTestDAG(t)
	alice := d.Singleton("alice", BPInvalid)
	bob := d.Singleton("bob", BPInvalid)
	d.Singleton("alice", BPInvalid) // re-declaring must not duplicate the entry

	got := d.Singletons()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []BP{alice, bob}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Singletons() snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDAGSize(t *testing.T) {
	d := newTestDAG(t)
	base := d.Size()
	d.AddConcept("A", PConcept)
	assert.Equal(t, base+1, d.Size())
}
