package reasoner

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTaxonomy(t *testing.T) (*Taxonomy, *DAG) {
	t.Helper()
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	sat := NewTableau(dag, rm, DefaultConfig())
	return NewTaxonomy(dag, sat, nil), dag
}

func TestTaxonomyClassifyLinearHierarchy(t *testing.T) {
	tax, dag := newTestTaxonomy(t)
	animal := dag.AddConcept("Animal", PConcept)
	dog := dag.AddConcept("Dog", PConcept)
	poodle := dag.AddConcept("Poodle", PConcept)

	dag.SetDefinition(dog, dag.And(animal, dag.AddConcept("Barks", PConcept)))
	dag.SetDefinition(poodle, dag.And(dog, dag.AddConcept("Curly", PConcept)))

	names := []BP{animal, dog, poodle}
	require.NoError(t, tax.Classify(context.Background(), names, nil))

	dogParents := tax.Parents(dog)
	require.Len(t, dogParents, 1)
	assert.Contains(t, dogParents[0].Synonyms, animal)

	poodleParents := tax.Parents(poodle)
	require.Len(t, poodleParents, 1)
	assert.Contains(t, poodleParents[0].Synonyms, dog)

	ancestors := tax.Ancestors(poodle)
	var foundAnimal bool
	for _, v := range ancestors {
		if containsBP(v.Synonyms, animal) {
			foundAnimal = true
		}
	}
	assert.True(t, foundAnimal, "Poodle's ancestor chain must reach Animal transitively")

	descendants := tax.Descendants(animal)
	var foundPoodle bool
	for _, v := range descendants {
		if containsBP(v.Synonyms, poodle) {
			foundPoodle = true
		}
	}
	assert.True(t, foundPoodle)
}

func TestTaxonomyEquivalentConceptsShareVertex(t *testing.T) {
	tax, dag := newTestTaxonomy(t)
	a := dag.AddConcept("A", PConcept)
	b := dag.AddConcept("B", PConcept)
	dag.SetDefinition(b, a)
	// The synonym shortcut in synonymOf only consults told-subsumer hints;
	// ordinarily the façade's Preprocess installs these from the absorbed
	// equivalence axiom before Classify runs.
	tax.SetToldSubsumers(b, []BP{a})

	require.NoError(t, tax.Classify(context.Background(), []BP{a, b}, nil))

	va, ok := tax.VertexOf(a)
	require.True(t, ok)
	vb, ok := tax.VertexOf(b)
	require.True(t, ok)
	assert.Same(t, va, vb)
	assert.Contains(t, tax.Equivalents(a), b)
}

func TestTaxonomyUnrelatedConceptsBothDirectlyUnderTop(t *testing.T) {
	tax, dag := newTestTaxonomy(t)
	a := dag.AddConcept("A", PConcept)
	b := dag.AddConcept("B", PConcept)

	require.NoError(t, tax.Classify(context.Background(), []BP{a, b}, nil))

	for _, c := range []BP{a, b} {
		parents := tax.Parents(c)
		require.Len(t, parents, 1)
		assert.Contains(t, parents[0].Synonyms, BPTop)
	}
}

func TestTaxonomyToldSubsumerCycleCollapsesToSynonyms(t *testing.T) {
	tax, dag := newTestTaxonomy(t)
	a := dag.AddConcept("A", PConcept)
	b := dag.AddConcept("B", PConcept)

	tax.SetToldSubsumers(a, []BP{b})
	tax.SetToldSubsumers(b, []BP{a})

	require.NoError(t, tax.Classify(context.Background(), []BP{a, b}, nil))

	va, ok := tax.VertexOf(a)
	require.True(t, ok)
	vb, ok := tax.VertexOf(b)
	require.True(t, ok)
	assert.Same(t, va, vb, "a told-subsumer cycle between A and B must collapse them into one synonym vertex")
}

func TestTaxonomyProgressMonitorCancelsClassification(t *testing.T) {
	tax, dag := newTestTaxonomy(t)
	a := dag.AddConcept("A", PConcept)
	b := dag.AddConcept("B", PConcept)

	monitor := &cancelAfterNMonitor{n: 0}
	err := tax.Classify(context.Background(), []BP{a, b}, monitor)
	require.Error(t, err)
}

type cancelAfterNMonitor struct {
	n     int
	count int
}

func (m *cancelAfterNMonitor) OnConceptStart(string) { m.count++ }
func (m *cancelAfterNMonitor) OnConceptDone(string)  {}
func (m *cancelAfterNMonitor) ShouldCancel() bool    { return m.count > m.n }

// TestTaxonomyAncestorsSnapshotIndependentOfClassificationOrder asserts that
// Poodle's ancestor set comes out identical (as a set of synonym BPs)
// regardless of the order names are handed to Classify, since
// pushAndClassify walks told subsumers first and must leave the resulting
// DAG edges independent of the caller's slice order.
func TestTaxonomyAncestorsSnapshotIndependentOfClassificationOrder(t *testing.T) {
	build := func(order []string) []BP {
		tax, dag := newTestTaxonomy(t)
		animal := dag.AddConcept("Animal", PConcept)
		dog := dag.AddConcept("Dog", PConcept)
		poodle := dag.AddConcept("Poodle", PConcept)
		dag.SetDefinition(dog, dag.And(animal, dag.AddConcept("Barks", PConcept)))
		dag.SetDefinition(poodle, dag.And(dog, dag.AddConcept("Curly", PConcept)))

		byName := map[string]BP{"Animal": animal, "Dog": dog, "Poodle": poodle}
		names := make([]BP, len(order))
		for i, n := range order {
			names[i] = byName[n]
		}
		require.NoError(t, tax.Classify(context.Background(), names, nil))

		var synonyms []BP
		for _, v := range tax.Ancestors(poodle) {
			synonyms = append(synonyms, v.Synonyms...)
		}
		sort.Slice(synonyms, func(i, j int) bool { return synonyms[i] < synonyms[j] })
		return synonyms
	}

	forward := build([]string{"Animal", "Dog", "Poodle"})
	reversed := build([]string{"Poodle", "Dog", "Animal"})

	if diff := cmp.Diff(forward, reversed); diff != "" {
		t.Errorf("Poodle ancestor synonym snapshot depends on Classify() input order (-forward +reversed):\n%s", diff)
	}
}

func containsBP(list []BP, target BP) bool {
	for _, b := range list {
		if b == target {
			return true
		}
	}
	return false
}
