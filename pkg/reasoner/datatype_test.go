package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeReasonerPointValuesAgree(t *testing.T) {
	r := NewDataTypeReasoner()
	clash, _ := r.AddDataEntry(IntegerType, PointInterval(18), EmptyDepSet)
	require.False(t, clash)

	clash, _ = r.AddDataEntry(IntegerType, PointInterval(18), EmptyDepSet)
	assert.False(t, clash)
}

func TestDataTypeReasonerDisjointPointValuesClash(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(IntegerType, PointInterval(18), EmptyDepSet)
	clash, dep := r.AddDataEntry(IntegerType, PointInterval(21), EmptyDepSet)
	assert.True(t, clash)
	assert.True(t, dep.IsEmpty())
}

func TestDataTypeReasonerFacetsOverlap(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetGT, Bound: 18}), EmptyDepSet)
	clash, _ := r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetLT, Bound: 65}), EmptyDepSet)
	assert.False(t, clash)

	ok, _ := r.CheckClash()
	assert.False(t, ok)
}

func TestDataTypeReasonerFacetsDisjointClash(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetGT, Bound: 65}), EmptyDepSet)
	_, _ = r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetLT, Bound: 18}), EmptyDepSet)

	clash, _ := r.CheckClash()
	assert.True(t, clash)
}

func TestDataTypeReasonerInternallyInconsistentInterval(t *testing.T) {
	r := NewDataTypeReasoner()
	bad := DepInterval{
		Min: Bound{Value: 10, Inclusive: true, set: true},
		Max: Bound{Value: 5, Inclusive: true, set: true},
	}
	clash, _ := r.AddDataEntry(IntegerType, bad, EmptyDepSet)
	assert.True(t, clash)
}

func TestDataTypeReasonerDifferentTypesIndependent(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(IntegerType, PointInterval(18), EmptyDepSet)
	_, _ = r.AddDataEntry(StringType, PointInterval("eighteen"), EmptyDepSet)

	clash, _ := r.CheckClash()
	assert.False(t, clash)
}

func TestDataTypeReasonerBooleanPointsClash(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(BooleanType, PointInterval(true), EmptyDepSet)
	clash, _ := r.AddDataEntry(BooleanType, PointInterval(false), EmptyDepSet)
	assert.True(t, clash)
}

func TestCompareValuesMismatchedTypesNotComparable(t *testing.T) {
	_, ok := compareValues(1, "one")
	assert.False(t, ok)
}

func TestDataTypeReasonerClashDepCarriesContributingLevels(t *testing.T) {
	r := NewDataTypeReasoner()
	_, _ = r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetGT, Bound: 65}), SingletonDepSet(1))
	_, dep := r.AddDataEntry(IntegerType, FacetInterval(DataFacet{Op: FacetLT, Bound: 18}), SingletonDepSet(2))

	clash, clashDep := r.CheckClash()
	require.True(t, clash)
	assert.True(t, clashDep.HasLevel(1))
	assert.True(t, clashDep.HasLevel(2))
	_ = dep
}
