package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCacheMergeInvalidDominates(t *testing.T) {
	valid := newModelCache(CacheValid, false)
	invalid := newModelCache(CacheInvalid, false)

	assert.Equal(t, CacheInvalid, valid.merge(invalid))
	assert.Equal(t, CacheInvalid, invalid.merge(valid))
}

func TestModelCacheMergeDetectsDirectLabelClash(t *testing.T) {
	a := BP(5)
	left := newModelCache(CacheValid, false)
	left.Labels[a] = true
	right := newModelCache(CacheValid, false)
	right.Labels[Inverse(a)] = true

	assert.Equal(t, CacheInvalid, left.merge(right))
}

func TestModelCacheMergeBothValidIsValid(t *testing.T) {
	left := newModelCache(CacheValid, false)
	right := newModelCache(CacheValid, false)

	assert.Equal(t, CacheValid, left.merge(right))
}

func TestModelCacheMergeUnknownWhenEitherUndecided(t *testing.T) {
	left := newModelCache(CacheUnknown, false)
	right := newModelCache(CacheValid, false)

	assert.Equal(t, CacheUnknown, left.merge(right))
}

func TestCacheStateString(t *testing.T) {
	assert.Equal(t, "Valid", CacheValid.String())
	assert.Equal(t, "Invalid", CacheInvalid.String())
	assert.Equal(t, "Failed", CacheFailed.String())
	assert.Equal(t, "Unknown", CacheUnknown.String())
}

func TestCacheCreateCacheBuildsOncePerBP(t *testing.T) {
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	a := dag.AddConcept("A", PConcept)

	var calls int
	build := func(bp BP) *modelCache {
		calls++
		return newModelCache(CacheValid, false)
	}
	cache := NewCache(dag, 10, build)

	first := cache.CreateCache(a)
	second := cache.CreateCache(a)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls, "CreateCache must not rebuild a cache already stored for bp")
}

func TestCacheTracksPolarityIndependently(t *testing.T) {
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	a := dag.AddConcept("A", PConcept)

	var calls int
	build := func(bp BP) *modelCache {
		calls++
		return newModelCache(CacheValid, false)
	}
	cache := NewCache(dag, 10, build)

	cache.CreateCache(a)
	cache.CreateCache(Inverse(a))

	assert.Equal(t, 2, calls, "positive and negative occurrences of the same vertex are cached separately")
}

func TestCacheStorePanicsOnConflictingResetForSameBP(t *testing.T) {
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	a := dag.AddConcept("A", PConcept)
	cache := NewCache(dag, 10, func(bp BP) *modelCache { return newModelCache(CacheValid, false) })

	cache.store(a, newModelCache(CacheValid, false))
	assert.Panics(t, func() {
		cache.store(a, newModelCache(CacheInvalid, false))
	})
}

func TestCachePrepareCascadedCacheDetectsCycle(t *testing.T) {
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	a := dag.AddConcept("A", PConcept)

	var cache *Cache
	var innerResult *modelCache
	build := func(bp BP) *modelCache {
		innerResult = cache.CreateCache(bp)
		return newModelCache(CacheValid, false)
	}
	cache = NewCache(dag, 10, build)

	result := cache.CreateCache(a)

	require.NotNil(t, innerResult)
	assert.Equal(t, CacheFailed, innerResult.State, "re-entering CreateCache for a bp still in progress must report Failed, not recurse forever")
	assert.Equal(t, CacheValid, result.State)
}

func TestCachePrepareCascadedCacheVisitsAndChildrenFirst(t *testing.T) {
	rm := NewRoleMaster()
	dag := NewDAG(rm)
	a := dag.AddConcept("A", PConcept)
	b := dag.AddConcept("B", PConcept)
	conj := dag.And(a, b)

	var built []BP
	build := func(bp BP) *modelCache {
		built = append(built, bp)
		return newModelCache(CacheValid, false)
	}
	cache := NewCache(dag, 10, build)
	cache.CreateCache(conj)

	require.Len(t, built, 3)
	assert.Equal(t, conj, built[2], "the conjunction itself is only built after both its children are cached")
}
