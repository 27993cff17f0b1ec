package reasoner

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheState is the outcome a modelCache represents or a merge produces.
type CacheState int

const (
	// CacheUnknown means no conclusive model has been built yet.
	CacheUnknown CacheState = iota
	// CacheValid means the summarised tableau saturated without clash.
	CacheValid
	// CacheInvalid means the summarised tableau provably clashes.
	CacheInvalid
	// CacheFailed means the cache attempt was inconclusive (e.g. a cyclic
	// sub-part was skipped) and should not be relied on to decide SAT.
	CacheFailed
)

func (s CacheState) String() string {
	switch s {
	case CacheValid:
		return "Valid"
	case CacheInvalid:
		return "Invalid"
	case CacheFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// modelCache is an approximate summary of a completed tableau, used to
// decide whether a fresh satisfiability question can be answered by
// reusing a previously-built model instead of re-saturating. A cache is "shallow" if it carries only labels touching named
// roles, "deep" otherwise. The flag is recorded only: shallow caches are
// stored and consulted exactly like deep ones.
type modelCache struct {
	State   CacheState
	Shallow bool
	// Labels is the accumulated set of concept BPs the summarised model's
	// root node carries, used by merge to detect an immediate clash
	// (bp and Inverse(bp) both present).
	Labels map[BP]bool
}

func newModelCache(state CacheState, shallow bool) *modelCache {
	return &modelCache{State: state, Shallow: shallow, Labels: make(map[BP]bool)}
}

// merge combines two caches into the state their conjunction would have:
// Invalid dominates (a proven clash in either rules out the conjunction);
// otherwise a direct label clash between the two (bp in one, Inverse(bp)
// in the other) also yields Invalid; otherwise Valid if both are Valid,
// else Unknown.
func (c *modelCache) merge(other *modelCache) CacheState {
	if c.State == CacheInvalid || other.State == CacheInvalid {
		return CacheInvalid
	}
	for bp := range c.Labels {
		if other.Labels[Inverse(bp)] {
			return CacheInvalid
		}
	}
	if c.State == CacheValid && other.State == CacheValid {
		return CacheValid
	}
	return CacheUnknown
}

// Cache is the per-DAG-node subsumption/satisfiability cache. Caches are
// bounded with an LRU eviction policy per polarity using
// hashicorp/golang-lru — a DAG built from a large ontology can otherwise
// accumulate one cache entry per vertex indefinitely.
type Cache struct {
	dag      *DAG
	pos, neg *lru.Cache[BP, *modelCache]
	// inProgress marks BPs currently being visited by prepareCascadedCache,
	// to detect and break cycles in the sub-DAG.
	inProgress map[BP]bool
	build      func(bp BP) *modelCache
}

// NewCache returns a Cache over dag with capacity cache entries per
// polarity. build is the callback used to run a dedicated SAT test
// against a DAG node to populate its cache (buildCacheByCGraph in
// tableau.go).
func NewCache(dag *DAG, capacity int, build func(bp BP) *modelCache) *Cache {
	pos, _ := lru.New[BP, *modelCache](capacity)
	neg, _ := lru.New[BP, *modelCache](capacity)
	return &Cache{dag: dag, pos: pos, neg: neg, inProgress: make(map[BP]bool), build: build}
}

func (c *Cache) slot(bp BP) *lru.Cache[BP, *modelCache] {
	if bp.IsNegative() {
		return c.neg
	}
	return c.pos
}

// lookup returns the cache for (bp, its own polarity), if present.
func (c *Cache) lookup(bp BP) (*modelCache, bool) {
	return c.slot(bp).Get(bp)
}

// store records cache for bp, enforcing invariant 1 of: at
// most one cache is ever stored for a given (vertex, polarity). Calling
// store twice with the same bp but a different cache is an internal
// invariant failure.
func (c *Cache) store(bp BP, cache *modelCache) {
	if existing, ok := c.slot(bp).Get(bp); ok && existing != cache {
		panic("reasoner: cache already set for " + bp.String())
	}
	c.slot(bp).Add(bp, cache)
}

// CreateCache returns the cache for bp, building it via
// prepareCascadedCache/build if it does not already exist.
func (c *Cache) CreateCache(bp BP) *modelCache {
	if cached, ok := c.lookup(bp); ok {
		return cached
	}
	return c.prepareCascadedCache(bp)
}

// prepareCascadedCache visits bp's sub-DAG recursively, marking
// in-progress BPs to break cycles (a cycle is not an error — caching
// proceeds without the cyclic sub-part), then invokes
// build to populate the final cache.
func (c *Cache) prepareCascadedCache(bp BP) *modelCache {
	if c.inProgress[bp] {
		// Cycle: report via a Failed marker; the caller's merge treats
		// CacheFailed as inconclusive rather than propagating a spurious
		// clash.
		return newModelCache(CacheFailed, true)
	}
	c.inProgress[bp] = true
	defer delete(c.inProgress, bp)

	v := c.dag.Get(bp)
	switch v.Tag {
	case TagAnd, TagCollection:
		for _, child := range v.Children {
			c.CreateCache(child)
		}
	case TagForall, TagLE:
		c.CreateCache(v.Filler)
	}

	built := c.build(bp)
	c.store(bp, built)
	return built
}

// String renders a BP for panic/debug messages.
func (p BP) String() string {
	return strconv.Itoa(int(p))
}
