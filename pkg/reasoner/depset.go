// Package reasoner implements the core of a description-logic tableau
// reasoner: a DAG-encoded concept language, a completion-graph tableau
// procedure with dependency-directed backtracking, a datatype
// sub-reasoner, a subsumption cache, and a two-phase taxonomy builder.
package reasoner

import "math/bits"

// DepSet is an immutable, branch-indexed dependency set ("clash-set").
// Each bit position corresponds to a save/restore branching level; a set
// bit means a decision made at that level contributed to deriving the
// fact the DepSet is attached to. DepSets are the currency of
// dependency-directed backtracking: Tableau.tunedRestore pops branching
// contexts whose level is absent from the reported clash-set.
//
// DepSet follows the same bitset-over-words shape as a finite domain,
// but indexes branch levels instead of candidate values, and grows
// without a fixed upper bound as the branching stack deepens.
type DepSet struct {
	words []uint64
}

// EmptyDepSet is the dependency set with no contributing levels.
var EmptyDepSet = DepSet{}

// SingletonDepSet returns a DepSet whose only contributing level is level.
// level must be >= 0.
func SingletonDepSet(level int) DepSet {
	var d DepSet
	d.set(level)
	return d
}

func wordsFor(level int) int {
	return level/64 + 1
}

func (d *DepSet) set(level int) {
	n := wordsFor(level)
	if len(d.words) < n {
		grown := make([]uint64, n)
		copy(grown, d.words)
		d.words = grown
	}
	d.words[level/64] |= 1 << uint(level%64)
}

// Union returns a fresh DepSet containing every level present in d or
// other. Union is associative, commutative, and idempotent.
func (d DepSet) Union(other DepSet) DepSet {
	n := len(d.words)
	if len(other.words) > n {
		n = len(other.words)
	}
	if n == 0 {
		return EmptyDepSet
	}
	words := make([]uint64, n)
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(d.words) {
			a = d.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		words[i] = a | b
	}
	return DepSet{words: words}
}

// Plus is an alias for Union matching the conventional "+" notation for
// dep-set combination.
func (d DepSet) Plus(other DepSet) DepSet { return d.Union(other) }

// HasLevel reports whether level is a member of d (a subset-at-level
// test specialised to singletons).
func (d DepSet) HasLevel(level int) bool {
	w := level / 64
	if w >= len(d.words) {
		return false
	}
	return d.words[w]&(1<<uint(level%64)) != 0
}

// IsSubsetAtLevel reports whether every level in d is <= maxLevel.
// tunedRestore does not call it; it tests membership with HasLevel.
func (d DepSet) IsSubsetAtLevel(maxLevel int) bool {
	return d.MaxLevel() <= maxLevel
}

// MaxLevel returns the highest contributing level in d, or -1 if d is
// empty.
func (d DepSet) MaxLevel() int {
	for i := len(d.words) - 1; i >= 0; i-- {
		if d.words[i] != 0 {
			return i*64 + (63 - bits.LeadingZeros64(d.words[i]))
		}
	}
	return -1
}

// IsEmpty reports whether d has no contributing levels.
func (d DepSet) IsEmpty() bool {
	for _, w := range d.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Levels returns the contributing levels of d in ascending order. Intended
// for debugging and invariant checks, not for hot paths.
func (d DepSet) Levels() []int {
	var out []int
	for i, w := range d.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &^= 1 << uint(b)
		}
	}
	return out
}

// Equal reports whether d and other contain exactly the same levels.
func (d DepSet) Equal(other DepSet) bool {
	n := len(d.words)
	if len(other.words) > n {
		n = len(other.words)
	}
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(d.words) {
			a = d.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// RestrictBelow returns a fresh DepSet with every level >= level removed,
// dropping dependency information that points past a truncated branching
// stack. The restore paths in this package do not call it.
func (d DepSet) RestrictBelow(level int) DepSet {
	if level <= 0 {
		return EmptyDepSet
	}
	keepWord := level / 64 // word holding bit `level`; kept but masked
	n := keepWord + 1
	if n > len(d.words) {
		n = len(d.words)
	}
	if n == 0 {
		return EmptyDepSet
	}
	words := make([]uint64, n)
	copy(words, d.words[:n])
	if keepWord < n {
		words[keepWord] &= (uint64(1) << uint(level%64)) - 1
	}
	return DepSet{words: words}
}
