package reasoner

// DataTypeReasoner maintains, per supported primitive datatype, the set
// of interval constraints asserted against a single data node during one
// tableau expansion, and answers whether those constraints are jointly
// satisfiable. It is the value-range analogue of the concept-level clash
// check: the same interval-propagation shape as ordinary finite-domain
// bound tracking, specialised to dependency-tracked, possibly-unbounded
// numeric/string/boolean ranges instead of finite bitset domains.
type DataTypeReasoner struct {
	intervals map[string][]DepInterval
}

// NewDataTypeReasoner returns an empty reasoner, one clean state per
// tableau data node.
func NewDataTypeReasoner() *DataTypeReasoner {
	return &DataTypeReasoner{intervals: make(map[string][]DepInterval)}
}

// PrimitiveType enumerates the supported primitive datatypes. "real" and
// "number" are deliberately not registered as two distinct basic types
// here: NumberType is the single canonical numeric type, and any
// ontology's "real"/"decimal"/"double" facets are normalised onto it.
// See DESIGN.md for the rationale.
type PrimitiveType string

const (
	NumberType  PrimitiveType = "number"
	StringType  PrimitiveType = "string"
	BooleanType PrimitiveType = "boolean"
	IntegerType PrimitiveType = "integer" // subrange of NumberType
)

// Bound is one endpoint of an interval: a value plus whether the bound is
// inclusive of that value.
type Bound struct {
	Value     interface{} // int, float64, string, or bool depending on type
	Inclusive bool
	set       bool // false means "unbounded on this side"
}

// Unbounded is the absent-bound value: no constraint on that side.
var Unbounded = Bound{}

// DepInterval pairs a [min,max] range with the dependency sets of the two
// bounds that produced it. A data value is modelled as a point interval
// with Min == Max, both carrying the same dep-set.
type DepInterval struct {
	Min, Max   Bound
	MinDep     DepSet
	MaxDep     DepSet
	IsNegative bool // true if this entry excludes rather than includes the range
}

// AddDataEntry folds a new constraint into typ's interval list and
// reports whether the addition alone makes typ unsatisfiable (e.g. two
// disjoint point values, or min > max). The dep-set reported on a clash
// is the union of the dep-sets of every bound that participates in the
// contradiction.
func (r *DataTypeReasoner) AddDataEntry(typ PrimitiveType, entry DepInterval, dep DepSet) (clash bool, clashDep DepSet) {
	entry.MinDep = entry.MinDep.Union(dep)
	entry.MaxDep = entry.MaxDep.Union(dep)
	list := r.intervals[string(typ)]
	r.intervals[string(typ)] = append(list, entry)
	if c, d := r.checkPair(entry, entry); c {
		return true, d
	}
	for _, other := range list {
		if c, d := intervalsDisjoint(other, entry); c {
			return true, d
		}
	}
	return false, EmptyDepSet
}

// checkPair reports whether a itself is internally inconsistent (min >
// max considering exclusivity).
func (r *DataTypeReasoner) checkPair(a, _ DepInterval) (bool, DepSet) {
	if !a.Min.set || !a.Max.set {
		return false, EmptyDepSet
	}
	cmp, ok := compareValues(a.Min.Value, a.Max.Value)
	if !ok {
		return false, EmptyDepSet
	}
	if cmp > 0 {
		return true, a.MinDep.Union(a.MaxDep)
	}
	if cmp == 0 && (!a.Min.Inclusive || !a.Max.Inclusive) {
		return true, a.MinDep.Union(a.MaxDep)
	}
	return false, EmptyDepSet
}

// CheckClash sweeps every registered type's interval list and reports the
// first clash found: either an internally inconsistent interval, or two
// intervals for the same type whose ranges do not overlap (a positive
// assertion that the value lies in A and another that it lies in the
// disjoint range B). The returned dep-set is the union of the
// contributing bounds' dep-sets.
func (r *DataTypeReasoner) CheckClash() (clash bool, clashDep DepSet) {
	for _, list := range r.intervals {
		for i := range list {
			if c, d := r.checkPair(list[i], list[i]); c {
				return true, d
			}
		}
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if c, d := intervalsDisjoint(list[i], list[j]); c {
					return true, d
				}
			}
		}
	}
	return false, EmptyDepSet
}

// intervalsDisjoint reports whether two intervals over the same type
// cannot simultaneously hold, i.e. their ranges do not overlap.
func intervalsDisjoint(a, b DepInterval) (bool, DepSet) {
	if a.Min.set && b.Max.set {
		cmp, ok := compareValues(a.Min.Value, b.Max.Value)
		if ok {
			if cmp > 0 || (cmp == 0 && (!a.Min.Inclusive || !b.Max.Inclusive)) {
				return true, a.MinDep.Union(b.MaxDep)
			}
		}
	}
	if b.Min.set && a.Max.set {
		cmp, ok := compareValues(b.Min.Value, a.Max.Value)
		if ok {
			if cmp > 0 || (cmp == 0 && (!b.Min.Inclusive || !a.Max.Inclusive)) {
				return true, b.MinDep.Union(a.MaxDep)
			}
		}
	}
	return false, EmptyDepSet
}

// compareValues orders two same-typed literal values. ok is false if the
// values are not comparable (e.g. mismatched dynamic types), in which
// case the caller treats the pair as non-contradictory rather than
// clashing spuriously.
func compareValues(a, b interface{}) (cmp int, ok bool) {
	switch av := a.(type) {
	case int:
		bv, ok2 := b.(int)
		if !ok2 {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case float64:
		bv, ok2 := b.(float64)
		if !ok2 {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case string:
		bv, ok2 := b.(string)
		if !ok2 {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok2 := b.(bool)
		if !ok2 {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		// true/false are not ordered; report any two unequal values as
		// "greater" so two opposite boolean point values are caught by
		// intervalsDisjoint (disjoint single points) in either order.
		return 1, true
	default:
		return 0, false
	}
}

// PointInterval builds the point interval [v,v] for a concrete literal, as
// used for DataValue vertices.
func PointInterval(v interface{}) DepInterval {
	b := Bound{Value: v, Inclusive: true, set: true}
	return DepInterval{Min: b, Max: b}
}

// FacetInterval builds the half-open interval implied by a single facet
// restriction (e.g. ">18" becomes Min=18 exclusive, Max=unbounded).
func FacetInterval(facet DataFacet) DepInterval {
	switch facet.Op {
	case FacetGT:
		return DepInterval{Min: Bound{Value: facet.Bound, Inclusive: false, set: true}}
	case FacetGE:
		return DepInterval{Min: Bound{Value: facet.Bound, Inclusive: true, set: true}}
	case FacetLT:
		return DepInterval{Max: Bound{Value: facet.Bound, Inclusive: false, set: true}}
	case FacetLE:
		return DepInterval{Max: Bound{Value: facet.Bound, Inclusive: true, set: true}}
	case FacetEQ:
		b := Bound{Value: facet.Bound, Inclusive: true, set: true}
		return DepInterval{Min: b, Max: b}
	default:
		return DepInterval{}
	}
}
