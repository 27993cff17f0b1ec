package reasoner

// BP is a bipolar pointer: a signed reference into a DAG's vertex store.
// The sign encodes negation — BP(-p) denotes the negation of the concept
// or role expression denoted by BP(p). Vertex 0 is never allocated so that
// the zero value of BP is distinguishable from a valid pointer.
type BP int32

const (
	// bpInvalidValue is the sentinel magnitude; no real vertex ever uses it.
	bpInvalidValue int32 = 0
	// bpTopValue and bpBottomValue are reserved vertex indices for the
	// universal and empty concepts, fixed at DAG construction time.
	bpTopValue    int32 = 1
	bpBottomValue int32 = -1
)

// BPInvalid is the non-pointer sentinel. IsValid(BPInvalid) is false.
var BPInvalid BP = BP(bpInvalidValue)

// BPTop and BPBottom denote the universal (TOP) and empty (BOTTOM)
// concepts respectively. BPBottom == -BPTop by construction, since BOTTOM
// is the negation of TOP.
var (
	BPTop    BP = BP(bpTopValue)
	BPBottom BP = BP(bpBottomValue)
)

// IsValid reports whether p refers to an allocated vertex.
func IsValid(p BP) bool { return p != BPInvalid }

// Inverse flips the polarity of p, returning its negation. Inverse(TOP) ==
// BOTTOM and vice versa, by construction.
func Inverse(p BP) BP { return -p }

// IsNegative reports whether p denotes a negated expression.
func (p BP) IsNegative() bool { return p < 0 }

// Index returns the unsigned vertex-table index that p refers to,
// irrespective of polarity.
func (p BP) Index() int32 {
	if p < 0 {
		return -p
	}
	return p
}
