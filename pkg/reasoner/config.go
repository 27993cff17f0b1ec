package reasoner

import (
	"time"

	"go.uber.org/zap"
)

// Config is the reasoner's configuration surface. Each field's effects
// are documented against the component that consults it. It follows a
// plain-struct-plus-defaults-constructor shape: a constructor supplying
// sane defaults, consulted by value rather than through virtual strategy
// objects.
type Config struct {
	// UseSemanticBranching selects semantic branching for the OR-rule.
	// No component reads it: expandOr always tries the disjuncts in order
	// and does not add the negations of previously-tried disjuncts.
	UseSemanticBranching bool

	// UseBackjumping enables dependency-directed jumping in tunedRestore:
	// when false, restore always pops exactly one level (chronological
	// backtracking) regardless of the reported clash-set.
	UseBackjumping bool

	// UseLazyBlocking selects lazy blocking-candidacy checks. No component
	// reads it: blocking is always checked when expandSome is about to
	// create a successor and again by retestCGBlockedStatus before a SAT
	// verdict.
	UseLazyBlocking bool

	// UseAnywhereBlocking selects anywhere blocking. No component reads
	// it: blockerOf only ever considers a node's ancestors (subset
	// blocking). AddFairnessConstraint sets it to false.
	UseAnywhereBlocking bool

	// UseCompletelyDefined selects the completely-defined classification
	// shortcut. No component reads it: the taxonomy builder always runs
	// both the top-down and the bottom-up phase.
	UseCompletelyDefined bool

	// UseSortedReasoning selects ordered interval checks in the datatype
	// reasoner. No component reads it: DataTypeReasoner always compares
	// ordered bounds.
	UseSortedReasoning bool

	// AlwaysPreferEquals selects running the taxonomy's synonym check
	// first. No component reads it: doClassification always runs the
	// synonym check before the top-down/bottom-up search.
	AlwaysPreferEquals bool

	// TestTimeout is the per-test millisecond budget. Zero
	// means no timeout.
	TestTimeout int

	// FairnessConstraints, if non-empty, are concept BPs that must hold
	// infinitely often along every infinite path; their presence forces
	// UseAnywhereBlocking off.
	FairnessConstraints []BP

	// CacheCapacity bounds the number of modelCache entries retained per
	// polarity (see DESIGN.md for the golang-lru wiring).
	CacheCapacity int

	// Logger receives structured diagnostics; defaults to a no-op sink.
	Logger *zap.SugaredLogger
}

// DefaultConfig returns a reasonable out-of-the-box configuration:
// backjumping and lazy blocking on, anywhere blocking on (disabled
// automatically once a fairness constraint is added), semantic branching
// on, no timeout.
func DefaultConfig() *Config {
	return &Config{
		UseSemanticBranching: true,
		UseBackjumping:       true,
		UseLazyBlocking:      true,
		UseAnywhereBlocking:  true,
		UseCompletelyDefined: true,
		UseSortedReasoning:   true,
		AlwaysPreferEquals:   true,
		TestTimeout:          0,
		CacheCapacity:        4096,
		Logger:               newNopLogger(),
	}
}

// AddFairnessConstraint appends a fairness constraint and forces
// UseAnywhereBlocking off: anywhere blocking cannot be soundly combined
// with fairness-constraint checking.
func (c *Config) AddFairnessConstraint(bp BP) {
	c.FairnessConstraints = append(c.FairnessConstraints, bp)
	c.UseAnywhereBlocking = false
}

// timeoutDuration converts TestTimeout into a time.Duration, or zero if
// unset.
func (c *Config) timeoutDuration() time.Duration {
	if c.TestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.TestTimeout) * time.Millisecond
}
