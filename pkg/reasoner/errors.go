package reasoner

import "github.com/pkg/errors"

// ErrorKind classifies the fatal, facade-boundary error conditions the
// reasoner can raise. These are never used for ordinary tableau control
// flow — internal clash detection is a value return ({Done, Unusable,
// Clash} / utClash), not an error.
type ErrorKind int

const (
	// ErrMalformedInput: symbol used inconsistently as role and concept;
	// cardinality on a non-simple role; unregistered name when names are
	// locked.
	ErrMalformedInput ErrorKind = iota
	// ErrCycleInRoleInclusion: fatal preprocessing error.
	ErrCycleInRoleInclusion
	// ErrInconsistentKB: every subsequent boolean query answers per the
	// standard convention (every concept subsumed, every satisfiability
	// false).
	ErrInconsistentKB
	// ErrTimeout: per-query, recoverable with a fresh budget.
	ErrTimeout
	// ErrCancelled: per-query, recoverable.
	ErrCancelled
	// ErrInternalInvariantFailure: unreachable state or corrupted
	// save/restore stack. Indicates a bug and aborts the process as a
	// panic rather than an error return, since it is by definition not
	// something a caller can meaningfully recover from.
	ErrInternalInvariantFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInput:
		return "MalformedInput"
	case ErrCycleInRoleInclusion:
		return "CycleInRoleInclusion"
	case ErrInconsistentKB:
		return "InconsistentKB"
	case ErrTimeout:
		return "Timeout"
	case ErrCancelled:
		return "Cancelled"
	case ErrInternalInvariantFailure:
		return "InternalInvariantFailure"
	default:
		return "Unknown"
	}
}

// ReasonerError wraps an ErrorKind with a message, using
// github.com/pkg/errors for both a stack trace and errors.Is/As
// discrimination.
type ReasonerError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *ReasonerError) Error() string {
	if e.msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.msg
}

func (e *ReasonerError) Unwrap() error { return e.err }

// Is supports errors.Is(err, SomeKind) by comparing the ErrorKind a
// ReasonerError carries, not its pointer identity.
func (e *ReasonerError) Is(target error) bool {
	other, ok := target.(*ReasonerError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind ErrorKind, msg string) error {
	return errors.WithStack(&ReasonerError{Kind: kind, msg: msg})
}

// KindOf extracts the ErrorKind from err, if err (or something it wraps)
// is a *ReasonerError.
func KindOf(err error) (ErrorKind, bool) {
	var re *ReasonerError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// Sentinel instances for errors.Is comparisons against a specific kind,
// e.g. errors.Is(err, ErrTimeoutSentinel).
var (
	ErrMalformedInputSentinel           = &ReasonerError{Kind: ErrMalformedInput}
	ErrCycleInRoleInclusionSentinel     = &ReasonerError{Kind: ErrCycleInRoleInclusion}
	ErrInconsistentKBSentinel           = &ReasonerError{Kind: ErrInconsistentKB}
	ErrTimeoutSentinel                  = &ReasonerError{Kind: ErrTimeout}
	ErrCancelledSentinel                = &ReasonerError{Kind: ErrCancelled}
	ErrInternalInvariantFailureSentinel = &ReasonerError{Kind: ErrInternalInvariantFailure}
)
