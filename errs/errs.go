// Package errs models three of the four error kinds of spec §7 (IO,
// InvariantViolation, OutOfRange) as a single CRPError with
// errors.Is-compatible sentinel Kind values. The fourth, Unreachable,
// is deliberately not one of them: a query finding no path is a
// normal result (empty path, cost comps.INF), never an error value.
package errs

import "fmt"

// Kind classifies a CRPError per §7.
type Kind byte

const (
	// IO marks a file missing, truncated, or malformed header.
	IO Kind = iota
	// InvariantViolation marks a construction-time consistency check
	// that failed (e.g. a boundary edge whose endpoints disagree with
	// their recorded cell numbers).
	InvariantViolation
	// OutOfRange marks an attribute value that would overflow a
	// weight computation; callers clamp to comps.INF rather than
	// propagating the value further.
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case InvariantViolation:
		return "invariant_violation"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// CRPError wraps an underlying error with the §7 kind that produced
// it, so callers can errors.Is against the Kind sentinels below.
type CRPError struct {
	Kind Kind
	Err  error
}

func (e *CRPError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}
func (e *CRPError) Unwrap() error { return e.Err }

// sentinel values usable with errors.Is(err, errs.ErrIO) etc.
var (
	ErrIO                 = &CRPError{Kind: IO}
	ErrInvariantViolation = &CRPError{Kind: InvariantViolation}
	ErrOutOfRange         = &CRPError{Kind: OutOfRange}
)

func (e *CRPError) Is(target error) bool {
	t, ok := target.(*CRPError)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

// Wrap builds a CRPError of the given kind around err. Returns nil if
// err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &CRPError{Kind: kind, Err: err}
}

// Wrapf is Wrap with fmt.Errorf-style formatting.
func Wrapf(kind Kind, format string, args ...any) error {
	return &CRPError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
