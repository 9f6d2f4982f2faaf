// Package kernelerr defines the error kinds shared across the MortalSim
// simulation kernel. Every kernel package that can fail returns a *Error
// wrapping one of the Kind values below rather than an ad-hoc sentinel, so
// callers can branch on kind with errors.Is/As regardless of which layer
// raised it.
package kernelerr

import "fmt"

// Kind categorizes the reason a kernel operation failed.
type Kind int

const (
	// InvalidId means an id presented to an unschedule/unset/remove call
	// does not exist (or no longer exists) in the owning registry.
	InvalidId Kind = iota
	// InvalidTime means a schedule, signal send, or digestion exit was
	// requested at a time that violates monotonic ordering (start_time <
	// sim_time, duration <= 0, send_time <= now, exit_time < sim_time).
	InvalidTime
	// InvalidTopology means a nerve signal path is empty or contains an
	// edge not present in the nerve graph's downlink() set.
	InvalidTopology
	// InvalidComposition means a substance store mutation would push
	// solute fraction outside [0,1] or a concentration below zero.
	InvalidComposition
	// DuplicateRegistration means an id reappeared in a registry that is
	// supposed to hold unique ids. This indicates allocator corruption
	// and is treated as a fatal, non-recoverable condition by callers.
	DuplicateRegistration
)

func (k Kind) String() string {
	switch k {
	case InvalidId:
		return "InvalidId"
	case InvalidTime:
		return "InvalidTime"
	case InvalidTopology:
		return "InvalidTopology"
	case InvalidComposition:
		return "InvalidComposition"
	case DuplicateRegistration:
		return "DuplicateRegistration"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by kernel operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "timequeue.Unschedule"
	Err  error  // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, kernelerr.Sentinel(kernelerr.InvalidId)) style
// matching: two *Error values match when their Kinds are equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error for the given kind and operation.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap constructs an *Error for the given kind and operation, wrapping a
// lower-level cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel returns a zero-cause *Error usable as an errors.Is target, e.g.
// errors.Is(err, kernelerr.Sentinel(kernelerr.InvalidId)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
