// Package simtime provides the simulation's notion of time: an abstract,
// monotonically-advancing scalar (SimTime) and a duration (SimTimeSpan)
// distinct enough that the type system rejects instant+instant while still
// allowing instant±span. Nothing in this package touches the wall clock —
// MortalSim is explicitly non-real-time (spec Non-goals).
package simtime

import "fmt"

// SimTime is a simulated instant, measured in seconds from an arbitrary
// zero the driver chooses at construction.
type SimTime float64

// SimTimeSpan is a simulated duration.
type SimTimeSpan float64

// Zero is the canonical start-of-simulation instant.
const Zero SimTime = 0

// Add returns t advanced by span. A negative span moves t backward; callers
// that must not go backward (e.g. substance.Store.Advance) enforce that
// separately.
func (t SimTime) Add(span SimTimeSpan) SimTime {
	return t + SimTime(span)
}

// Sub returns the span between t and earlier, positive when t is later.
func (t SimTime) Sub(earlier SimTime) SimTimeSpan {
	return SimTimeSpan(t - earlier)
}

// Before reports whether t is strictly earlier than other.
func (t SimTime) Before(other SimTime) bool { return t < other }

// After reports whether t is strictly later than other.
func (t SimTime) After(other SimTime) bool { return t > other }

func (t SimTime) String() string {
	return fmt.Sprintf("%.6fs", float64(t))
}

func (s SimTimeSpan) String() string {
	return fmt.Sprintf("%.6fs", float64(s))
}
