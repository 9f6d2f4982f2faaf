// Package kernelobs provides the kernel's optional structured trace
// sink. It is a direct rename-and-redomain of the teacher's
// extracellular.BiologicalObserver: a decoupled, non-blocking event
// emission interface that lets external tooling watch the simulation
// without the kernel taking a hard dependency on any particular logging
// or metrics stack.
//
// If no Observer is attached, emitting code falls back to Noop, which
// discards every event.
package kernelobs

import "time"

// Kind identifies the category of a kernel trace Event.
type Kind string

const (
	KindEventScheduled    Kind = "event.scheduled"
	KindEventDelivered    Kind = "event.delivered"
	KindChangeScheduled   Kind = "substance.change.scheduled"
	KindChangeRejected    Kind = "substance.change.rejected"
	KindComponentRun      Kind = "component.run"
	KindSignalSent        Kind = "nervous.signal.sent"
	KindSignalCancelled   Kind = "nervous.signal.cancelled"
	KindSignalDelivered   Kind = "nervous.signal.delivered"
	KindDigestionExit     Kind = "digestion.exit"
	KindDigestionEliminate Kind = "digestion.eliminate"
)

// Event is a single structured occurrence emitted by a kernel layer.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	SourceID  string
	TargetID  string
	Message   string
	Data      map[string]interface{}
}

// Observer receives kernel trace Events. Implementations MUST be
// non-blocking and safe for concurrent calls — a common pattern is
// forwarding to a buffered channel for asynchronous processing, exactly
// as the teacher's BiologicalObserver docs prescribe.
type Observer interface {
	Emit(event Event)
}

// Noop is an Observer that discards every event; used as the default
// when a layer is constructed without an explicit Observer.
type Noop struct{}

func (Noop) Emit(Event) {}
