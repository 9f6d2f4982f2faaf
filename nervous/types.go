// Package nervous implements the Nervous Layer (spec.md §4.8): a
// time-ordered map of pending nerve signals, per-(nerve, message type)
// transformers that may mutate or cancel a signal mid-walk, and a
// delivery buffer routed to subscribing components by terminal nerve.
//
// The nerve type N is left generic and comparable, mirroring circulation's
// vessel type V — spec.md §1 keeps concrete nerve graphs (organism
// anatomy) out of the kernel's scope.
package nervous

import (
	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simtime"
)

// TransformFunc inspects (and may replace) a signal's message as it
// passes through one nerve. Returning ok=false cancels the signal —
// spec.md §4.8's "a transformer that returns absence cancels the signal".
type TransformFunc func(msg simevent.Event) (replacement simevent.Event, ok bool)

// NerveSignal is a message travelling along a fixed path of nerves
// (spec.md §3). Path must be non-empty; callers are responsible for every
// consecutive pair being a legal downlink edge — the kernel does not
// itself know the organism's nerve graph.
type NerveSignal[N comparable] struct {
	ID         idgen.Id
	Path       []N
	Message    simevent.Event
	SendTime   simtime.SimTime
	MessageTag simevent.TypeTag
}

// TerminalNerve returns the last element of Path, the dispatch key for
// component notification (spec.md's Terminal nerve).
func (s *NerveSignal[N]) TerminalNerve() N {
	return s.Path[len(s.Path)-1]
}
