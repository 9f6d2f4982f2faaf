package core

import "github.com/mortalsim/mortalsim/simevent"

// Initializer is the sole channel a component uses, during CoreInit, to
// declare its event-type subscriptions and any initial output events it
// wants pushed into State Store before the simulation's first tick
// (spec.md §4.5 setup).
type Initializer struct {
	notify   map[simevent.TypeTag]bool
	initial  []simevent.Event
}

func newInitializer() *Initializer {
	return &Initializer{notify: make(map[simevent.TypeTag]bool)}
}

// Notify declares that the component should be triggered whenever an
// event of this type tag is delivered.
func (i *Initializer) Notify(tag simevent.TypeTag) {
	i.notify[tag] = true
}

// PushInitialEvent stages e to be written into State Store once, at
// setup time, before any tick runs.
func (i *Initializer) PushInitialEvent(e simevent.Event) {
	i.initial = append(i.initial, e)
}
