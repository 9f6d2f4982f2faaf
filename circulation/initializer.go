package circulation

import "github.com/mortalsim/mortalsim/substance"

// thresholdDecl is one (vessel, substance, threshold) notification
// declaration made during CirculationInit.
type thresholdDecl[V comparable] struct {
	vessel    V
	substance substance.Substance
	threshold float64
}

// Initializer is the sole channel a component uses, during
// CirculationInit, to declare which vessels it attaches to and what
// triggers it (spec.md §4.6 setup).
type Initializer[V comparable] struct {
	attachAll       bool
	vessels         map[V]bool
	notifyAnyChange bool
	thresholds      []thresholdDecl[V]
}

func newInitializer[V comparable]() *Initializer[V] {
	return &Initializer[V]{vessels: make(map[V]bool)}
}

// AttachAll declares that the component's connector should receive every
// owned vessel's store on each prepare, rather than a specific subset.
func (i *Initializer[V]) AttachAll() { i.attachAll = true }

// AttachVessel declares a specific vessel the component wants attached.
func (i *Initializer[V]) AttachVessel(v V) { i.vessels[v] = true }

// NotifyAnyChange declares that the component should be checked whenever
// any owned store reports a new change, without needing a specific
// vessel or threshold.
func (i *Initializer[V]) NotifyAnyChange() { i.notifyAnyChange = true }

// NotifyThreshold declares that the component should be checked whenever
// sub's concentration in vessel moves by at least threshold since the
// last check.
func (i *Initializer[V]) NotifyThreshold(vessel V, sub substance.Substance, threshold float64) {
	i.thresholds = append(i.thresholds, thresholdDecl[V]{vessel: vessel, substance: sub, threshold: threshold})
}
