package circulation

import (
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/substance"
)

// Connector is the per-component scratch pad for the Circulation Layer
// (spec.md §3's CirculationConnector). Stores is populated exclusively
// during Prepare — the moved-in stores are not touched by the layer again
// until Process moves them back, matching the "exclusive move in, move
// out" discipline spec.md §5 and §9 mandate for single-threaded mode.
type Connector[V comparable] struct {
	Now    simtime.SimTime
	Stores map[V]*substance.Store
}

func newConnector[V comparable]() *Connector[V] {
	return &Connector[V]{Stores: make(map[V]*substance.Store)}
}
