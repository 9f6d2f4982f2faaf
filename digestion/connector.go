package digestion

import "github.com/mortalsim/mortalsim/simtime"

// Connector is the per-component scratch pad for the Digestion Layer
// (spec.md §3's DigestionConnector). ActiveConsumed is not moved out of
// layer ownership the way Circulation's stores are — a digestion
// component mutates the Consumed pointers (scheduling changes, calling
// SetExit) in place, and the layer reconciles exits during Process.
type Connector struct {
	Now           simtime.SimTime
	ActiveConsumed []*Consumed
}

func newConnector() *Connector {
	return &Connector{}
}
