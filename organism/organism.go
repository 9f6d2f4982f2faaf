// Package organism defines the abstract contract a concrete anatomy must
// satisfy to drive the kernel's Circulation and Nervous layers (spec.md
// §6's "Organism contract"). The kernel itself never implements a
// concrete vessel or nerve graph — that is explicitly out of scope
// (spec.md §1) and left to collaborating code such as organism/testorganism.
package organism

// VesselGraph is the graph-accessor contract a concrete vessel kind must
// satisfy: upstream/downstream adjacency, the root set a circulation
// simulation starts from, and the type-level max_cycle aggregate used by
// blood-flow distance computations.
type VesselGraph[V comparable] interface {
	Upstream(v V) []V
	Downstream(v V) []V
	StartVessels() []V
	MaxCycle() int
}

// NerveGraph is the graph-accessor contract a concrete nerve kind must
// satisfy: uplink/downlink adjacency and the terminal (leaf) nerve set.
type NerveGraph[N comparable] interface {
	Uplink(n N) []N
	Downlink(n N) []N
	TerminalNerves() []N
}

// Organism bundles the vessel and nerve kinds a concrete anatomy
// provides (spec.md §6's three associated kinds, minus the anatomy kind
// itself — represented here by the concrete type implementing this
// interface).
type Organism[V comparable, N comparable] interface {
	Vessels() VesselGraph[V]
	Nerves() NerveGraph[N]
}
