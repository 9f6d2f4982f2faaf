// Package testorganism is a small concrete anatomy used by tests and
// examples: a handful of named vessels and nerves wired into directed
// graphs via gonum, satisfying organism.VesselGraph and
// organism.NerveGraph. It is the reference anatomy spec.md §8 scenario 6
// (circulation propagation) and scenario 5 (nerve cancellation) exercise.
package testorganism

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Vessel names a node in the vessel graph.
type Vessel string

// Nerve names a node in the nerve graph.
type Nerve string

// VesselNet is a directed, weighted vessel graph: edges point downstream,
// weight is propagation time.
type VesselNet struct {
	g            *simple.WeightedDirectedGraph
	idByVessel   map[Vessel]int64
	vesselByID   map[int64]Vessel
	nextID       int64
	startVessels []Vessel
	maxCycle     int
}

// NewVesselNet returns an empty vessel graph. maxCycle is the organism's
// declared type-level aggregate (spec.md §6), used by Distance's
// unreachable-path fallback.
func NewVesselNet(maxCycle int) *VesselNet {
	return &VesselNet{
		g:          simple.NewWeightedDirectedGraph(0, 0),
		idByVessel: make(map[Vessel]int64),
		vesselByID: make(map[int64]Vessel),
		maxCycle:   maxCycle,
	}
}

// AddVessel registers v as a node, creating it if new.
func (n *VesselNet) AddVessel(v Vessel) {
	if _, ok := n.idByVessel[v]; ok {
		return
	}
	id := n.nextID
	n.nextID++
	n.idByVessel[v] = id
	n.vesselByID[id] = v
	n.g.AddNode(simple.Node(id))
}

// MarkStart declares v as one of the organism's start_vessels (e.g. the
// heart's outflow).
func (n *VesselNet) MarkStart(v Vessel) {
	n.AddVessel(v)
	n.startVessels = append(n.startVessels, v)
}

// Connect adds a downstream edge from -> to with the given propagation
// weight, registering either vessel if new.
func (n *VesselNet) Connect(from, to Vessel, weight float64) {
	n.AddVessel(from)
	n.AddVessel(to)
	n.g.SetWeightedEdge(n.g.NewWeightedEdge(simple.Node(n.idByVessel[from]), simple.Node(n.idByVessel[to]), weight))
}

// Upstream returns every vessel with a direct edge into v.
func (n *VesselNet) Upstream(v Vessel) []Vessel {
	id, ok := n.idByVessel[v]
	if !ok {
		return nil
	}
	var out []Vessel
	nodes := n.g.To(id)
	for nodes.Next() {
		out = append(out, n.vesselByID[nodes.Node().ID()])
	}
	return out
}

// Downstream returns every vessel with a direct edge out of v.
func (n *VesselNet) Downstream(v Vessel) []Vessel {
	id, ok := n.idByVessel[v]
	if !ok {
		return nil
	}
	var out []Vessel
	nodes := n.g.From(id)
	for nodes.Next() {
		out = append(out, n.vesselByID[nodes.Node().ID()])
	}
	return out
}

// StartVessels returns the organism's declared root vessels.
func (n *VesselNet) StartVessels() []Vessel {
	return n.startVessels
}

// MaxCycle returns the organism's declared type-level max_cycle
// aggregate.
func (n *VesselNet) MaxCycle() int { return n.maxCycle }

// Distance returns the shortest weighted path length from a to b. If b
// is unreachable from a (including via a cycle that never re-enters the
// target), it returns 2 × max_cycle per spec.md §9's "via the long way"
// convention, rather than +Inf or an error.
func (n *VesselNet) Distance(a, b Vessel) float64 {
	fromID, ok := n.idByVessel[a]
	if !ok {
		return float64(2 * n.maxCycle)
	}
	toID, ok := n.idByVessel[b]
	if !ok {
		return float64(2 * n.maxCycle)
	}

	shortest := path.DijkstraFrom(simple.Node(fromID), n.g)
	_, weight := shortest.To(toID)
	if math.IsInf(weight, 1) {
		return float64(2 * n.maxCycle)
	}
	return weight
}

// NerveNet is a directed nerve graph: edges point downstream (toward
// effectors), mirroring the vessel graph's uplink/downlink shape.
type NerveNet struct {
	g             *simple.DirectedGraph
	idByNerve     map[Nerve]int64
	nerveByID     map[int64]Nerve
	nextID        int64
	terminalNerve map[Nerve]bool
}

// NewNerveNet returns an empty nerve graph.
func NewNerveNet() *NerveNet {
	return &NerveNet{
		g:             simple.NewDirectedGraph(),
		idByNerve:     make(map[Nerve]int64),
		nerveByID:     make(map[int64]Nerve),
		terminalNerve: make(map[Nerve]bool),
	}
}

// AddNerve registers n as a node, creating it if new.
func (net *NerveNet) AddNerve(n Nerve) {
	if _, ok := net.idByNerve[n]; ok {
		return
	}
	id := net.nextID
	net.nextID++
	net.idByNerve[n] = id
	net.nerveByID[id] = n
	net.g.AddNode(simple.Node(id))
}

// MarkTerminal declares n as one of the organism's terminal_nerves.
func (net *NerveNet) MarkTerminal(n Nerve) {
	net.AddNerve(n)
	net.terminalNerve[n] = true
}

// Connect adds a downlink edge from -> to, registering either nerve if
// new.
func (net *NerveNet) Connect(from, to Nerve) {
	net.AddNerve(from)
	net.AddNerve(to)
	net.g.SetEdge(net.g.NewEdge(simple.Node(net.idByNerve[from]), simple.Node(net.idByNerve[to])))
}

// Uplink returns every nerve with a direct edge into n.
func (net *NerveNet) Uplink(n Nerve) []Nerve {
	id, ok := net.idByNerve[n]
	if !ok {
		return nil
	}
	var out []Nerve
	nodes := net.g.To(id)
	for nodes.Next() {
		out = append(out, net.nerveByID[nodes.Node().ID()])
	}
	return out
}

// Downlink returns every nerve with a direct edge out of n.
func (net *NerveNet) Downlink(n Nerve) []Nerve {
	id, ok := net.idByNerve[n]
	if !ok {
		return nil
	}
	var out []Nerve
	nodes := net.g.From(id)
	for nodes.Next() {
		out = append(out, net.nerveByID[nodes.Node().ID()])
	}
	return out
}

// TerminalNerves returns the organism's declared terminal nerve set.
func (net *NerveNet) TerminalNerves() []Nerve {
	out := make([]Nerve, 0, len(net.terminalNerve))
	for n := range net.terminalNerve {
		out = append(out, n)
	}
	return out
}

// Organism is a complete test anatomy: a vessel net and a nerve net.
type Organism struct {
	vessels *VesselNet
	nerves  *NerveNet
}

// New returns an Organism with empty vessel and nerve graphs.
func New(maxCycle int) *Organism {
	return &Organism{vessels: NewVesselNet(maxCycle), nerves: NewNerveNet()}
}

// Vessels returns the vessel graph.
func (o *Organism) Vessels() *VesselNet { return o.vessels }

// Nerves returns the nerve graph.
func (o *Organism) Nerves() *NerveNet { return o.nerves }
