// Package circulation implements the Circulation Layer (spec.md §4.6):
// one Substance Store per vessel, owned at rest, attached exclusively
// into a component's connector for the duration of its run, with
// notification driven by any-change, per-vessel-change, or
// concentration-threshold triggers.
//
// The vessel type V is left generic and comparable — spec.md §1 keeps
// concrete organism anatomies (the actual blood-vessel graph) out of the
// kernel's scope, so the Layer only needs V to be usable as a map key.
package circulation

import (
	"sync"

	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/kernelobs"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/substance"
)

// Capable is the capability interface a component implements to
// participate in the Circulation Layer.
type Capable[V comparable] interface {
	component.Component
	CirculationInit(init *Initializer[V])
	CirculationConnector() *Connector[V]
}

type thresholdKey[V comparable] struct {
	vessel    V
	substance substance.Substance
}

// Layer owns one Substance Store per vessel and coordinates attaching
// them to components.
type Layer[V comparable] struct {
	// mu guards the maps below for NewThreaded drivers, where independent
	// components' prepare/process calls may run on separate goroutines
	// (spec.md §5's "each vessel's Substance Store is held behind a single
	// mutex" — here escalated one level, to the layer's own bookkeeping,
	// since the stores themselves move wholesale between layer and
	// connector rather than staying put behind per-store locks).
	mu          sync.Mutex
	molarVolume substance.MolarVolumeFunc
	observer    kernelobs.Observer
	stores      map[V]*substance.Store

	settings   map[string]*Initializer[V]
	baselines  map[string]map[thresholdKey[V]]float64
	connectors map[string]*Connector[V]
}

// New returns an empty Circulation Layer. molarVolume may be nil. A nil
// observer attaches kernelobs.Noop{} to every vessel store, matching
// substance.Store's own default.
func New[V comparable](molarVolume substance.MolarVolumeFunc, observer kernelobs.Observer) *Layer[V] {
	if observer == nil {
		observer = kernelobs.Noop{}
	}
	return &Layer[V]{
		molarVolume: molarVolume,
		observer:    observer,
		stores:      make(map[V]*substance.Store),
		settings:    make(map[string]*Initializer[V]),
		baselines:   make(map[string]map[thresholdKey[V]]float64),
		connectors:  make(map[string]*Connector[V]),
	}
}

// EnsureVessel returns the store for v, creating and tracking it if this
// is the first reference to v.
func (l *Layer[V]) EnsureVessel(v V) *substance.Store {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureVesselLocked(v)
}

func (l *Layer[V]) ensureVesselLocked(v V) *substance.Store {
	s, ok := l.stores[v]
	if !ok {
		s = substance.New(l.molarVolume)
		s.SetObserver(l.observer)
		s.EnableTracking()
		l.stores[v] = s
	}
	return s
}

// Store returns the store owned for vessel v, if any.
func (l *Layer[V]) Store(v V) (*substance.Store, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.stores[v]
	return s, ok
}

// Setup runs comp's CirculationInit and records its attachment/notify
// declarations.
func (l *Layer[V]) Setup(comp Capable[V]) {
	init := newInitializer[V]()
	comp.CirculationInit(init)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.settings[comp.ID()] = init
	l.baselines[comp.ID()] = make(map[thresholdKey[V]]float64)

	for _, decl := range init.thresholds {
		s := l.ensureVesselLocked(decl.vessel)
		l.baselines[comp.ID()][thresholdKey[V]{decl.vessel, decl.substance}] = s.ConcentrationOf(decl.substance)
	}
	for v := range init.vessels {
		l.ensureVesselLocked(v)
	}

	l.connectors[comp.ID()] = newConnector[V]()
}

// Remove forgets comp's registration.
func (l *Layer[V]) Remove(comp Capable[V]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.settings, comp.ID())
	delete(l.baselines, comp.ID())
	delete(l.connectors, comp.ID())
}

// PreExec advances every owned store to now.
func (l *Layer[V]) PreExec(now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.stores {
		s.Advance(now)
	}
}

// Check implements spec.md §4.6's three-way fire condition.
func (l *Layer[V]) Check(comp Capable[V]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	init := l.settings[comp.ID()]
	if init == nil {
		return false
	}

	if init.notifyAnyChange {
		for _, s := range l.stores {
			if s.HasNewChanges() {
				return true
			}
		}
	}

	for v := range init.vessels {
		if s, ok := l.stores[v]; ok && s.HasNewChanges() {
			return true
		}
	}

	fired := false
	baselines := l.baselines[comp.ID()]
	for _, decl := range init.thresholds {
		s, ok := l.stores[decl.vessel]
		if !ok {
			continue
		}
		key := thresholdKey[V]{decl.vessel, decl.substance}
		current := s.ConcentrationOf(decl.substance)
		baseline := baselines[key]
		delta := current - baseline
		if delta < 0 {
			delta = -delta
		}
		if delta >= decl.threshold {
			baselines[key] = current
			fired = true
		}
	}
	return fired
}

// Prepare moves the requested vessels' stores exclusively into comp's
// connector: every owned store if attachAll was declared, otherwise just
// the declared subset.
func (l *Layer[V]) Prepare(comp Capable[V], now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	init := l.settings[comp.ID()]
	conn := l.connectors[comp.ID()]
	conn.Now = now
	conn.Stores = make(map[V]*substance.Store)

	if init.attachAll {
		for v, s := range l.stores {
			conn.Stores[v] = s
			delete(l.stores, v)
		}
		return
	}
	for v := range init.vessels {
		if s, ok := l.stores[v]; ok {
			conn.Stores[v] = s
			delete(l.stores, v)
		}
	}
}

// Process moves the connector's stores back into layer ownership.
func (l *Layer[V]) Process(comp Capable[V]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn := l.connectors[comp.ID()]
	for v, s := range conn.Stores {
		l.stores[v] = s
	}
	conn.Stores = make(map[V]*substance.Store)
}
