package digestion

import (
	"sync"

	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/timequeue"
)

// Capable is the capability interface a component implements to occupy a
// stage in the Digestion Layer's pipeline.
type Capable interface {
	component.Component
	DigestionInit(init *Initializer)
	DigestionConnector() *Connector
}

// Layer is the Digestion Layer: an ordered pipeline of stages, each
// holding the Consumed items currently resident there (spec.md §4.7).
// Stage order is the order components were registered via Setup.
type Layer struct {
	// mu guards stageOrder/items for NewThreaded drivers: adjacent stages
	// may run concurrently and Process on one stage appends into the
	// next stage's resident slice.
	mu    sync.Mutex
	queue *timequeue.Queue

	stageOrder []string
	stageIndex map[string]int
	items      map[string][]*Consumed
	connectors map[string]*Connector
}

// New returns an empty Digestion Layer. queue is used to schedule the
// transient EliminateEvent a discharged item produces.
func New(queue *timequeue.Queue) *Layer {
	return &Layer{
		queue:      queue,
		stageIndex: make(map[string]int),
		items:      make(map[string][]*Consumed),
		connectors: make(map[string]*Connector),
	}
}

// Setup appends comp as the next pipeline stage and seeds it with any
// items declared during DigestionInit.
func (l *Layer) Setup(comp Capable) {
	init := newInitializer()
	comp.DigestionInit(init)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.stageIndex[comp.ID()] = len(l.stageOrder)
	l.stageOrder = append(l.stageOrder, comp.ID())
	l.items[comp.ID()] = append(l.items[comp.ID()], init.seeded...)
	l.connectors[comp.ID()] = newConnector()
}

// Remove forgets comp's stage registration. Any items still resident
// there are dropped; callers should drain a stage before removing it.
func (l *Layer) Remove(comp Capable) {
	l.mu.Lock()
	defer l.mu.Unlock()
	removedIdx, registered := l.stageIndex[comp.ID()]
	delete(l.items, comp.ID())
	delete(l.connectors, comp.ID())
	delete(l.stageIndex, comp.ID())
	if !registered {
		return
	}
	for idx, id := range l.stageOrder {
		if id == comp.ID() {
			l.stageOrder = append(l.stageOrder[:idx], l.stageOrder[idx+1:]...)
			break
		}
	}
	for id, idx := range l.stageIndex {
		if idx > removedIdx {
			l.stageIndex[id] = idx - 1
		}
	}
}

// PreExec applies pending volume changes and advances every resident
// item's Substance Store to now.
func (l *Layer) PreExec(now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, stage := range l.items {
		for _, c := range stage {
			c.Consumable.advanceVolume(now)
		}
	}
}

// Check reports whether comp's stage currently holds any item.
func (l *Layer) Check(comp Capable) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items[comp.ID()]) > 0
}

// Prepare populates comp's connector with the current tick's time and the
// items resident at its stage.
func (l *Layer) Prepare(comp Capable, now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()
	conn := l.connectors[comp.ID()]
	conn.Now = now
	conn.ActiveConsumed = l.items[comp.ID()]
}

// Process reconciles exits: any item whose exit time has been reached is
// detached from comp's stage, has its pending substance and volume
// changes unscheduled, and is routed to the next stage per its exit
// direction, or eliminated if Exhausted or the pipeline boundary is
// reached.
func (l *Layer) Process(comp Capable, now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stageID := comp.ID()
	idx := l.stageIndex[stageID]
	resident := l.items[stageID]

	var remaining []*Consumed
	for _, c := range resident {
		if !c.hasExited(now) {
			remaining = append(remaining, c)
			continue
		}

		c.Consumable.Store.UnscheduleAll()
		c.Consumable.UnscheduleAllVolumeChanges()

		nextIdx, eliminate := l.routeIndex(idx, c.ExitDirection)
		if eliminate {
			l.queue.Schedule(0, EliminateEvent{Consumable: c.Consumable, Direction: c.ExitDirection})
			continue
		}

		nextID := l.stageOrder[nextIdx]
		c.EntryTime = now
		c.EntryDirection = c.ExitDirection
		c.exitSet = false
		l.items[nextID] = append(l.items[nextID], c)
	}
	l.items[stageID] = remaining
}

// routeIndex resolves direction against idx's position in the pipeline,
// reporting whether the item instead falls off the pipeline entirely.
func (l *Layer) routeIndex(idx int, direction Direction) (next int, eliminate bool) {
	switch direction {
	case Forward:
		if idx+1 >= len(l.stageOrder) {
			return 0, true
		}
		return idx + 1, false
	case Back:
		if idx-1 < 0 {
			return 0, true
		}
		return idx - 1, false
	default: // Exhausted
		return 0, true
	}
}
