// Package core implements the Core Layer (spec.md §4.5): it owns the
// per-component notification registry, routes due events from the Time
// Queue to components, and writes non-transient events into the State
// Store at the end of each tick.
package core

import (
	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simstate"
	"github.com/mortalsim/mortalsim/timequeue"
)

// Capable is the capability interface a component implements to
// participate in the Core Layer.
type Capable interface {
	component.Component
	CoreInit(init *Initializer)
	CoreConnector() *Connector
}

// Layer is the Core Layer: it owns the canonical State Store, drains the
// Time Queue every tick, and fans due events out to subscribed
// components.
type Layer struct {
	queue *timequeue.Queue
	state *simstate.Store

	notifyTargets map[simevent.TypeTag][]string // event tag -> component ids
	connectors    map[string]*Connector

	activeEvents []simevent.Event  // this tick's active events, cleared at the end
	triggered    map[string]bool   // component ids triggered this tick
}

// New returns a Core Layer bound to queue and state, both shared with the
// Driver and other layers.
func New(queue *timequeue.Queue, state *simstate.Store) *Layer {
	return &Layer{
		queue:         queue,
		state:         state,
		notifyTargets: make(map[simevent.TypeTag][]string),
		connectors:    make(map[string]*Connector),
		triggered:     make(map[string]bool),
	}
}

// Setup runs comp's CoreInit, records its notification subscriptions, and
// writes any initial output events directly into State Store.
func (l *Layer) Setup(comp Capable) {
	init := newInitializer()
	comp.CoreInit(init)

	for tag := range init.notify {
		l.notifyTargets[tag] = append(l.notifyTargets[tag], comp.ID())
	}
	for _, e := range init.initial {
		if !e.Transient() {
			l.state.PutState(e)
		}
	}

	conn := newConnector()
	conn.state = l.state
	l.connectors[comp.ID()] = conn
}

// Remove forgets comp's connector and notification subscriptions.
func (l *Layer) Remove(comp Capable) {
	delete(l.connectors, comp.ID())
	for tag, ids := range l.notifyTargets {
		filtered := ids[:0]
		for _, id := range ids {
			if id != comp.ID() {
				filtered = append(filtered, id)
			}
		}
		l.notifyTargets[tag] = filtered
	}
}

// PreExec drains the Time Queue, resets per-tick bookkeeping, and records
// which components are triggered this tick.
func (l *Layer) PreExec() {
	l.activeEvents = nil
	l.triggered = make(map[string]bool)

	for _, group := range l.queue.Drain() {
		for _, e := range group.Events {
			l.activeEvents = append(l.activeEvents, e)
			for _, id := range l.notifyTargets[e.Tag()] {
				l.triggered[id] = true
			}
		}
	}
}

// Check reports whether comp was triggered by any event delivered this
// tick.
func (l *Layer) Check(comp Capable) bool {
	return l.triggered[comp.ID()]
}

// Prepare populates comp's connector with the current tick's time,
// trigger set, and active-event view.
func (l *Layer) Prepare(comp Capable) {
	conn := l.connectors[comp.ID()]
	conn.Now = l.queue.Now()
	conn.TriggerTags = make(map[simevent.TypeTag]bool)
	for tag, ids := range l.notifyTargets {
		for _, id := range ids {
			if id == comp.ID() {
				conn.TriggerTags[tag] = true
			}
		}
	}
	conn.ActiveEvents = l.activeEvents
}

// Process drains the pending schedules/unschedules/transformer changes
// comp's Run accumulated in its connector, applying them against the real
// Time Queue and updating the local<->global id translation tables.
func (l *Layer) Process(comp Capable) {
	conn := l.connectors[comp.ID()]
	conn.mu.Lock()
	defer conn.mu.Unlock()

	for _, req := range conn.pendingSchedule {
		globalID := l.queue.Schedule(req.delay, req.event)
		conn.localToGlobal[req.localID] = globalID
	}
	conn.pendingSchedule = nil

	for _, localID := range conn.pendingUnschedule {
		if globalID, ok := conn.localToGlobal[localID]; ok {
			l.queue.Unschedule(globalID)
			delete(conn.localToGlobal, localID)
		}
	}
	conn.pendingUnschedule = nil

	for _, req := range conn.pendingTransformers {
		globalID := l.queue.InsertTransformer(req.tag, req.priority, req.fn)
		conn.transformerLocalToGlobal[req.localID] = globalID
	}
	conn.pendingTransformers = nil

	for _, localID := range conn.pendingUnsetTransformers {
		if globalID, ok := conn.transformerLocalToGlobal[localID]; ok {
			l.queue.UnsetTransform(globalID)
			delete(conn.transformerLocalToGlobal, localID)
		}
	}
	conn.pendingUnsetTransformers = nil
}

// PostExec writes every non-transient active event into State Store and
// drops transient ones.
func (l *Layer) PostExec() {
	for _, e := range l.activeEvents {
		if !e.Transient() {
			l.state.PutState(e)
		}
	}
}

// State exposes the canonical State Store for read access by other
// layers (e.g. a circulation component checking a non-substance event).
func (l *Layer) State() *simstate.Store { return l.state }
