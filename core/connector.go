package core

import (
	"sync"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simstate"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/timequeue"
)

type scheduleRequest struct {
	localID idgen.Id
	delay   simtime.SimTimeSpan
	event   simevent.Event
}

type transformerRequest struct {
	localID idgen.Id
	tag     simevent.TypeTag
	priority int
	fn       timequeue.TransformFunc
}

// Connector is the per-component scratch pad for the Core Layer
// (spec.md §3's CoreConnector). It is owned by the Core Layer at rest and
// lives for the component's entire registration, persisting its local
// id<->queue-id translation table across ticks so a component can refer
// to "my event #3" by a stable local id even though the real Time Queue
// id space is shared kernel-wide.
type Connector struct {
	mu sync.Mutex

	// --- populated by prepare(), read-only to the component during Run ---
	Now          simtime.SimTime
	TriggerTags  map[simevent.TypeTag]bool
	ActiveEvents []simevent.Event
	state        *simstate.Store

	// --- written by the component during Run, drained by process() ---
	localIds             *idgen.Allocator
	localToGlobal         map[idgen.Id]idgen.Id
	transformerLocalIds   *idgen.Allocator
	transformerLocalToGlobal map[idgen.Id]idgen.Id

	pendingSchedule           []scheduleRequest
	pendingUnschedule         []idgen.Id
	pendingTransformers       []transformerRequest
	pendingUnsetTransformers  []idgen.Id
}

func newConnector() *Connector {
	return &Connector{
		TriggerTags:              make(map[simevent.TypeTag]bool),
		localIds:                 idgen.New(),
		localToGlobal:            make(map[idgen.Id]idgen.Id),
		transformerLocalIds:      idgen.New(),
		transformerLocalToGlobal: make(map[idgen.Id]idgen.Id),
	}
}

// GetState returns the most recently stored event for tag from the
// canonical State Store, as of the start of this tick.
func (c *Connector) GetState(tag simevent.TypeTag) (simevent.Event, bool) {
	return c.state.GetState(tag)
}

// ScheduleEvent stages event for delivery after delay and immediately
// returns a local id the component can use this tick or any later tick to
// Unschedule it, without knowing the real Time Queue id.
func (c *Connector) ScheduleEvent(delay simtime.SimTimeSpan, event simevent.Event) idgen.Id {
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.localIds.Next()
	c.pendingSchedule = append(c.pendingSchedule, scheduleRequest{localID: local, delay: delay, event: event})
	return local
}

// UnscheduleEvent stages a cancellation of a previously scheduled event,
// referenced by the local id ScheduleEvent returned. It fails with
// InvalidId if localID is unrecognized (never scheduled, or already
// unscheduled/delivered and reaped).
func (c *Connector) UnscheduleEvent(localID idgen.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, req := range c.pendingSchedule {
		if req.localID == localID {
			c.pendingSchedule = append(c.pendingSchedule[:i], c.pendingSchedule[i+1:]...)
			return nil
		}
	}
	if _, ok := c.localToGlobal[localID]; !ok {
		return kernelerr.New(kernelerr.InvalidId, "core.Connector.UnscheduleEvent")
	}
	c.pendingUnschedule = append(c.pendingUnschedule, localID)
	return nil
}

// RegisterTransformer stages a new Time Queue transformer and returns a
// local id for later UnsetTransformer calls.
func (c *Connector) RegisterTransformer(tag simevent.TypeTag, priority int, fn timequeue.TransformFunc) idgen.Id {
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.transformerLocalIds.Next()
	c.pendingTransformers = append(c.pendingTransformers, transformerRequest{localID: local, tag: tag, priority: priority, fn: fn})
	return local
}

// UnsetTransformer stages removal of a previously registered transformer.
func (c *Connector) UnsetTransformer(localID idgen.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.transformerLocalToGlobal[localID]; !ok {
		return kernelerr.New(kernelerr.InvalidId, "core.Connector.UnsetTransformer")
	}
	c.pendingUnsetTransformers = append(c.pendingUnsetTransformers, localID)
	return nil
}
