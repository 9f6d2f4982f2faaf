package core

import (
	"testing"

	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simstate"
	"github.com/mortalsim/mortalsim/timequeue"
)

type pingEvent struct{ N int }

func (pingEvent) Tag() simevent.TypeTag { return "ping" }
func (pingEvent) Transient() bool       { return false }

type transientPingEvent struct{}

func (transientPingEvent) Tag() simevent.TypeTag { return "ping.transient" }
func (transientPingEvent) Transient() bool       { return true }

type recordingComponent struct {
	id   string
	conn *Connector
	runs int
	seen []simevent.Event
}

func newRecordingComponent(id string) *recordingComponent {
	return &recordingComponent{id: id}
}

func (c *recordingComponent) ID() string { return c.id }
func (c *recordingComponent) CoreInit(init *Initializer) {
	init.Notify(pingEvent{}.Tag())
}
func (c *recordingComponent) CoreConnector() *Connector { return c.conn }
func (c *recordingComponent) Run() {
	c.runs++
	c.seen = append(c.seen, c.conn.ActiveEvents...)
}

func TestCoreLayerDispatchesNotifiedEvents(t *testing.T) {
	q := timequeue.New()
	s := simstate.New()
	layer := New(q, s)

	comp := newRecordingComponent("watcher")
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	q.Schedule(1, pingEvent{N: 7})
	q.AdvanceBy(1)

	layer.PreExec()
	if !layer.Check(comp) {
		t.Fatal("expected component to be triggered by ping event")
	}
	layer.Prepare(comp)
	comp.Run()
	layer.Process(comp)
	layer.PostExec()

	if comp.runs != 1 {
		t.Fatalf("expected 1 run, got %d", comp.runs)
	}
	if len(comp.seen) != 1 || comp.seen[0].(pingEvent).N != 7 {
		t.Fatalf("expected to observe ping{N:7}, got %+v", comp.seen)
	}

	stored, ok := s.GetState(pingEvent{}.Tag())
	if !ok || stored.(pingEvent).N != 7 {
		t.Fatalf("expected non-transient event stored in State, got %+v ok=%v", stored, ok)
	}
}

func TestCoreLayerTransientEventsNeverStored(t *testing.T) {
	q := timequeue.New()
	s := simstate.New()
	layer := New(q, s)

	comp := newRecordingComponent("watcher2")
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	q.Schedule(1, transientPingEvent{})
	q.AdvanceBy(1)

	layer.PreExec()
	layer.PostExec()

	if _, ok := s.GetState(transientPingEvent{}.Tag()); ok {
		t.Fatal("expected transient event to never be stored in State")
	}
}

func TestCoreLayerCheckFalseWithoutMatchingEvent(t *testing.T) {
	q := timequeue.New()
	s := simstate.New()
	layer := New(q, s)

	comp := newRecordingComponent("watcher3")
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	layer.PreExec()
	if layer.Check(comp) {
		t.Fatal("expected component not to be triggered when nothing was delivered")
	}
}

type schedulingComponent struct {
	id       string
	conn     *Connector
	localID  uint64
	toCancel bool
}

func (c *schedulingComponent) ID() string                    { return c.id }
func (c *schedulingComponent) CoreInit(init *Initializer)    {}
func (c *schedulingComponent) CoreConnector() *Connector      { return c.conn }
func (c *schedulingComponent) Run() {
	id := c.conn.ScheduleEvent(5, pingEvent{N: 42})
	c.localID = uint64(id)
}

func TestConnectorLocalIdTranslatesToQueueSchedule(t *testing.T) {
	q := timequeue.New()
	s := simstate.New()
	layer := New(q, s)

	comp := &schedulingComponent{id: "scheduler"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	layer.PreExec()
	layer.Prepare(comp)
	comp.Run()
	layer.Process(comp)
	layer.PostExec()

	q.AdvanceBy(5)
	groups := q.Drain()
	if len(groups) != 1 || len(groups[0].Events) != 1 {
		t.Fatalf("expected the component's scheduled event to reach the queue, got %+v", groups)
	}
}
