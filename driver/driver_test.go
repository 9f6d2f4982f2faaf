package driver

import (
	"testing"

	"github.com/mortalsim/mortalsim/circulation"
	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/core"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/substance"
)

type testVessel string
type testNerve string

type pingEvent struct{ N int }

func (pingEvent) Tag() simevent.TypeTag { return "ping" }
func (pingEvent) Transient() bool       { return false }

type pingListener struct {
	component.Base
	conn *core.Connector
	runs int
}

func newPingListener(id string) *pingListener {
	return &pingListener{Base: component.NewBase(id)}
}
func (c *pingListener) CoreInit(init *core.Initializer) { init.Notify(pingEvent{}.Tag()) }
func (c *pingListener) CoreConnector() *core.Connector  { return c.conn }
func (c *pingListener) Run()                            { c.runs++ }

func TestDriverAddComponentWiresCoreCapability(t *testing.T) {
	d := New[testVessel, testNerve](Config{})
	comp := newPingListener("listener")
	d.AddComponent(comp)
	comp.conn = d.components[comp.ID()].core.CoreConnector()

	if !d.HasComponent("listener") {
		t.Fatal("expected listener to be registered")
	}

	d.ScheduleEvent(1, pingEvent{N: 1})
	d.AdvanceBy(1)

	if comp.runs != 1 {
		t.Fatalf("expected listener to run once, got %d", comp.runs)
	}
}

func TestDriverRemoveComponentStopsFutureRuns(t *testing.T) {
	d := New[testVessel, testNerve](Config{})
	comp := newPingListener("listener2")
	d.AddComponent(comp)
	comp.conn = d.components[comp.ID()].core.CoreConnector()

	if err := d.RemoveComponent("listener2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.HasComponent("listener2") {
		t.Fatal("expected listener2 to be gone")
	}

	d.ScheduleEvent(1, pingEvent{N: 1})
	d.AdvanceBy(1)

	if comp.runs != 0 {
		t.Fatalf("expected no runs after removal, got %d", comp.runs)
	}
}

func TestDriverAddComponentRejectsDuplicateID(t *testing.T) {
	d := New[testVessel, testNerve](Config{})
	if err := d.AddComponent(newPingListener("dup")); err != nil {
		t.Fatalf("unexpected error on first registration: %v", err)
	}

	err := d.AddComponent(newPingListener("dup"))
	if err == nil {
		t.Fatal("expected DuplicateRegistration error re-adding the same id")
	}
	if kerr, ok := err.(*kernelerr.Error); !ok || kerr.Kind != kernelerr.DuplicateRegistration {
		t.Fatalf("expected kernelerr.DuplicateRegistration, got %v", err)
	}
}

func TestDriverRemoveUnknownComponentFails(t *testing.T) {
	d := New[testVessel, testNerve](Config{})
	if err := d.RemoveComponent("nobody"); err == nil {
		t.Fatal("expected InvalidId removing an unregistered component")
	}
}

type circComponent struct {
	component.Base
	conn *circulation.Connector[testVessel]
	runs int
}

func newCircComponent(id string) *circComponent {
	return &circComponent{Base: component.NewBase(id)}
}
func (c *circComponent) CirculationInit(init *circulation.Initializer[testVessel]) {
	init.AttachVessel("aorta")
	init.NotifyAnyChange()
}
func (c *circComponent) CirculationConnector() *circulation.Connector[testVessel] { return c.conn }
func (c *circComponent) Run()                                                    { c.runs++ }

func TestDriverWiresCirculationCapability(t *testing.T) {
	d := New[testVessel, testNerve](Config{})
	comp := newCircComponent("blood")
	d.AddComponent(comp)
	comp.conn = d.components[comp.ID()].circulation.CirculationConnector()

	store := d.Circulation().EnsureVessel("aorta")
	if _, err := store.ScheduleChange("glucose", 1.0, 0, 1, substance.Linear); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.AdvanceBy(1)

	if comp.runs != 1 {
		t.Fatalf("expected circulation component to run once, got %d", comp.runs)
	}
}
