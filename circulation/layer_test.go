package circulation

import (
	"testing"

	"github.com/mortalsim/mortalsim/substance"
)

type vessel string

const (
	vesselAorta vessel = "aorta"
	vesselVena  vessel = "vena_cava"
)

type attachAllComponent struct {
	id   string
	conn *Connector[vessel]
	runs int
}

func (c *attachAllComponent) ID() string { return c.id }
func (c *attachAllComponent) CirculationInit(init *Initializer[vessel]) {
	init.AttachAll()
	init.NotifyAnyChange()
}
func (c *attachAllComponent) CirculationConnector() *Connector[vessel] { return c.conn }
func (c *attachAllComponent) Run()                                     { c.runs++ }

func TestCirculationAttachAllMovesEverySTore(t *testing.T) {
	layer := New[vessel](nil, nil)
	layer.EnsureVessel(vesselAorta)
	layer.EnsureVessel(vesselVena)

	comp := &attachAllComponent{id: "watcher"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	layer.Prepare(comp, 0)
	if len(comp.conn.Stores) != 2 {
		t.Fatalf("expected both vessels moved into connector, got %d", len(comp.conn.Stores))
	}
	if len(layer.stores) != 0 {
		t.Fatalf("expected layer to hold no stores while attached, got %d", len(layer.stores))
	}

	layer.Process(comp)
	if len(layer.stores) != 2 {
		t.Fatalf("expected stores returned to layer, got %d", len(layer.stores))
	}
}

type specificVesselComponent struct {
	id   string
	conn *Connector[vessel]
}

func (c *specificVesselComponent) ID() string { return c.id }
func (c *specificVesselComponent) CirculationInit(init *Initializer[vessel]) {
	init.AttachVessel(vesselAorta)
}
func (c *specificVesselComponent) CirculationConnector() *Connector[vessel] { return c.conn }
func (c *specificVesselComponent) Run()                                     {}

func TestCirculationAttachSpecificVesselOnlyMovesThatOne(t *testing.T) {
	layer := New[vessel](nil, nil)
	layer.EnsureVessel(vesselAorta)
	layer.EnsureVessel(vesselVena)

	comp := &specificVesselComponent{id: "aorta-watcher"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	layer.Prepare(comp, 0)
	if len(comp.conn.Stores) != 1 {
		t.Fatalf("expected exactly 1 vessel attached, got %d", len(comp.conn.Stores))
	}
	if _, ok := comp.conn.Stores[vesselAorta]; !ok {
		t.Fatal("expected aorta store to be attached")
	}
	if len(layer.stores) != 1 {
		t.Fatalf("expected vena_cava to remain with the layer, got %d", len(layer.stores))
	}
}

func TestCirculationNotifyAnyChangeFiresOnNewChange(t *testing.T) {
	layer := New[vessel](nil, nil)
	s := layer.EnsureVessel(vesselAorta)

	comp := &attachAllComponent{id: "watcher2"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	if layer.Check(comp) {
		t.Fatal("expected no trigger before any change")
	}

	if _, err := s.ScheduleChange("glucose", 1.0, 0, 1, substance.Linear); err != nil {
		t.Fatalf("unexpected error scheduling change: %v", err)
	}
	s.Advance(1)

	if !layer.Check(comp) {
		t.Fatal("expected notify_any_change to fire after a new change landed")
	}
}

type thresholdComponent struct {
	id   string
	conn *Connector[vessel]
}

func (c *thresholdComponent) ID() string { return c.id }
func (c *thresholdComponent) CirculationInit(init *Initializer[vessel]) {
	init.NotifyThreshold(vesselAorta, "glucose", 0.5)
}
func (c *thresholdComponent) CirculationConnector() *Connector[vessel] { return c.conn }
func (c *thresholdComponent) Run()                                     {}

func TestCirculationThresholdFiresOnlyPastDelta(t *testing.T) {
	layer := New[vessel](nil, nil)
	s := layer.EnsureVessel(vesselAorta)

	comp := &thresholdComponent{id: "glucose-watcher"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	if err := s.SetConcentration("glucose", 0.2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layer.Check(comp) {
		t.Fatal("expected no fire: delta 0.2 is below the 0.5 threshold")
	}

	if err := s.SetConcentration("glucose", 0.8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !layer.Check(comp) {
		t.Fatal("expected fire: delta 0.8 from the unchanged 0.0 baseline crosses the 0.5 threshold")
	}

	if layer.Check(comp) {
		t.Fatal("expected baseline to have moved after firing, so repeat check should not fire again")
	}
}
