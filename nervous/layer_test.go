package nervous

import (
	"testing"

	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/timequeue"
)

type nerve string

const (
	brain      nerve = "brain"
	spinalCord nerve = "spinal_cord"
)

type painEvent struct{ Intensity float64 }

func (painEvent) Tag() simevent.TypeTag { return "pain" }
func (painEvent) Transient() bool       { return true }

type receiver struct {
	id   string
	conn *Connector[nerve]
	seen []*NerveSignal[nerve]
}

func (r *receiver) ID() string { return r.id }
func (r *receiver) NervousInit(init *Initializer[nerve]) {
	init.Subscribe(spinalCord, painEvent{}.Tag())
}
func (r *receiver) NervousConnector() *Connector[nerve] { return r.conn }
func (r *receiver) Run() {
	r.seen = append(r.seen, r.conn.Incoming[painEvent{}.Tag()]...)
}

func TestNervousDeliversSurvivingSignalToSubscriber(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)

	comp := &receiver{id: "cord-watcher"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	if _, err := layer.ScheduleSignal([]nerve{brain, spinalCord}, painEvent{Intensity: 5}, 1.0, painEvent{}.Tag()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layer.PreExec(1.0)
	if !layer.Check(comp) {
		t.Fatal("expected subscriber to be triggered by the delivered signal")
	}
	layer.Prepare(comp, 1.0)
	comp.Run()
	layer.Process(comp, 1.0)
	layer.PostExec()

	if len(comp.seen) != 1 || comp.seen[0].Message.(painEvent).Intensity != 5 {
		t.Fatalf("expected to observe the pain signal, got %+v", comp.seen)
	}
}

func TestNervousTransformerCancelsSignalBeforeDelivery(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)

	comp := &receiver{id: "cord-watcher2"}
	layer.Setup(comp)
	comp.conn = layer.connectors[comp.ID()]

	layer.RegisterTransformer(spinalCord, painEvent{}.Tag(), func(simevent.Event) (simevent.Event, bool) {
		return nil, false
	})

	if _, err := layer.ScheduleSignal([]nerve{brain, spinalCord}, painEvent{Intensity: 5}, 1.0, painEvent{}.Tag()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layer.PreExec(1.0)
	if layer.Check(comp) {
		t.Fatal("expected the cancelling transformer to prevent delivery")
	}
}

func TestNervousScheduleRejectsEmptyPath(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)

	if _, err := layer.ScheduleSignal(nil, painEvent{}, 1.0, painEvent{}.Tag()); err == nil {
		t.Fatal("expected InvalidTopology for an empty path")
	}
}

func TestNervousScheduleRejectsPastSendTime(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)
	layer.PreExec(5.0)

	if _, err := layer.ScheduleSignal([]nerve{brain}, painEvent{}, 5.0, painEvent{}.Tag()); err == nil {
		t.Fatal("expected InvalidTime for send_time <= now")
	}
}

func TestNervousPostExecSchedulesInternalWakeup(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)

	if _, err := layer.ScheduleSignal([]nerve{brain}, painEvent{}, 3.0, painEvent{}.Tag()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layer.PreExec(0)
	layer.PostExec()

	earliest, ok := q.Pending()
	if !ok || earliest != 3.0 {
		t.Fatalf("expected an internal wakeup scheduled at t=3.0, got %v ok=%v", earliest, ok)
	}
}

func TestNervousUnscheduleRemovesPendingSignal(t *testing.T) {
	q := timequeue.New()
	layer := New[nerve](q)

	id, err := layer.ScheduleSignal([]nerve{brain}, painEvent{}, 2.0, painEvent{}.Tag())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := layer.UnscheduleSignal(id); !ok {
		t.Fatal("expected unschedule to find the pending signal")
	}
	if _, ok := layer.UnscheduleSignal(id); ok {
		t.Fatal("expected a second unschedule of the same id to fail")
	}
}
