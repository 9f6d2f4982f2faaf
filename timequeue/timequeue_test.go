package timequeue

import (
	"testing"

	"github.com/mortalsim/mortalsim/simevent"
)

type lengthEvent struct {
	Length float64
}

func (lengthEvent) Tag() simevent.TypeTag { return "lengthEvent" }
func (lengthEvent) Transient() bool       { return false }

func TestScheduleUnscheduleRoundTrip(t *testing.T) {
	q := New()
	id := q.Schedule(5, lengthEvent{Length: 1})
	if err := q.Unschedule(id); err != nil {
		t.Fatalf("unschedule failed: %v", err)
	}
	q.AdvanceBy(10)
	groups := q.Drain()
	if len(groups) != 0 {
		t.Fatalf("expected no groups after unschedule, got %d", len(groups))
	}
}

func TestUnscheduleUnknownIdErrors(t *testing.T) {
	q := New()
	if err := q.Unschedule(999); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestAdvanceJumpsToEarliestPending(t *testing.T) {
	q := New()
	q.Schedule(10, lengthEvent{})
	q.Advance()
	if q.Now() != 10 {
		t.Fatalf("expected now=10, got %v", q.Now())
	}
	q.Advance() // no-op: the earliest pending event is at 10, which is not after now
	if q.Now() != 10 {
		t.Fatalf("expected now to stay at 10 when the earliest pending event is already due, got %v", q.Now())
	}
}

func TestAdvanceByZeroEqualsAdvance(t *testing.T) {
	q1, q2 := New(), New()
	q1.Schedule(3, lengthEvent{})
	q2.Schedule(3, lengthEvent{})

	q1.Advance()
	q2.AdvanceBy(0)

	if q1.Now() != q2.Now() {
		t.Fatalf("AdvanceBy(0) should equal Advance(): %v vs %v", q2.Now(), q1.Now())
	}
}

func TestDeliveryOrderIsLIFOWithinTimestamp(t *testing.T) {
	q := New()
	q.Schedule(1, lengthEvent{Length: 1})
	q.Schedule(1, lengthEvent{Length: 2})
	q.AdvanceBy(1)

	groups := q.Drain()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	events := groups[0].Events
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	first := events[0].(lengthEvent)
	second := events[1].(lengthEvent)
	if first.Length != 2 || second.Length != 1 {
		t.Fatalf("expected LIFO order [2,1], got [%v,%v]", first.Length, second.Length)
	}
}

func TestTransformerMutatesBeforeDelivery(t *testing.T) {
	q := New()
	tag := lengthEvent{}.Tag()
	q.InsertTransformer(tag, 0, func(e simevent.Event) {
		le := e.(*mutableLengthEvent)
		le.Length = 3
	})

	q.Schedule(1, &mutableLengthEvent{Length: 1})
	q.Schedule(1, &mutableLengthEvent{Length: 2})
	q.AdvanceBy(1)

	groups := q.Drain()
	for _, g := range groups {
		for _, e := range g.Events {
			if e.(*mutableLengthEvent).Length != 3 {
				t.Fatalf("expected transformed length 3, got %v", e.(*mutableLengthEvent).Length)
			}
		}
	}
}

type mutableLengthEvent struct {
	Length float64
}

func (*mutableLengthEvent) Tag() simevent.TypeTag { return "lengthEvent" }
func (*mutableLengthEvent) Transient() bool       { return false }

func TestTransformerPriorityOrder(t *testing.T) {
	q := New()
	tag := simevent.TypeTag("order")
	var order []int
	q.InsertTransformer(tag, 10, func(e simevent.Event) { order = append(order, 10) })
	q.InsertTransformer(tag, 0, func(e simevent.Event) { order = append(order, 0) })
	q.InsertTransformer(tag, 5, func(e simevent.Event) { order = append(order, 5) })

	q.Schedule(1, orderEvent{})
	q.AdvanceBy(1)
	q.Drain()

	want := []int{0, 5, 10}
	if len(order) != 3 {
		t.Fatalf("expected 3 transformer invocations, got %d", len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected priority order %v, got %v", want, order)
		}
	}
}

type orderEvent struct{}

func (orderEvent) Tag() simevent.TypeTag { return "order" }
func (orderEvent) Transient() bool       { return false }

func TestUnsetTransformRemovesIt(t *testing.T) {
	q := New()
	tag := simevent.TypeTag("order2")
	called := false
	id := q.InsertTransformer(tag, 0, func(e simevent.Event) { called = true })
	if err := q.UnsetTransform(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.Schedule(1, order2Event{})
	q.AdvanceBy(1)
	q.Drain()
	if called {
		t.Fatal("expected transformer not to run after UnsetTransform")
	}
}

type order2Event struct{}

func (order2Event) Tag() simevent.TypeTag { return "order2" }
func (order2Event) Transient() bool       { return false }

func TestUnsetUnknownTransformErrors(t *testing.T) {
	q := New()
	if err := q.UnsetTransform(12345); err == nil {
		t.Fatal("expected error for unknown transformer id")
	}
}
