package idgen

import "testing"

func TestAllocatorIssuesMonotonically(t *testing.T) {
	a := New()
	first := a.Next()
	second := a.Next()
	if first == second {
		t.Fatalf("expected distinct ids, got %d twice", first)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected 1 then 2, got %d then %d", first, second)
	}
}

func TestAllocatorRecyclesFreedIds(t *testing.T) {
	a := New()
	id := a.Next()
	if err := a.Free(id); err != nil {
		t.Fatalf("Free returned error: %v", err)
	}
	next := a.Next()
	if next != id {
		t.Fatalf("expected recycled id %d, got %d", id, next)
	}
}

func TestFreeUnknownIdErrors(t *testing.T) {
	a := New()
	if err := a.Free(Id(999)); err == nil {
		t.Fatal("expected error freeing an id never issued")
	}
}

func TestFreeTwiceErrors(t *testing.T) {
	a := New()
	id := a.Next()
	if err := a.Free(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Free(id); err == nil {
		t.Fatal("expected error double-freeing an id")
	}
}

func TestLiveAndCount(t *testing.T) {
	a := New()
	id1 := a.Next()
	_ = a.Next()
	if !a.Live(id1) {
		t.Fatal("expected id1 to be live")
	}
	if a.Count() != 2 {
		t.Fatalf("expected count 2, got %d", a.Count())
	}
	a.Free(id1)
	if a.Live(id1) {
		t.Fatal("expected id1 to no longer be live after Free")
	}
	if a.Count() != 1 {
		t.Fatalf("expected count 1 after free, got %d", a.Count())
	}
}
