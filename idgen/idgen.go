// Package idgen issues and recycles the small integer handles ("Id") used
// throughout the simulation kernel to name scheduled events, transformers,
// substance changes, and nerve signals.
//
// An Allocator is not safe for concurrent use by itself; each owning
// package guards its own Allocator with a mutex (single-threaded mode) or
// relies on the owning layer's coarser lock (parallel mode), matching the
// "one mutex per store" discipline the rest of the kernel uses.
package idgen

import "github.com/mortalsim/mortalsim/kernelerr"

// Id is an opaque handle, unique within the lifetime of the Allocator that
// issued it. Zero is never issued and is safe to use as a "no id" sentinel.
type Id uint64

// Allocator issues monotonically-rising ids, recycling freed ones ahead of
// the counter so long-running simulations with heavy schedule/unschedule
// churn don't grow the id space unboundedly.
type Allocator struct {
	next   Id
	free   []Id
	issued map[Id]bool // tracks live ids so Free can reject unknown ids
}

// New returns an empty Allocator. The first issued id is 1.
func New() *Allocator {
	return &Allocator{next: 1, issued: make(map[Id]bool)}
}

// Next issues a fresh id, preferring a recycled one from the free list.
func (a *Allocator) Next() Id {
	var id Id
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = a.next
		a.next++
	}
	a.issued[id] = true
	return id
}

// Free returns id to the pool for reissue. Freeing an id that was never
// issued, or that has already been freed, is an InvalidId error.
func (a *Allocator) Free(id Id) error {
	if !a.issued[id] {
		return kernelerr.New(kernelerr.InvalidId, "idgen.Free")
	}
	delete(a.issued, id)
	a.free = append(a.free, id)
	return nil
}

// Live reports whether id is currently issued (not freed).
func (a *Allocator) Live(id Id) bool {
	return a.issued[id]
}

// Count returns the number of currently live (issued, not freed) ids.
func (a *Allocator) Count() int {
	return len(a.issued)
}
