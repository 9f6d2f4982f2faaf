package driver

import (
	"sync"

	"github.com/mortalsim/mortalsim/simtime"
)

// Advance jumps to the earliest time pending in the Time Queue (the Time
// Queue's own Advance semantics; this includes the Nervous Layer's
// internal wake-up for its next signal, but not the start of a scheduled
// substance change) and runs one full tick.
func (d *Driver[V, N]) Advance() {
	d.AdvanceBy(0)
}

// AdvanceBy advances time by span (or to the next pending instant, if
// span is non-positive) and runs one full tick: spec.md §4.9's fixed
// pre_exec / check-prepare-run-process / post_exec sequence.
func (d *Driver[V, N]) AdvanceBy(span simtime.SimTimeSpan) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue.AdvanceBy(span)
	now := d.queue.Now()

	d.core.PreExec()
	d.circ.PreExec(now)
	d.digest.PreExec(now)
	d.nerve.PreExec(now)

	triggered := d.triggeredComponents(now)
	if d.threaded {
		d.runConcurrently(triggered, now)
	} else {
		for _, reg := range triggered {
			d.runOne(reg, now)
		}
	}

	d.core.PostExec()
	d.nerve.PostExec()
}

// triggeredComponents returns every registration whose owning layer(s)
// fire Check this tick. The order follows map iteration and is not stable
// from one tick to the next.
func (d *Driver[V, N]) triggeredComponents(now simtime.SimTime) []*registration[V, N] {
	var out []*registration[V, N]
	for _, reg := range d.components {
		if d.checkAny(reg) {
			out = append(out, reg)
		}
	}
	return out
}

func (d *Driver[V, N]) checkAny(reg *registration[V, N]) bool {
	if reg.core != nil && d.core.Check(reg.core) {
		return true
	}
	if reg.circulation != nil && d.circ.Check(reg.circulation) {
		return true
	}
	if reg.digestion != nil && d.digest.Check(reg.digestion) {
		return true
	}
	if reg.nervous != nil && d.nerve.Check(reg.nervous) {
		return true
	}
	return false
}

// runOne performs prepare -> run -> process for reg against every layer
// it is owned by, in the layer traversal order spec.md §4.9 fixes for
// single-threaded mode.
func (d *Driver[V, N]) runOne(reg *registration[V, N], now simtime.SimTime) {
	if reg.core != nil {
		d.core.Prepare(reg.core)
	}
	if reg.circulation != nil {
		d.circ.Prepare(reg.circulation, now)
	}
	if reg.digestion != nil {
		d.digest.Prepare(reg.digestion, now)
	}
	if reg.nervous != nil {
		d.nerve.Prepare(reg.nervous, now)
	}

	reg.comp.Run()

	if reg.core != nil {
		d.core.Process(reg.core)
	}
	if reg.circulation != nil {
		d.circ.Process(reg.circulation)
	}
	if reg.digestion != nil {
		d.digest.Process(reg.digestion, now)
	}
	if reg.nervous != nil {
		d.nerve.Process(reg.nervous, now)
	}
}

// runConcurrently runs every triggered component's prepare/run/process on
// its own goroutine (spec.md §5 Parallel mode). The Circulation, Digestion
// and Nervous layers keep their shared bookkeeping behind their own mutex
// and the Core Layer locks each connector in Process, so the only additional
// requirement — non-overlapping vessel attachments between concurrently
// scheduled components — is the caller's responsibility to arrange; this
// driver does not itself detect or serialise overlapping attachments.
func (d *Driver[V, N]) runConcurrently(regs []*registration[V, N], now simtime.SimTime) {
	var wg sync.WaitGroup
	wg.Add(len(regs))
	for _, reg := range regs {
		reg := reg
		go func() {
			defer wg.Done()
			d.runOne(reg, now)
		}()
	}
	wg.Wait()
}
