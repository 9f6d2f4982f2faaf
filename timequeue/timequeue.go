// Package timequeue implements the simulation kernel's central event
// heap: a mapping from SimTime to the events due at that instant, plus a
// per-event-type transformer registry that mutates events in place just
// before they are delivered.
//
// The underlying scheduling structure follows the same shape as the
// teacher's neuron.SignalScheduler (container/heap over a time-ordered
// slice, guarded by a mutex, with atomic delivery counters) generalized
// from a single neuron's outgoing axon queue to the kernel-wide event
// queue described in spec.md §4.2.
package timequeue

import (
	"container/heap"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simtime"
)

// TransformFunc mutates an event in place immediately before delivery. A
// transform func must not retain e beyond the call; the kernel guarantees
// a unique reference exists at transform time.
type TransformFunc func(e simevent.Event)

// transformer is a registered (id, type-tag, priority, fn) entry. Lower
// Priority numbers run earlier ("higher priority first", per spec.md
// §4.2); ties are broken by registration order (seq), earliest first.
type transformer struct {
	id       idgen.Id
	tag      simevent.TypeTag
	priority int
	fn       TransformFunc
	seq      uint64
}

// heapEntry is one (exec time, id, event) tuple pending delivery.
type heapEntry struct {
	time  simtime.SimTime
	id    idgen.Id
	event simevent.Event
	seq   uint64 // insertion sequence, used for the LIFO tie-break within a timestamp
	index int    // heap.Interface bookkeeping
}

// entryHeap is a min-heap over heapEntry ordered by time, then by seq
// descending (later-inserted entries pop first at an identical time —
// this is what realizes the LIFO-within-timestep delivery order spec.md
// §4.2 mandates).
type entryHeap []*heapEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq > h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x interface{}) {
	e := x.(*heapEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimeGroup is one batch of events delivered at a single instant, already
// transformed and in LIFO delivery order.
type TimeGroup struct {
	Time   simtime.SimTime
	Events []simevent.Event
}

// Queue is the kernel's time-ordered event heap plus transformer registry.
// Single-threaded callers may use it lock-free (the mutex is uncontended);
// parallel-mode drivers share one Queue behind its own mutex per spec.md §5.
type Queue struct {
	mu  sync.Mutex
	now simtime.SimTime

	entries  entryHeap
	byId     map[idgen.Id]*heapEntry
	eventIds *idgen.Allocator
	seq      uint64

	transformers   map[simevent.TypeTag][]*transformer
	transformerIdx map[idgen.Id]simevent.TypeTag
	transformerIds *idgen.Allocator

	// totalScheduled/totalDelivered mirror the teacher's SignalScheduler
	// stats for monitoring; kept atomic so health-reporting code can read
	// them without taking the queue's mutex.
	totalScheduled int64
	totalDelivered int64
}

// New returns an empty Queue with now = simtime.Zero.
func New() *Queue {
	q := &Queue{
		byId:           make(map[idgen.Id]*heapEntry),
		eventIds:       idgen.New(),
		transformers:   make(map[simevent.TypeTag][]*transformer),
		transformerIdx: make(map[idgen.Id]simevent.TypeTag),
		transformerIds: idgen.New(),
	}
	heap.Init(&q.entries)
	return q
}

// Now returns the queue's current simulated time.
func (q *Queue) Now() simtime.SimTime {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.now
}

// Schedule registers event for delivery at now+delay and returns an id
// that can later be passed to Unschedule for O(1) cancellation.
func (q *Queue) Schedule(delay simtime.SimTimeSpan, event simevent.Event) idgen.Id {
	q.mu.Lock()
	defer q.mu.Unlock()

	execTime := q.now.Add(delay)
	id := q.eventIds.Next()
	q.seq++
	entry := &heapEntry{time: execTime, id: id, event: event, seq: q.seq}
	heap.Push(&q.entries, entry)
	q.byId[id] = entry
	atomic.AddInt64(&q.totalScheduled, 1)
	return id
}

// Unschedule cancels a previously scheduled event. It fails with
// kernelerr.InvalidId if id is unknown (already delivered or never
// issued).
func (q *Queue) Unschedule(id idgen.Id) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.byId[id]
	if !ok {
		return kernelerr.New(kernelerr.InvalidId, "timequeue.Unschedule")
	}
	heap.Remove(&q.entries, entry.index)
	delete(q.byId, id)
	q.eventIds.Free(id)
	return nil
}

// Advance sets now to the earliest pending event time. It is a no-op if
// the queue is empty. now never moves backward.
func (q *Queue) Advance() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return
	}
	earliest := q.entries[0].time
	if earliest > q.now {
		q.now = earliest
	}
}

// AdvanceBy advances now by span. A non-positive span is equivalent to
// Advance().
func (q *Queue) AdvanceBy(span simtime.SimTimeSpan) {
	if span <= 0 {
		q.Advance()
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = q.now.Add(span)
}

// Drain removes and returns every time group with Time <= now, in
// ascending time order, each group's events already transformed and in
// LIFO (last-scheduled-fires-first) delivery order. It is the mechanism
// behind spec.md §4.2's next_events(): the Core Layer calls Drain once per
// tick to pull everything due.
func (q *Queue) Drain() []TimeGroup {
	q.mu.Lock()

	byTime := make(map[simtime.SimTime][]*heapEntry)
	var times []simtime.SimTime
	for len(q.entries) > 0 && q.entries[0].time <= q.now {
		entry := heap.Pop(&q.entries).(*heapEntry)
		delete(q.byId, entry.id)
		q.eventIds.Free(entry.id)
		if _, seen := byTime[entry.time]; !seen {
			times = append(times, entry.time)
		}
		byTime[entry.time] = append(byTime[entry.time], entry)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	// Snapshot the transformer registry under lock, then run transform
	// functions outside the lock so a transformer calling back into the
	// queue (e.g. to schedule a follow-up event) cannot deadlock.
	transformersByTag := make(map[simevent.TypeTag][]*transformer, len(q.transformers))
	for tag, list := range q.transformers {
		cp := make([]*transformer, len(list))
		copy(cp, list)
		transformersByTag[tag] = cp
	}
	q.mu.Unlock()

	groups := make([]TimeGroup, 0, len(times))
	for _, t := range times {
		entries := byTime[t]
		// Within one timestamp, Less ranks the largest seq as smallest,
		// so heap.Pop yields the most-recently-scheduled entry first:
		// exactly the LIFO order spec.md §4.2 requires. No re-sort needed.
		events := make([]simevent.Event, 0, len(entries))
		for _, entry := range entries {
			applyTransformers(transformersByTag[entry.event.Tag()], entry.event)
			events = append(events, entry.event)
		}
		atomic.AddInt64(&q.totalDelivered, int64(len(events)))
		groups = append(groups, TimeGroup{Time: t, Events: events})
	}
	return groups
}

// applyTransformers runs every transformer registered for the event's
// type tag, in descending priority (ties broken by registration order),
// mutating event in place.
func applyTransformers(list []*transformer, event simevent.Event) {
	for _, tr := range list {
		tr.fn(event)
	}
}

// InsertTransformer registers fn against tag with the given priority.
// Lower priority numbers run earlier; among equal priorities, the
// earlier-registered transformer runs first. Returns an id usable with
// UnsetTransform.
func (q *Queue) InsertTransformer(tag simevent.TypeTag, priority int, fn TransformFunc) idgen.Id {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.transformerIds.Next()
	q.seq++
	tr := &transformer{id: id, tag: tag, priority: priority, fn: fn, seq: q.seq}
	list := q.transformers[tag]
	list = append(list, tr)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	q.transformers[tag] = list
	q.transformerIdx[id] = tag
	return id
}

// UnsetTransform removes a previously registered transformer. Fails with
// kernelerr.InvalidId if id is unknown.
func (q *Queue) UnsetTransform(id idgen.Id) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	tag, ok := q.transformerIdx[id]
	if !ok {
		return kernelerr.New(kernelerr.InvalidId, "timequeue.UnsetTransform")
	}
	list := q.transformers[tag]
	for i, tr := range list {
		if tr.id == id {
			q.transformers[tag] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(q.transformerIdx, id)
	q.transformerIds.Free(id)
	return nil
}

// Stats reports lifetime scheduling counters for monitoring/health code.
func (q *Queue) Stats() (scheduled, delivered int64) {
	return atomic.LoadInt64(&q.totalScheduled), atomic.LoadInt64(&q.totalDelivered)
}

// Pending reports whether any event remains scheduled, and if so the
// earliest pending time, without draining anything.
func (q *Queue) Pending() (earliest simtime.SimTime, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return 0, false
	}
	return q.entries[0].time, true
}
