package nervous

import (
	"container/heap"
	"sync"

	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/timequeue"
)

// Capable is the capability interface a component implements to
// participate in the Nervous Layer.
type Capable[N comparable] interface {
	component.Component
	NervousInit(init *Initializer[N])
	NervousConnector() *Connector[N]
}

type transformerEntry[N comparable] struct {
	id  idgen.Id
	fn  TransformFunc
	seq int64
}

type transformerKey[N comparable] struct {
	nerve N
	tag   simevent.TypeTag
}

type subscriptionKey[N comparable] struct {
	terminal N
	tag      simevent.TypeTag
}

// Layer is the Nervous Layer: the pending-signal time-ordered map, the
// per-(nerve, tag) transformer registry, and the delivery partitioning
// into subscribing components' connectors.
type Layer[N comparable] struct {
	// mu guards the pending-signal map and registries for NewThreaded
	// drivers (spec.md §5: "the Nervous Layer's pending map ... sit[s]
	// behind [its] own mutex").
	mu    sync.Mutex
	queue *timequeue.Queue
	now   simtime.SimTime

	pending   signalHeap[N]
	byId      map[idgen.Id]*signalEntry[N]
	signalIds *idgen.Allocator
	seq       int64

	transformers   map[transformerKey[N]][]*transformerEntry[N]
	transformerIds *idgen.Allocator

	subscriptions map[subscriptionKey[N]]map[string]bool
	connectors    map[string]*Connector[N]

	// pendingDelivery stages this tick's surviving signals per component,
	// partitioned at walk time and claimed (moved) into the component's
	// connector during Prepare.
	pendingDelivery map[string]map[simevent.TypeTag][]*NerveSignal[N]

	internalTriggerID  idgen.Id
	hasInternalTrigger bool
}

// New returns an empty Nervous Layer bound to queue, used only to
// schedule/cancel the internal wake-up trigger.
func New[N comparable](queue *timequeue.Queue) *Layer[N] {
	return &Layer[N]{
		queue:           queue,
		byId:            make(map[idgen.Id]*signalEntry[N]),
		signalIds:       idgen.New(),
		transformers:    make(map[transformerKey[N]][]*transformerEntry[N]),
		transformerIds:  idgen.New(),
		subscriptions:   make(map[subscriptionKey[N]]map[string]bool),
		connectors:      make(map[string]*Connector[N]),
		pendingDelivery: make(map[string]map[simevent.TypeTag][]*NerveSignal[N]),
	}
}

// ScheduleSignal registers a new signal to be walked and delivered once
// sim time reaches sendTime. It fails with InvalidTopology if path is
// empty, or InvalidTime if sendTime <= the layer's current time.
func (l *Layer[N]) ScheduleSignal(path []N, message simevent.Event, sendTime simtime.SimTime, tag simevent.TypeTag) (idgen.Id, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scheduleSignalLocked(path, message, sendTime, tag)
}

func (l *Layer[N]) scheduleSignalLocked(path []N, message simevent.Event, sendTime simtime.SimTime, tag simevent.TypeTag) (idgen.Id, error) {
	if len(path) == 0 {
		return 0, kernelerr.New(kernelerr.InvalidTopology, "nervous.ScheduleSignal")
	}
	if sendTime <= l.now {
		return 0, kernelerr.New(kernelerr.InvalidTime, "nervous.ScheduleSignal")
	}

	id := l.signalIds.Next()
	l.seq++
	signal := &NerveSignal[N]{ID: id, Path: path, Message: message, SendTime: sendTime, MessageTag: tag}
	entry := &signalEntry[N]{time: sendTime, id: id, signal: signal, seq: l.seq}
	heap.Push(&l.pending, entry)
	l.byId[id] = entry
	return id, nil
}

// UnscheduleSignal removes a still-pending signal, returning it if found.
func (l *Layer[N]) UnscheduleSignal(id idgen.Id) (*NerveSignal[N], bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unscheduleSignalLocked(id)
}

func (l *Layer[N]) unscheduleSignalLocked(id idgen.Id) (*NerveSignal[N], bool) {
	entry, ok := l.byId[id]
	if !ok {
		return nil, false
	}
	heap.Remove(&l.pending, entry.index)
	delete(l.byId, id)
	l.signalIds.Free(id)
	return entry.signal, true
}

// RegisterTransformer adds fn to the (nerve, tag) bucket, ordered after
// any already registered there.
func (l *Layer[N]) RegisterTransformer(nerve N, tag simevent.TypeTag, fn TransformFunc) idgen.Id {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registerTransformerLocked(nerve, tag, fn)
}

func (l *Layer[N]) registerTransformerLocked(nerve N, tag simevent.TypeTag, fn TransformFunc) idgen.Id {
	id := l.transformerIds.Next()
	l.seq++
	key := transformerKey[N]{nerve: nerve, tag: tag}
	l.transformers[key] = append(l.transformers[key], &transformerEntry[N]{id: id, fn: fn, seq: l.seq})
	return id
}

// UnsetTransformer removes a previously registered transformer.
func (l *Layer[N]) UnsetTransformer(id idgen.Id) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unsetTransformerLocked(id)
}

func (l *Layer[N]) unsetTransformerLocked(id idgen.Id) error {
	for key, list := range l.transformers {
		for i, t := range list {
			if t.id == id {
				l.transformers[key] = append(list[:i], list[i+1:]...)
				l.transformerIds.Free(id)
				return nil
			}
		}
	}
	return kernelerr.New(kernelerr.InvalidId, "nervous.UnsetTransformer")
}

// Subscribe registers componentID for deliveries whose terminal nerve and
// message tag match.
func (l *Layer[N]) Subscribe(terminal N, tag simevent.TypeTag, componentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribeLocked(terminal, tag, componentID)
}

// Setup runs comp's NervousInit, records its subscriptions, and creates
// its connector.
func (l *Layer[N]) Setup(comp Capable[N]) {
	init := newInitializer[N]()
	comp.NervousInit(init)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, decl := range init.subscriptions {
		l.subscribeLocked(decl.terminal, decl.tag, comp.ID())
	}
	l.connectors[comp.ID()] = newConnector[N]()
	l.pendingDelivery[comp.ID()] = make(map[simevent.TypeTag][]*NerveSignal[N])
}

func (l *Layer[N]) subscribeLocked(terminal N, tag simevent.TypeTag, componentID string) {
	key := subscriptionKey[N]{terminal: terminal, tag: tag}
	if l.subscriptions[key] == nil {
		l.subscriptions[key] = make(map[string]bool)
	}
	l.subscriptions[key][componentID] = true
}

// Remove unschedules every signal still referenced by comp's connector
// and every transformer it registered, then forgets its registration.
func (l *Layer[N]) Remove(comp Capable[N]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn := l.connectors[comp.ID()]
	if conn != nil {
		for _, globalID := range conn.localToGlobal {
			l.unscheduleSignalLocked(globalID)
		}
		for _, globalID := range conn.transformerLocalToGlobal {
			l.unsetTransformerLocked(globalID)
		}
	}
	for key, ids := range l.subscriptions {
		delete(ids, comp.ID())
		if len(ids) == 0 {
			delete(l.subscriptions, key)
		}
	}
	delete(l.connectors, comp.ID())
	delete(l.pendingDelivery, comp.ID())
}

// PreExec cancels any previous internal wake-up, then walks and delivers
// every signal due at or before now (spec.md §4.8 pre-exec steps 1-2).
func (l *Layer[N]) PreExec(now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasInternalTrigger {
		l.queue.Unschedule(l.internalTriggerID)
		l.hasInternalTrigger = false
	}
	l.now = now

	for _, staged := range l.pendingDelivery {
		for tag := range staged {
			delete(staged, tag)
		}
	}

	for len(l.pending) > 0 && l.pending[0].time <= now {
		entry := heap.Pop(&l.pending).(*signalEntry[N])
		delete(l.byId, entry.id)
		l.signalIds.Free(entry.id)
		l.walkAndDeliver(entry.signal)
	}
}

// walkAndDeliver applies every nerve's transformers in path order,
// stopping (and dropping the signal) the moment one returns absence.
// A signal that survives the full walk is staged for delivery to every
// component subscribed to (terminal nerve, message tag).
func (l *Layer[N]) walkAndDeliver(signal *NerveSignal[N]) {
	for _, nerve := range signal.Path {
		key := transformerKey[N]{nerve: nerve, tag: signal.MessageTag}
		for _, t := range l.transformers[key] {
			replacement, ok := t.fn(signal.Message)
			if !ok {
				return
			}
			signal.Message = replacement
		}
	}

	subKey := subscriptionKey[N]{terminal: signal.TerminalNerve(), tag: signal.MessageTag}
	for compID := range l.subscriptions[subKey] {
		staged := l.pendingDelivery[compID]
		if staged == nil {
			continue
		}
		staged[signal.MessageTag] = append(staged[signal.MessageTag], signal)
	}
}

// Check reports whether any signal is staged for delivery to comp this
// tick.
func (l *Layer[N]) Check(comp Capable[N]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pendingDelivery[comp.ID()]) > 0
}

// Prepare populates comp's connector with the current tick's time and
// moves its staged deliveries in (the delivery-buffer partition spec.md
// §4.8 describes).
func (l *Layer[N]) Prepare(comp Capable[N], now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn := l.connectors[comp.ID()]
	conn.Now = now
	conn.Incoming = l.pendingDelivery[comp.ID()]
	l.pendingDelivery[comp.ID()] = make(map[simevent.TypeTag][]*NerveSignal[N])
}

// Process reconciles comp's connector: new transformer registrations and
// retirements, outgoing signals folded into the pending map, requested
// unschedules, and the incoming slot drained.
func (l *Layer[N]) Process(comp Capable[N], now simtime.SimTime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conn := l.connectors[comp.ID()]
	conn.mu.Lock()
	defer conn.mu.Unlock()

	for _, req := range conn.pendingTransformers {
		globalID := l.registerTransformerLocked(req.nerve, req.tag, req.fn)
		conn.transformerLocalToGlobal[req.localID] = globalID
	}
	conn.pendingTransformers = nil

	for _, localID := range conn.pendingUnsetTransformers {
		if globalID, ok := conn.transformerLocalToGlobal[localID]; ok {
			l.unsetTransformerLocked(globalID)
			delete(conn.transformerLocalToGlobal, localID)
		}
	}
	conn.pendingUnsetTransformers = nil

	for _, req := range conn.pendingSignals {
		globalID, err := l.scheduleSignalLocked(req.path, req.message, now.Add(req.delay), req.tag)
		if err == nil {
			conn.localToGlobal[req.localID] = globalID
		}
	}
	conn.pendingSignals = nil

	for _, localID := range conn.pendingUnschedule {
		if globalID, ok := conn.localToGlobal[localID]; ok {
			l.unscheduleSignalLocked(globalID)
			delete(conn.localToGlobal, localID)
		}
	}
	conn.pendingUnschedule = nil

	conn.Incoming = make(map[simevent.TypeTag][]*NerveSignal[N])
}

// PostExec schedules an internal wake-up at the earliest remaining
// pending signal's send time, so the Driver advances precisely there
// even if no other layer has anything due sooner.
func (l *Layer[N]) PostExec() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return
	}
	earliest := l.pending[0].time
	delay := simtime.SimTimeSpan(earliest - l.now)
	l.internalTriggerID = l.queue.Schedule(delay, internalTriggerEvent{})
	l.hasInternalTrigger = true
}
