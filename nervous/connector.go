package nervous

import (
	"sync"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simtime"
)

type outgoingSignal[N comparable] struct {
	localID idgen.Id
	path    []N
	message simevent.Event
	delay   simtime.SimTimeSpan
	tag     simevent.TypeTag
}

type transformerRequest[N comparable] struct {
	localID idgen.Id
	nerve   N
	tag     simevent.TypeTag
	fn      TransformFunc
}

// Connector is the per-component scratch pad for the Nervous Layer
// (spec.md §3's NervousConnector). Incoming holds this tick's delivered
// signals keyed by message tag; everything else is a request queued
// during Run and reconciled against the layer during Process, following
// the same local-id translation pattern as core.Connector.
type Connector[N comparable] struct {
	mu sync.Mutex

	Now      simtime.SimTime
	Incoming map[simevent.TypeTag][]*NerveSignal[N]

	localIds      *idgen.Allocator
	localToGlobal map[idgen.Id]idgen.Id

	transformerLocalIds      *idgen.Allocator
	transformerLocalToGlobal map[idgen.Id]idgen.Id

	pendingSignals           []outgoingSignal[N]
	pendingUnschedule        []idgen.Id
	pendingTransformers      []transformerRequest[N]
	pendingUnsetTransformers []idgen.Id
}

func newConnector[N comparable]() *Connector[N] {
	return &Connector[N]{
		Incoming:                 make(map[simevent.TypeTag][]*NerveSignal[N]),
		localIds:                 idgen.New(),
		localToGlobal:            make(map[idgen.Id]idgen.Id),
		transformerLocalIds:      idgen.New(),
		transformerLocalToGlobal: make(map[idgen.Id]idgen.Id),
	}
}

// SendSignal queues path/message for delivery after delay, tagged tag.
// It returns a local id usable for an UnscheduleSignal call later in the
// same or a later run, before or after the real send has been scheduled
// against the layer.
func (c *Connector[N]) SendSignal(path []N, message simevent.Event, delay simtime.SimTimeSpan, tag simevent.TypeTag) idgen.Id {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.localIds.Next()
	c.pendingSignals = append(c.pendingSignals, outgoingSignal[N]{localID: id, path: path, message: message, delay: delay, tag: tag})
	return id
}

// UnscheduleSignal requests cancellation of a signal this component
// previously sent via SendSignal, by local id.
func (c *Connector[N]) UnscheduleSignal(localID idgen.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, req := range c.pendingSignals {
		if req.localID == localID {
			c.pendingSignals = append(c.pendingSignals[:i], c.pendingSignals[i+1:]...)
			return nil
		}
	}
	if _, ok := c.localToGlobal[localID]; !ok {
		return kernelerr.New(kernelerr.InvalidId, "nervous.Connector.UnscheduleSignal")
	}
	c.pendingUnschedule = append(c.pendingUnschedule, localID)
	return nil
}

// RegisterTransformer queues a transformer registration for (nerve, tag).
func (c *Connector[N]) RegisterTransformer(nerve N, tag simevent.TypeTag, fn TransformFunc) idgen.Id {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.transformerLocalIds.Next()
	c.pendingTransformers = append(c.pendingTransformers, transformerRequest[N]{localID: id, nerve: nerve, tag: tag, fn: fn})
	return id
}

// UnsetTransformer requests removal of a transformer this component
// registered, by local id.
func (c *Connector[N]) UnsetTransformer(localID idgen.Id) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, req := range c.pendingTransformers {
		if req.localID == localID {
			c.pendingTransformers = append(c.pendingTransformers[:i], c.pendingTransformers[i+1:]...)
			return nil
		}
	}
	if _, ok := c.transformerLocalToGlobal[localID]; !ok {
		return kernelerr.New(kernelerr.InvalidId, "nervous.Connector.UnsetTransformer")
	}
	c.pendingUnsetTransformers = append(c.pendingUnsetTransformers, localID)
	return nil
}
