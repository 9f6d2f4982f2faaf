// Package driver implements the Simulation Driver (spec.md §4.9): the
// fixed per-tick sequence that advances time, lets every layer pre_exec,
// runs each triggered component through prepare/run/process, and lets
// every layer post_exec. It is the sole composition root that wires the
// Time Queue, State Store, and the four component layers together.
package driver

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mortalsim/mortalsim/circulation"
	"github.com/mortalsim/mortalsim/component"
	"github.com/mortalsim/mortalsim/core"
	"github.com/mortalsim/mortalsim/digestion"
	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/kernelobs"
	"github.com/mortalsim/mortalsim/nervous"
	"github.com/mortalsim/mortalsim/simevent"
	"github.com/mortalsim/mortalsim/simstate"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/substance"
	"github.com/mortalsim/mortalsim/timequeue"
)

// Factory constructs a default component, given the driver's run id —
// mirrors spec.md §6's "process-wide factory registry maps component
// names to default constructors".
type Factory[V comparable, N comparable] func(runID uuid.UUID) component.Component

// registration records which layer capability interfaces a registered
// component satisfies, discovered once at AddComponent time.
type registration[V comparable, N comparable] struct {
	comp component.Component

	core        core.Capable
	circulation circulation.Capable[V]
	digestion   digestion.Capable
	nervous     nervous.Capable[N]
}

// Driver is the kernel's composition root: the Time Queue, State Store,
// and the four component layers, run through spec.md §4.9's fixed tick
// sequence.
type Driver[V comparable, N comparable] struct {
	mu        sync.Mutex
	threaded  bool
	runID     uuid.UUID
	logger    *slog.Logger
	queue     *timequeue.Queue
	state     *simstate.Store
	core      *core.Layer
	circ      *circulation.Layer[V]
	digest    *digestion.Layer
	nerve     *nervous.Layer[N]

	components map[string]*registration[V, N]

	defaultIds *idgen.Allocator
	defaults   map[idgen.Id]Factory[V, N]
}

// Config controls Driver construction (SPEC_FULL.md §2).
type Config struct {
	MolarVolume substance.MolarVolumeFunc
	Logger      *slog.Logger
	// Observer, if set, additionally receives every kernel trace event the
	// Driver's own logging observer emits (SPEC_FULL.md §2's optional
	// external trace sink). The Driver always logs the warning-worthy
	// categories itself regardless of whether Observer is set.
	Observer kernelobs.Observer
}

// driverObserver is the Observer the Driver gives the Circulation Layer
// (and through it every vessel store). It logs the categories SPEC_FULL.md §2 commits to an operational
// log line for (a dropped over-concentration warning) through the
// Driver's own logger, then forwards every event to an optional
// caller-supplied downstream Observer.
type driverObserver struct {
	logger     *slog.Logger
	downstream kernelobs.Observer
}

func (o *driverObserver) Emit(e kernelobs.Event) {
	switch e.Kind {
	case kernelobs.KindChangeRejected:
		o.logger.Warn("substance change rejected", "source", e.SourceID, "message", e.Message, "data", e.Data)
	}
	if o.downstream != nil {
		o.downstream.Emit(e)
	}
}

func newDriver[V comparable, N comparable](threaded bool, cfg Config) *Driver[V, N] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	obs := &driverObserver{logger: cfg.Logger, downstream: cfg.Observer}
	queue := timequeue.New()
	state := simstate.New()
	d := &Driver[V, N]{
		threaded:   threaded,
		runID:      uuid.New(),
		logger:     cfg.Logger,
		queue:      queue,
		state:      state,
		core:       core.New(queue, state),
		circ:       circulation.New[V](cfg.MolarVolume, obs),
		digest:     digestion.New(queue),
		nerve:      nervous.New[N](queue),
		components: make(map[string]*registration[V, N]),
		defaultIds: idgen.New(),
		defaults:   make(map[idgen.Id]Factory[V, N]),
	}
	return d
}

// New returns a single-threaded cooperative Driver (spec.md §6 new()).
func New[V comparable, N comparable](cfg Config) *Driver[V, N] {
	return newDriver[V, N](false, cfg)
}

// NewThreaded returns a Driver whose independent components may execute
// concurrently within a tick (spec.md §6 new_threaded(), §5 Parallel
// mode). The Circulation, Digestion and Nervous layers guard their shared
// bookkeeping with their own mutex, and the Core Layer locks each
// component's connector in Process; NewThreaded only changes whether the tick loop fans the triggered
// components out across goroutines.
func NewThreaded[V comparable, N comparable](cfg Config) *Driver[V, N] {
	return newDriver[V, N](true, cfg)
}

// SetDefault registers factory under a fresh id, for later instantiation
// via InstantiateDefaults.
func (d *Driver[V, N]) SetDefault(factory Factory[V, N]) idgen.Id {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.defaultIds.Next()
	d.defaults[id] = factory
	return id
}

// RemoveDefault forgets a previously registered default factory.
func (d *Driver[V, N]) RemoveDefault(id idgen.Id) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.defaults[id]; !ok {
		return kernelerr.New(kernelerr.InvalidId, "driver.RemoveDefault")
	}
	delete(d.defaults, id)
	d.defaultIds.Free(id)
	return nil
}

// InstantiateDefaults constructs and adds one component per registered
// default factory. Order is not guaranteed (map iteration) — callers
// needing deterministic boot order should add components explicitly
// instead of relying on defaults for anything order-sensitive.
func (d *Driver[V, N]) InstantiateDefaults() {
	d.mu.Lock()
	runID := d.runID
	factories := make([]Factory[V, N], 0, len(d.defaults))
	for _, f := range d.defaults {
		factories = append(factories, f)
	}
	d.mu.Unlock()

	for _, f := range factories {
		if err := d.AddComponent(f(runID)); err != nil {
			d.logger.Error("default component instantiation failed", "error", err)
		}
	}
}

// AddComponent registers comp with every layer whose capability
// interface it satisfies. It fails with DuplicateRegistration if a
// component with the same id is already registered.
func (d *Driver[V, N]) AddComponent(comp component.Component) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.components[comp.ID()]; exists {
		d.logger.Error("duplicate component registration", "id", comp.ID())
		return kernelerr.New(kernelerr.DuplicateRegistration, "driver.AddComponent")
	}

	reg := &registration[V, N]{comp: comp}
	if c, ok := comp.(core.Capable); ok {
		reg.core = c
		d.core.Setup(c)
	}
	if c, ok := comp.(circulation.Capable[V]); ok {
		reg.circulation = c
		d.circ.Setup(c)
	}
	if c, ok := comp.(digestion.Capable); ok {
		reg.digestion = c
		d.digest.Setup(c)
	}
	if c, ok := comp.(nervous.Capable[N]); ok {
		reg.nervous = c
		d.nerve.Setup(c)
	}
	d.components[comp.ID()] = reg
	return nil
}

// RemoveComponent unregisters a component from every layer it was
// attached to.
func (d *Driver[V, N]) RemoveComponent(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	reg, ok := d.components[name]
	if !ok {
		return kernelerr.New(kernelerr.InvalidId, "driver.RemoveComponent")
	}
	if reg.core != nil {
		d.core.Remove(reg.core)
	}
	if reg.circulation != nil {
		d.circ.Remove(reg.circulation)
	}
	if reg.digestion != nil {
		d.digest.Remove(reg.digestion)
	}
	if reg.nervous != nil {
		d.nerve.Remove(reg.nervous)
	}
	delete(d.components, name)
	return nil
}

// HasComponent reports whether a component named name is registered.
func (d *Driver[V, N]) HasComponent(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.components[name]
	return ok
}

// ActiveComponents returns the ids of every registered component.
func (d *Driver[V, N]) ActiveComponents() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.components))
	for name := range d.components {
		names = append(names, name)
	}
	return names
}

// Time returns the Driver's current simulated time.
func (d *Driver[V, N]) Time() simtime.SimTime {
	return d.queue.Now()
}

// ScheduleEvent schedules event for delivery after delay against the
// shared Time Queue, outside of any component's connector — the
// external entry point spec.md §6's Driver API names directly (as
// opposed to a component scheduling through its own connector).
func (d *Driver[V, N]) ScheduleEvent(delay simtime.SimTimeSpan, event simevent.Event) idgen.Id {
	return d.queue.Schedule(delay, event)
}

// UnscheduleEvent cancels a previously scheduled event by its Time Queue
// id.
func (d *Driver[V, N]) UnscheduleEvent(id idgen.Id) error {
	return d.queue.Unschedule(id)
}

// RunID returns the UUID stamped on this Driver at construction,
// distinguishing its events/logs from another Driver in the same process
// (SPEC_FULL.md §3).
func (d *Driver[V, N]) RunID() uuid.UUID { return d.runID }

// State exposes the canonical State Store for read-only external
// inspection (e.g. a CLI status command).
func (d *Driver[V, N]) State() *simstate.Store { return d.state }

// Circulation exposes the Circulation Layer for organism wiring code
// that needs direct vessel store access (e.g. seeding initial
// concentrations before the first tick).
func (d *Driver[V, N]) Circulation() *circulation.Layer[V] { return d.circ }

// Digestion exposes the Digestion Layer for organism wiring code that
// needs to seed the pipeline.
func (d *Driver[V, N]) Digestion() *digestion.Layer { return d.digest }

// Nervous exposes the Nervous Layer for organism wiring code that needs
// to schedule signals before the first tick.
func (d *Driver[V, N]) Nervous() *nervous.Layer[N] { return d.nerve }
