// Package substance implements the Substance Store: the per-container
// concentration map with a catalog of scheduled time-parameterised
// changes described in spec.md §4.4. It is the kernel's central
// algorithmic artefact — ported from the original mortalsim Rust crate's
// substance::store::SubstanceStore (see original_source/mortalsim-core/
// src/substance/store.rs) and restructured into the teacher's idiom: a
// mutex-guarded struct with atomic-free single-owner semantics, matching
// how extracellular.ChemicalModulator keeps one concentration field per
// ligand type guarded by a single RWMutex.
package substance

import (
	"sync"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/kernelobs"
	"github.com/mortalsim/mortalsim/simtime"
)

// Substance names whatever solute a Store tracks concentration for. The
// kernel never interprets the value; concrete organisms define their own
// substance vocabularies (glucose, oxygen, a drug, ...).
type Substance string

// MolarVolumeFunc returns the molar volume (m^3/mol-equivalent) used to
// convert a concentration delta into a solute-fraction delta for sub.
// A Store with no MolarVolumeFunc treats every substance as having molar
// volume 1, so a concentration delta contributes directly to solute
// fraction.
type MolarVolumeFunc func(sub Substance) float64

// Change is a single deterministic concentration trajectory on one
// substance in one store (spec.md §3's SubstanceChange).
type Change struct {
	StartTime     simtime.SimTime
	Amount        float64
	Duration      simtime.SimTimeSpan
	Shape         Shape
	previousValue float64
}

// nextAmount evaluates the shape at simTime and returns the incremental
// delta since the last call (or since construction), updating
// previousValue so repeated calls are idempotent to the cumulative
// trajectory (spec.md §8 round-trip property).
func (c *Change) nextAmount(simTime simtime.SimTime) float64 {
	elapsed := float64(simTime.Sub(c.StartTime))
	newValue := evaluate(c.Shape, elapsed, float64(c.Duration), c.Amount)
	delta := newValue - c.previousValue
	c.previousValue = newValue
	return delta
}

// Store is a homogeneous solution: per-substance concentration plus the
// set of in-flight Changes driving each substance, with an aggregate
// solute fraction kept in [0,1].
type Store struct {
	mu sync.Mutex

	molarVolume MolarVolumeFunc
	observer    kernelobs.Observer

	simTime      simtime.SimTime
	composition  map[Substance]float64
	changes      map[Substance]map[idgen.Id]*Change
	changeIds    *idgen.Allocator
	soluteFrac   float64

	trackChanges  bool
	stagedChanges map[Substance]idgen.Id
	newChanges    map[Substance]idgen.Id
}

// New returns an empty Store. A nil molarVolume treats every substance as
// having molar volume 1.
func New(molarVolume MolarVolumeFunc) *Store {
	if molarVolume == nil {
		molarVolume = func(Substance) float64 { return 1.0 }
	}
	return &Store{
		molarVolume:   molarVolume,
		observer:      kernelobs.Noop{},
		composition:   make(map[Substance]float64),
		changes:       make(map[Substance]map[idgen.Id]*Change),
		changeIds:     idgen.New(),
		stagedChanges: make(map[Substance]idgen.Id),
		newChanges:    make(map[Substance]idgen.Id),
	}
}

// SetObserver attaches obs as the store's kernel trace sink, replacing the
// default no-op. A nil obs restores the no-op.
func (s *Store) SetObserver(obs kernelobs.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obs == nil {
		obs = kernelobs.Noop{}
	}
	s.observer = obs
}

// EnableTracking turns on staged/new-change bookkeeping so
// HasNewChanges/NewDirectChanges report the changes the most recent
// Advance promoted (spec.md §4.6 uses this for notify_any_change).
func (s *Store) EnableTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackChanges = true
}

// SimTime returns the store's current simulated time.
func (s *Store) SimTime() simtime.SimTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simTime
}

// SoluteFraction returns the current aggregate solute fraction.
func (s *Store) SoluteFraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.soluteFrac
}

// ConcentrationOf returns the current concentration of sub, zero if never
// set or changed.
func (s *Store) ConcentrationOf(sub Substance) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composition[sub]
}

// SetConcentration directly assigns sub's concentration. It fails with
// InvalidComposition if c < 0 or if the resulting solute fraction would
// exceed 1; on failure the store is left unchanged.
func (s *Store) SetConcentration(sub Substance, c float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c < 0 {
		return kernelerr.New(kernelerr.InvalidComposition, "substance.SetConcentration")
	}
	delta := c - s.composition[sub]
	fracDelta := delta * s.molarVolume(sub)
	if s.soluteFrac+fracDelta > 1.0 {
		return kernelerr.New(kernelerr.InvalidComposition, "substance.SetConcentration")
	}
	s.soluteFrac += fracDelta
	s.composition[sub] = c
	return nil
}

// ScheduleChange registers a new trajectory on sub. It fails with
// InvalidTime if startTime < sim_time or duration <= 0, without mutating
// the store.
func (s *Store) ScheduleChange(sub Substance, amount float64, startTime simtime.SimTime, duration simtime.SimTimeSpan, shape Shape) (idgen.Id, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if startTime < s.simTime || duration <= 0 {
		return 0, kernelerr.New(kernelerr.InvalidTime, "substance.ScheduleChange")
	}

	id := s.changeIds.Next()
	change := &Change{StartTime: startTime, Amount: amount, Duration: duration, Shape: shape}
	if s.changes[sub] == nil {
		s.changes[sub] = make(map[idgen.Id]*Change)
	}
	s.changes[sub][id] = change

	if s.trackChanges {
		s.stagedChanges[sub] = id
	}
	return id, nil
}

// ScheduleDependentChange records a change on sub that mirrors source's
// trajectory (same amount, duration, shape) re-homed to begin at
// startTime. This is how one Store (e.g. a downstream blood vessel)
// replays another store's change after a propagation delay (spec.md §4.6,
// §8 scenario 6). It fails with InvalidTime under the same rule as
// ScheduleChange.
func (s *Store) ScheduleDependentChange(sub Substance, startTime simtime.SimTime, source *Change) (idgen.Id, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if startTime < s.simTime {
		return 0, kernelerr.New(kernelerr.InvalidTime, "substance.ScheduleDependentChange")
	}

	id := s.changeIds.Next()
	change := &Change{StartTime: startTime, Amount: source.Amount, Duration: source.Duration, Shape: source.Shape}
	if s.changes[sub] == nil {
		s.changes[sub] = make(map[idgen.Id]*Change)
	}
	s.changes[sub][id] = change

	if s.trackChanges {
		s.stagedChanges[sub] = id
	}
	return id, nil
}

// UnscheduleChange removes a still-pending change, returning it if found.
func (s *Store) UnscheduleChange(sub Substance, id idgen.Id) (*Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.changes[sub]
	if m == nil {
		return nil, false
	}
	c, ok := m[id]
	if ok {
		delete(m, id)
		s.changeIds.Free(id)
	}
	return c, ok
}

// Advance moves the store's sim_time forward, applying every due change's
// incremental delta (spec.md §4.4 Advance steps 1-7). A newTime earlier
// than the store's current sim_time leaves the store unchanged, so
// sim_time never moves backward.
func (s *Store) Advance(newTime simtime.SimTime) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newTime < s.simTime {
		return
	}

	if s.trackChanges {
		s.newChanges, s.stagedChanges = s.stagedChanges, make(map[Substance]idgen.Id)
	}

	for sub, changeMap := range s.changes {
		var toRemove []idgen.Id
		for id, change := range changeMap {
			if change.StartTime < newTime {
				delta := change.nextAmount(newTime)
				prevConc := s.composition[sub]
				newConc := prevConc + delta

				if newConc < 0 {
					// Clamp with a warning, per spec.md §4.4 step 3.
					s.observer.Emit(kernelobs.Event{
						Kind:     kernelobs.KindChangeRejected,
						SourceID: string(sub),
						Message:  "concentration clamped to zero",
						Data:     map[string]interface{}{"attempted": prevConc + delta},
					})
					newConc = 0
				}

				fracDelta := delta * s.molarVolume(sub)
				if s.soluteFrac+fracDelta > 1.0 {
					// Reject this increment and continue: the source
					// crate's documented policy (store.rs advance()) is
					// skip-and-keep-going, not unschedule or saturate.
					s.observer.Emit(kernelobs.Event{
						Kind:     kernelobs.KindChangeRejected,
						SourceID: string(sub),
						Message:  "solute fraction would exceed 1.0",
						Data:     map[string]interface{}{"soluteFrac": s.soluteFrac, "fracDelta": fracDelta},
					})
				} else {
					s.soluteFrac += fracDelta
					s.composition[sub] = newConc
				}
			}

			if newTime > change.StartTime.Add(change.Duration) {
				toRemove = append(toRemove, id)
			}
		}
		for _, id := range toRemove {
			delete(changeMap, id)
			s.changeIds.Free(id)
		}
	}

	s.simTime = newTime
}

// UnscheduleAll removes every in-flight change across all substances,
// used when a container (e.g. a Digestion Layer Consumed) exits and
// hands its store off to the next stage (spec.md §4.7).
func (s *Store) UnscheduleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.changes {
		for id := range m {
			s.changeIds.Free(id)
		}
	}
	s.changes = make(map[Substance]map[idgen.Id]*Change)
}

// HasNewChanges reports whether the most recent Advance promoted any
// change, i.e. whether a change was scheduled between the two latest
// Advance calls. It is always false when tracking is not enabled.
func (s *Store) HasNewChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.newChanges) > 0
}

// NewDirectChanges returns every (substance, *Change) pair whose
// substance had a change staged in the most recent Advance.
func (s *Store) NewDirectChanges() []SubstanceChangePair {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SubstanceChangePair
	for sub := range s.newChanges {
		for _, c := range s.changes[sub] {
			out = append(out, SubstanceChangePair{Substance: sub, Change: c})
		}
	}
	return out
}

// AllDirectChanges returns every (substance, *Change) pair currently
// tracked, including dependent changes created via
// ScheduleDependentChange.
func (s *Store) AllDirectChanges() []SubstanceChangePair {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SubstanceChangePair
	for sub, m := range s.changes {
		for _, c := range m {
			out = append(out, SubstanceChangePair{Substance: sub, Change: c})
		}
	}
	return out
}

// SubstanceChangePair pairs a substance with one of its in-flight changes.
type SubstanceChangePair struct {
	Substance Substance
	Change    *Change
}
