// Package digestion implements the Digestion Layer (spec.md §4.7): an
// ordered pipeline of components that Consumed items move through, each
// carrying a Consumable's substance composition and bulk volume, with
// directional Forward/Back/Exhausted routing decided by the component
// that currently holds the item.
package digestion

import (
	"sync"

	"github.com/mortalsim/mortalsim/idgen"
	"github.com/mortalsim/mortalsim/kernelerr"
	"github.com/mortalsim/mortalsim/simtime"
	"github.com/mortalsim/mortalsim/substance"
)

// volumeChange is a Linear/Sigmoid trajectory applied to a Consumable's
// bulk volume, following the same shape math as substance.Change
// (spec.md §4.7's "(start, end, amount, shape)" volume-change queue).
type volumeChange struct {
	StartTime     simtime.SimTime
	Amount        float64
	Duration      simtime.SimTimeSpan
	Shape         substance.Shape
	previousValue float64
}

func (c *volumeChange) nextAmount(simTime simtime.SimTime) float64 {
	elapsed := float64(simTime.Sub(c.StartTime))
	newValue := substance.Evaluate(c.Shape, elapsed, float64(c.Duration), c.Amount)
	delta := newValue - c.previousValue
	c.previousValue = newValue
	return delta
}

// Consumable is a substance store plus a bulk volume and its own queue of
// pending volume changes (spec.md §3).
type Consumable struct {
	mu sync.Mutex

	Store *substance.Store

	volume          float64
	volumeChanges   map[idgen.Id]*volumeChange
	volumeChangeIds *idgen.Allocator
}

// NewConsumable returns a Consumable with the given starting volume,
// backed by a fresh Substance Store.
func NewConsumable(volume float64, molarVolume substance.MolarVolumeFunc) *Consumable {
	return &Consumable{
		Store:           substance.New(molarVolume),
		volume:          volume,
		volumeChanges:   make(map[idgen.Id]*volumeChange),
		volumeChangeIds: idgen.New(),
	}
}

// Volume returns the current bulk volume.
func (c *Consumable) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// ScheduleVolumeChange registers a new volume trajectory. It fails with
// InvalidTime under the same rule as substance.Store.ScheduleChange.
func (c *Consumable) ScheduleVolumeChange(amount float64, startTime simtime.SimTime, duration simtime.SimTimeSpan, shape substance.Shape) (idgen.Id, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if startTime < c.Store.SimTime() || duration <= 0 {
		return 0, kernelerr.New(kernelerr.InvalidTime, "digestion.ScheduleVolumeChange")
	}

	id := c.volumeChangeIds.Next()
	c.volumeChanges[id] = &volumeChange{StartTime: startTime, Amount: amount, Duration: duration, Shape: shape}
	return id, nil
}

// UnscheduleVolumeChange removes a still-pending volume change.
func (c *Consumable) UnscheduleVolumeChange(id idgen.Id) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.volumeChanges[id]; !ok {
		return false
	}
	delete(c.volumeChanges, id)
	c.volumeChangeIds.Free(id)
	return true
}

// UnscheduleAllVolumeChanges clears every pending volume change, used on
// a Consumed's exit handover (spec.md §4.7).
func (c *Consumable) UnscheduleAllVolumeChanges() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.volumeChanges {
		c.volumeChangeIds.Free(id)
	}
	c.volumeChanges = make(map[idgen.Id]*volumeChange)
}

// advanceVolume applies every due volume change's incremental delta, then
// advances the underlying Substance Store — the per-tick "advance" spec.md
// §4.7 describes for a Consumed.
func (c *Consumable) advanceVolume(newTime simtime.SimTime) {
	c.mu.Lock()
	var toRemove []idgen.Id
	for id, change := range c.volumeChanges {
		if change.StartTime < newTime {
			c.volume += change.nextAmount(newTime)
			if c.volume < 0 {
				c.volume = 0
			}
		}
		if newTime > change.StartTime.Add(change.Duration) {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(c.volumeChanges, id)
		c.volumeChangeIds.Free(id)
	}
	c.mu.Unlock()

	c.Store.Advance(newTime)
}
