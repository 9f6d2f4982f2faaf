// Package simstate implements the kernel's State Store: a mapping from
// event type-tag to the most recently stored non-transient event of that
// type, plus a tainted set of type-tags dirtied since the last clear
// (spec.md §4.3).
//
// Entries are shared-immutable once put: the Core Layer never mutates a
// stored event in place after PutState, so Store's read methods can hand
// back the stored reference directly without copying.
package simstate

import (
	"sync"

	"github.com/mortalsim/mortalsim/simevent"
)

// Store holds the most recent event per type-tag and the taint set.
type Store struct {
	mu      sync.RWMutex
	entries map[simevent.TypeTag]simevent.Event
	tainted map[simevent.TypeTag]bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[simevent.TypeTag]simevent.Event),
		tainted: make(map[simevent.TypeTag]bool),
	}
}

// PutState inserts event, replacing any prior event of the same type tag,
// and marks that type tag tainted. Transient events must never reach
// here — the Core Layer filters them before calling PutState.
func (s *Store) PutState(event simevent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := event.Tag()
	s.entries[tag] = event
	s.tainted[tag] = true
}

// GetState returns the most recently stored event for tag, if any.
func (s *Store) GetState(tag simevent.TypeTag) (simevent.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[tag]
	return e, ok
}

// IsTainted reports whether tag has been written since the last
// ClearTaint.
func (s *Store) IsTainted(tag simevent.TypeTag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tainted[tag]
}

// TaintedTags returns a snapshot of the currently tainted type tags.
func (s *Store) TaintedTags() []simevent.TypeTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := make([]simevent.TypeTag, 0, len(s.tainted))
	for tag := range s.tainted {
		tags = append(tags, tag)
	}
	return tags
}

// ClearTaint empties the tainted set without touching stored entries.
func (s *Store) ClearTaint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tainted = make(map[simevent.TypeTag]bool)
}

// MergeTainted copies into s only the entries from other whose type tag is
// in other's current tainted set, and marks those tags tainted in s too
// (spec.md §4.3). The Core Layer in this module hands components the
// canonical Store directly and does not call MergeTainted.
func (s *Store) MergeTainted(other *Store) {
	other.mu.RLock()
	tags := make([]simevent.TypeTag, 0, len(other.tainted))
	for tag := range other.tainted {
		tags = append(tags, tag)
	}
	events := make(map[simevent.TypeTag]simevent.Event, len(tags))
	for _, tag := range tags {
		events[tag] = other.entries[tag]
	}
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		s.entries[tag] = events[tag]
		s.tainted[tag] = true
	}
}
