package digestion

import "github.com/mortalsim/mortalsim/simevent"

// EliminateTag is the event tag for EliminateEvent.
const EliminateTag simevent.TypeTag = "digestion.eliminate"

// EliminateEvent is emitted when a Consumed item leaves the pipeline,
// either by running off either end of it (Forward past the last stage or
// Back past the first) or by an explicit Exhausted exit (spec.md §4.7).
type EliminateEvent struct {
	Consumable *Consumable
	Direction  Direction
}

func (EliminateEvent) Tag() simevent.TypeTag { return EliminateTag }
func (EliminateEvent) Transient() bool       { return true }
