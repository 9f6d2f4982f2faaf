package digestion

import "github.com/mortalsim/mortalsim/simtime"

// Direction is the routing decision a digestion component makes for a
// Consumed item when it calls set_exit (spec.md §4.7).
type Direction int

const (
	// Forward routes the item to the next component in the pipeline.
	Forward Direction = iota
	// Back routes the item to the previous component in the pipeline.
	Back
	// Exhausted routes the item to the eliminate sink, regardless of
	// pipeline position.
	Exhausted
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "Forward"
	case Back:
		return "Back"
	case Exhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// Consumed pairs a Consumable with its entry/exit bookkeeping as it
// passes through one stage of the digestion pipeline (spec.md §3).
type Consumed struct {
	Consumable *Consumable

	EntryTime      simtime.SimTime
	EntryDirection Direction
	ExitTime       simtime.SimTime
	ExitDirection  Direction
	exitSet        bool
}

// NewConsumed wraps consumable as freshly entering the pipeline at
// entryTime from entryDirection.
func NewConsumed(consumable *Consumable, entryTime simtime.SimTime, entryDirection Direction) *Consumed {
	return &Consumed{
		Consumable:     consumable,
		EntryTime:      entryTime,
		EntryDirection: entryDirection,
	}
}

// SetExit records when and in which direction this item should leave its
// current stage. Calling it more than once in the same run overwrites
// the prior decision — only the last call before Process wins.
func (c *Consumed) SetExit(exitTime simtime.SimTime, direction Direction) {
	c.ExitTime = exitTime
	c.ExitDirection = direction
	c.exitSet = true
}

// hasExited reports whether now has reached the scheduled exit time.
func (c *Consumed) hasExited(now simtime.SimTime) bool {
	return c.exitSet && now >= c.ExitTime
}
