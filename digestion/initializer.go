package digestion

// Initializer is the sole channel a component uses, during DigestionInit,
// to seed the pipeline stage it occupies with items already present at
// simulation start (e.g. a "mouth" stage primed with a meal).
type Initializer struct {
	seeded []*Consumed
}

func newInitializer() *Initializer {
	return &Initializer{}
}

// Seed adds consumed as already resident at this component's stage when
// the simulation begins.
func (i *Initializer) Seed(consumed *Consumed) {
	i.seeded = append(i.seeded, consumed)
}
