package nervous

import "github.com/mortalsim/mortalsim/simevent"

// internalTriggerTag is the Time Queue tag used purely to wake the driver
// at the next pending signal's send time (spec.md §4.8 post-exec). No
// component ever subscribes to it.
const internalTriggerTag simevent.TypeTag = "nervous.internal_trigger"

type internalTriggerEvent struct{}

func (internalTriggerEvent) Tag() simevent.TypeTag { return internalTriggerTag }
func (internalTriggerEvent) Transient() bool       { return true }
