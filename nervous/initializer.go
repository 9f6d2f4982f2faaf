package nervous

import "github.com/mortalsim/mortalsim/simevent"

// subscriptionDecl declares that a component wants deliveries whose
// terminal nerve and message tag match.
type subscriptionDecl[N comparable] struct {
	terminal N
	tag      simevent.TypeTag
}

// Initializer is the sole channel a component uses, during NervousInit,
// to declare its delivery subscriptions.
type Initializer[N comparable] struct {
	subscriptions []subscriptionDecl[N]
}

func newInitializer[N comparable]() *Initializer[N] {
	return &Initializer[N]{}
}

// Subscribe declares that the component wants delivery of any signal
// whose path ends at terminal carrying a message tagged tag.
func (i *Initializer[N]) Subscribe(terminal N, tag simevent.TypeTag) {
	i.subscriptions = append(i.subscriptions, subscriptionDecl[N]{terminal: terminal, tag: tag})
}
