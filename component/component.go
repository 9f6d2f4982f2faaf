// Package component defines the minimal contract every simulation
// component satisfies regardless of which layers it participates in
// (spec.md §6's "Component contract"): an identifier and a Run method the
// Driver invokes once per tick when any owning layer's check fires.
//
// Layer-specific capability — core, circulation, digestion, nervous — is
// expressed as a separate interface in each layer's own package
// (core.Capable, circulation.Capable, ...), each embedding Component and
// adding that layer's Init/Connector methods. A concrete component type
// implements Component plus whichever capability interfaces it needs;
// the Driver discovers capability by type-asserting against each layer in
// turn, which is how one component can be "owned by multiple layers" per
// spec.md §4.9.
package component

// Component is the identity and execution contract shared by every
// layer. ID must be stable and unique among components registered with a
// single Driver.
type Component interface {
	ID() string
	Run()
}

// Base provides the identifier half of Component for embedding into
// concrete component types, mirroring the teacher's BaseComponent
// embedding pattern (component/component.go in the teacher repository)
// without carrying over its biological lifecycle/metadata fields, which
// have no equivalent in the abstract kernel contract.
type Base struct {
	id string
}

// NewBase returns a Base identified by id.
func NewBase(id string) Base { return Base{id: id} }

// ID returns the component's identifier.
func (b Base) ID() string { return b.id }
