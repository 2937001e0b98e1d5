package buildable

// Component is behaviour attached to a buildable. Components are created
// per instance from the buildable's prototype and live as long as it does.
type Component interface {
	TypeName() string
	// OnAttach runs once when the buildable is placed.
	OnAttach(b *Buildable) error
	// OnDetach runs once when the buildable is removed.
	OnDetach(b *Buildable) error
	// OnUpdate runs on the fixed simulation tick.
	OnUpdate(dt float64) error
}

// ComponentFactory builds the components a prototype asks for. It returns
// nil when the prototype carries no such component.
type ComponentFactory func(m *Manager, b *Buildable) Component
