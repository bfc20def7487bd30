package world

// Scene is a backend (render or physics) that keeps its own representation
// of registered components.
type Scene interface {
	AddComponent(c *Component) error
	RemoveComponent(c *Component)
}

// Backends are the collaborators a world hands to component registration.
// NewPhysicsScene is only called when the world's InitValues ask for one.
type Backends struct {
	Render          Scene
	NewPhysicsScene func(w *World) Scene
}

// RegisterContext is passed to components while they register.
type RegisterContext struct {
	World   *World
	Level   *Level
	Render  Scene
	Physics Scene // nil when the world has no physics scene
}

type nopScene struct{}

func (nopScene) AddComponent(*Component) error { return nil }
func (nopScene) RemoveComponent(*Component)    {}

// PackageRef names the content package an object was loaded from.
type PackageRef interface {
	Name() string
}
