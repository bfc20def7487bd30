package world

import (
	"time"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/core/system"
	"go.uber.org/zap"
)

// RegistrationState of a component with respect to the world's backends.
type RegistrationState uint8

const (
	Unregistered RegistrationState = iota
	Registering
	Registered
)

func (s RegistrationState) String() string {
	switch s {
	case Registering:
		return "Registering"
	case Registered:
		return "Registered"
	}
	return "Unregistered"
}

// Optional component behaviors. A component's behavior value may implement
// any subset of these.
type (
	Registerer interface {
		OnRegister(c *Component, ctx RegisterContext) error
	}
	Unregisterer interface {
		OnUnregister(c *Component)
	}
	Activator interface {
		OnActivate(c *Component)
	}
	Deactivator interface {
		OnDeactivate(c *Component)
	}
	Initializer interface {
		InitializeComponent(c *Component)
	}
	ComponentBeginPlayer interface {
		BeginPlay(c *Component)
	}
	ComponentTicker interface {
		TickGroup() system.Group
		TickComponent(c *Component, dt time.Duration)
	}
	AttachmentObserver interface {
		OnAttachmentChanged(c *Component, oldParent, newParent *Component)
	}
)

// Component is the smallest attachable unit. It is exclusively owned by one
// Entity; its attachment links are back-references only.
type Component struct {
	id       ecs.ObjectID
	name     string
	owner    *Entity
	behavior any

	parent   *Component
	children []*Component

	state       RegistrationState
	active      bool
	initialized bool
	degraded    bool
	destroyed   bool

	tick *componentTick

	AutoActivate    bool // activate during entity initialization
	AutoRegister    bool // picked up by the registration scheduler
	WantsInitialize bool // receives InitializeComponent once
	Visual          bool // represented in the render scene
	Collision       bool // represented in the physics scene
}

func (c *Component) ID() ecs.ObjectID             { return c.id }
func (c *Component) Name() string                 { return c.name }
func (c *Component) Owner() *Entity               { return c.owner }
func (c *Component) Behavior() any                { return c.behavior }
func (c *Component) State() RegistrationState     { return c.state }
func (c *Component) IsRegistered() bool           { return c.state == Registered }
func (c *Component) IsActive() bool               { return c.active }
func (c *Component) IsInitialized() bool          { return c.initialized }
func (c *Component) IsDegraded() bool             { return c.degraded }
func (c *Component) IsDestroyed() bool            { return c.destroyed }
func (c *Component) AttachParent() *Component     { return c.parent }
func (c *Component) AttachChildren() []*Component { return append([]*Component(nil), c.children...) }

// Register brings the component online immediately, outside the scheduler.
// The owner must be in a level.
func (c *Component) Register() {
	invariant(!c.destroyed, "register destroyed component %q", c.name)
	l := c.owner.level
	invariant(l != nil, "register component %q of entity %q outside a level", c.name, c.owner.name)
	c.register(l.registerContext())
}

// register moves the component to Registered. Backend failures leave it
// registered but degraded; they never abort the caller.
func (c *Component) register(ctx RegisterContext) {
	if c.state != Unregistered {
		return
	}
	c.state = Registering

	var err error
	if c.Visual && ctx.Render != nil {
		err = ctx.Render.AddComponent(c)
	}
	if err == nil && c.Collision && ctx.Physics != nil {
		err = ctx.Physics.AddComponent(c)
	}
	if err == nil {
		if r, ok := c.behavior.(Registerer); ok {
			err = r.OnRegister(c, ctx)
		}
	}

	c.state = Registered
	if err != nil {
		c.degraded = true
		w := c.owner.world
		w.log.Warn("component registered degraded",
			zap.String("entity", c.owner.name),
			zap.String("component", c.name),
			zap.Error(err))
		event.Emit(w.bus, event.ComponentDegraded{
			Component: c.id,
			Entity:    c.owner.id,
			Name:      c.name,
			Reason:    err.Error(),
		})
	}
}

// Unregister tears down backend state. The owner has to run a registration
// pass again before it counts as fully registered.
func (c *Component) Unregister() {
	if c.state != Registered {
		return
	}
	c.unregisterTick()
	w := c.owner.world
	if c.Visual && w.backends.Render != nil {
		w.backends.Render.RemoveComponent(c)
	}
	if c.Collision && w.physics != nil {
		w.physics.RemoveComponent(c)
	}
	if u, ok := c.behavior.(Unregisterer); ok {
		u.OnUnregister(c)
	}
	c.state = Unregistered
	c.degraded = false
	c.owner.registeredAll = false
	if c.owner.level != nil && c.AutoRegister {
		c.owner.level.markDirty()
	}
}

// Activate is a no-op on active or unregistered components.
func (c *Component) Activate() {
	if c.active || c.state != Registered {
		return
	}
	c.active = true
	if a, ok := c.behavior.(Activator); ok {
		a.OnActivate(c)
	}
	if c.owner.ticking {
		c.registerTick()
	}
}

func (c *Component) Deactivate() {
	if !c.active {
		return
	}
	c.unregisterTick()
	c.active = false
	if d, ok := c.behavior.(Deactivator); ok {
		d.OnDeactivate(c)
	}
}

func (c *Component) initialize() {
	if c.initialized {
		return
	}
	c.initialized = true
	if i, ok := c.behavior.(Initializer); ok {
		i.InitializeComponent(c)
	}
}

// componentTick adapts a ticking behavior to the level's tick runner.
type componentTick struct {
	c *Component
	t ComponentTicker
}

func (t *componentTick) TickGroup() system.Group { return t.t.TickGroup() }
func (t *componentTick) Tick(dt time.Duration)   { t.t.TickComponent(t.c, dt) }

func (c *Component) registerTick() {
	t, ok := c.behavior.(ComponentTicker)
	if !ok || !c.active || c.owner.level == nil {
		return
	}
	if c.tick == nil {
		c.tick = &componentTick{c: c, t: t}
	}
	c.owner.level.runner.Register(c.tick)
}

func (c *Component) unregisterTick() {
	if c.tick != nil && c.owner.level != nil {
		c.owner.level.runner.Unregister(c.tick)
	}
}
