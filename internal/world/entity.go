package world

import (
	"time"

	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/system"
)

// Phase flags record how far an entity has come through its lifecycle.
// They are set in order and only cleared when the entity is destroyed.
type Phase uint8

const (
	PhaseComponentsRegistered Phase = 1 << iota
	PhaseConstructed
	PhaseComponentsInitialized
	PhaseBegunPlay
)

var phaseOrder = [...]Phase{PhaseComponentsRegistered, PhaseConstructed, PhaseComponentsInitialized, PhaseBegunPlay}

func (p Phase) String() string {
	switch p {
	case PhaseComponentsRegistered:
		return "ComponentsRegistered"
	case PhaseConstructed:
		return "Constructed"
	case PhaseComponentsInitialized:
		return "ComponentsInitialized"
	case PhaseBegunPlay:
		return "BegunPlay"
	}
	return "Phase(?)"
}

// EndPlayReason says why an entity stopped playing.
type EndPlayReason int

const (
	EndPlayDestroyed EndPlayReason = iota
	EndPlayRemovedFromLevel
	EndPlayWorldTeardown
)

// Base runs the default behavior of a lifecycle hook. Every override must
// call it exactly once.
type Base func()

// Optional entity hooks. An entity's behavior value may implement any subset.
type (
	PreRegisterer interface {
		PreRegisterAllComponents(e *Entity, base Base)
	}
	PostRegisterer interface {
		PostRegisterAllComponents(e *Entity, base Base)
	}
	Constructor interface {
		OnConstruction(e *Entity, base Base)
	}
	PreInitializer interface {
		PreInitializeComponents(e *Entity, base Base)
	}
	PostInitializer interface {
		PostInitializeComponents(e *Entity, base Base)
	}
	BeginPlayer interface {
		BeginPlay(e *Entity, base Base)
	}
	EndPlayer interface {
		EndPlay(e *Entity, reason EndPlayReason, base Base)
	}
	TickFunctionRegistrar interface {
		RegisterTickFunctions(e *Entity, register bool, base Base)
	}
	EntityTicker interface {
		Tick(e *Entity, dt time.Duration)
	}
	// TickGrouper overrides the default PrePhysics group of an EntityTicker.
	TickGrouper interface {
		TickGroup() system.Group
	}
)

// hook names the lifecycle hook currently being routed; it doubles as the
// chain-intact sentinel.
type hook uint8

const (
	hookNone hook = iota
	hookPreRegister
	hookPostRegister
	hookConstruction
	hookPreInitialize
	hookPostInitialize
	hookBeginPlay
	hookEndPlay
	hookRegisterTicks
)

var hookNames = [...]string{"none", "PreRegisterAllComponents", "PostRegisterAllComponents", "OnConstruction",
	"PreInitializeComponents", "PostInitializeComponents", "BeginPlay", "EndPlay", "RegisterTickFunctions"}

// Entity owns an unordered set of components and moves them through the
// lifecycle. Accessed only from the owning world's goroutine.
type Entity struct {
	id       ecs.ObjectID
	name     string
	world    *World
	level    *Level
	behavior any

	root       *Component
	components []*Component

	phases         Phase
	preRegistered  bool // has-pre-registered bit
	postRegistered bool // post-registration fired; once per lifetime
	registeredAll  bool // cached "all auto-register components registered"
	pendingKill    bool
	netReady       bool
	ticking        bool
	endedPlay      bool

	chain hook
	tick  *entityTick

	TickEnabled bool
	// Replicated entities wait for MarkNetReady before beginning play.
	Replicated bool
}

func (e *Entity) ID() ecs.ObjectID           { return e.id }
func (e *Entity) Name() string               { return e.name }
func (e *Entity) World() *World              { return e.world }
func (e *Entity) Level() *Level              { return e.level }
func (e *Entity) Behavior() any              { return e.behavior }
func (e *Entity) Root() *Component           { return e.root }
func (e *Entity) Phases() Phase              { return e.phases }
func (e *Entity) HasPhase(p Phase) bool      { return e.phases&p == p }
func (e *Entity) HasBegunPlay() bool         { return e.HasPhase(PhaseBegunPlay) }
func (e *Entity) HasPreRegistered() bool     { return e.preRegistered }
func (e *Entity) IsPendingKill() bool        { return e.pendingKill }
func (e *Entity) Components() []*Component   { return append([]*Component(nil), e.components...) }
func (e *Entity) IsTicking() bool            { return e.ticking }
func (e *Entity) SetBehavior(b any)          { e.behavior = b }
func (e *Entity) SetRoot(c *Component) error { return e.setRoot(c) }

// IsValid reports whether the entity is alive and not waiting for destruction.
func (e *Entity) IsValid() bool {
	return e != nil && !e.pendingKill && e.world != nil && e.world.arena.Alive(e.id)
}

// AddComponent creates a component owned by e. The first component becomes
// the root. In a level, an auto-register component makes the level dirty.
func (e *Entity) AddComponent(name string, behavior any) *Component {
	invariant(e.world != nil && !e.pendingKill, "add component %q to dead entity %q", name, e.name)
	c := &Component{
		id:           e.world.arena.Create(),
		name:         name,
		owner:        e,
		behavior:     behavior,
		AutoRegister: true,
	}
	e.world.components.Set(c.id, c)
	e.components = append(e.components, c)
	if e.root == nil {
		e.root = c
	}
	e.registeredAll = false
	if e.level != nil {
		e.level.markDirty()
	}
	return c
}

// FindComponent returns the first component called name.
func (e *Entity) FindComponent(name string) *Component {
	for _, c := range e.components {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (e *Entity) setRoot(c *Component) error {
	if c == nil || c.owner != e || c.destroyed {
		return ErrInvalidComponent
	}
	e.root = c
	return nil
}

// AllComponentsRegistered checks the live state of every auto-register component.
func (e *Entity) AllComponentsRegistered() bool {
	for _, c := range e.components {
		if c.AutoRegister && c.state != Registered {
			return false
		}
	}
	return true
}

// MarkNetReady releases a replicated entity's deferred begin play.
func (e *Entity) MarkNetReady() {
	e.netReady = true
}

func (e *Entity) setPhase(p Phase) {
	if e.HasPhase(p) {
		return
	}
	for _, prev := range phaseOrder {
		if prev == p {
			break
		}
		invariant(e.HasPhase(prev), "entity %q reached %s before %s", e.name, p, prev)
	}
	e.phases |= p
}

// route runs one lifecycle hook. The sentinel is armed before the override
// runs and must have been cleared by its Base call when it returns.
func (e *Entity) route(h hook, override func(Base), base func()) {
	prev := e.chain
	e.chain = h
	b := func() {
		e.chain = hookNone
		base()
	}
	if override != nil {
		override(b)
	} else {
		b()
	}
	invariant(e.chain != h, "%s on entity %q did not call its base", hookNames[h], e.name)
	e.chain = prev
}

// entityTick adapts an EntityTicker to the level's tick runner.
type entityTick struct {
	e *Entity
	t EntityTicker
}

func (t *entityTick) TickGroup() system.Group {
	if g, ok := t.e.behavior.(TickGrouper); ok {
		return g.TickGroup()
	}
	return system.GroupPrePhysics
}

func (t *entityTick) Tick(dt time.Duration) { t.t.Tick(t.e, dt) }
