package world

import (
	"github.com/scenecore/scenecore/internal/core/event"
	"go.uber.org/zap"
)

// The entity lifecycle pipeline. The registration scheduler and the spawn
// path both drive entities through these steps, in this order:
//
//	preRegisterAllComponents → registerComponents → postRegisterAllComponents
//	→ runConstruction → initialize → beginPlay

func (e *Entity) preRegisterAllComponents() {
	var override func(Base)
	if h, ok := e.behavior.(PreRegisterer); ok {
		override = func(b Base) { h.PreRegisterAllComponents(e, b) }
	}
	e.route(hookPreRegister, override, func() {})
	e.preRegistered = true
}

// registerComponents registers up to budget components (0 = all) and reports
// whether every auto-register component is now registered. A component whose
// same-entity attach parent is unregistered waits for that parent. It stops
// early once e leaves ctx.Level.
func (e *Entity) registerComponents(budget int, ctx RegisterContext) bool {
	done := 0
	for {
		if e.level != ctx.Level {
			return true
		}
		c := e.nextUnregistered()
		if c == nil {
			e.registeredAll = true
			return true
		}
		if budget > 0 && done >= budget {
			return false
		}
		c.register(ctx)
		done++
	}
}

func (e *Entity) nextUnregistered() *Component {
	var next *Component
	if e.root != nil && e.root.AutoRegister && e.root.state == Unregistered {
		next = e.root
	} else {
		for _, c := range e.components {
			if c.AutoRegister && c.state == Unregistered {
				next = c
				break
			}
		}
	}
	if next == nil {
		return nil
	}
	for p := next.parent; p != nil && p.owner == e; p = p.parent {
		if p.AutoRegister && p.state == Unregistered {
			next = p
		}
	}
	return next
}

// postRegisterAllComponents fires once per lifetime.
func (e *Entity) postRegisterAllComponents() {
	if e.postRegistered {
		return
	}
	e.postRegistered = true
	e.setPhase(PhaseComponentsRegistered)
	var override func(Base)
	if h, ok := e.behavior.(PostRegisterer); ok {
		override = func(b Base) { h.PostRegisterAllComponents(e, b) }
	}
	e.route(hookPostRegister, override, func() {})
}

// runConstruction runs the construction hook once. Components it creates go
// through pre-registration and registration before it returns.
func (e *Entity) runConstruction(ctx RegisterContext) {
	if e.HasPhase(PhaseConstructed) {
		return
	}
	var override func(Base)
	if h, ok := e.behavior.(Constructor); ok {
		override = func(b Base) { h.OnConstruction(e, b) }
	}
	e.route(hookConstruction, override, func() {})

	if !e.AllComponentsRegistered() {
		e.preRegisterAllComponents()
		e.registerComponents(0, ctx)
	}
	e.setPhase(PhaseConstructed)
}

// initialize runs pre-initialization, activation, component initialization
// and post-initialization. Activation precedes initialization.
func (e *Entity) initialize() {
	if e.HasPhase(PhaseComponentsInitialized) {
		return
	}
	var pre func(Base)
	if h, ok := e.behavior.(PreInitializer); ok {
		pre = func(b Base) { h.PreInitializeComponents(e, b) }
	}
	e.route(hookPreInitialize, pre, func() {})

	comps := e.Components()
	for _, c := range comps {
		if c.AutoActivate && c.state == Registered {
			c.Activate()
		}
	}
	for _, c := range comps {
		if c.WantsInitialize && c.state == Registered {
			c.initialize()
		}
	}
	e.setPhase(PhaseComponentsInitialized)

	var post func(Base)
	if h, ok := e.behavior.(PostInitializer); ok {
		post = func(b Base) { h.PostInitializeComponents(e, b) }
	}
	e.route(hookPostInitialize, post, func() {})
}

// canBeginPlay reports whether begin play has to wait. Replicated entities
// wait for MarkNetReady; attached entities wait for their attach parent.
func (e *Entity) canBeginPlay() bool {
	if !e.HasPhase(PhaseComponentsInitialized) {
		return false
	}
	if e.Replicated && !e.netReady {
		return false
	}
	if p := e.AttachParentEntity(); p != nil && p.IsValid() && !p.HasBegunPlay() {
		return false
	}
	return true
}

func (e *Entity) beginPlay() {
	if e.HasBegunPlay() {
		return
	}
	var override func(Base)
	if h, ok := e.behavior.(BeginPlayer); ok {
		override = func(b Base) { h.BeginPlay(e, b) }
	}
	e.route(hookBeginPlay, override, func() {
		for _, c := range e.Components() {
			if c.state != Registered {
				continue
			}
			if bp, ok := c.behavior.(ComponentBeginPlayer); ok {
				bp.BeginPlay(c)
			}
		}
		e.setPhase(PhaseBegunPlay)
		e.registerTickFunctions(true)
	})
	e.world.log.Debug("entity begun play", zap.String("entity", e.name))
	event.Emit(e.world.bus, event.EntityBegunPlay{Entity: e.id, Name: e.name})
}

func (e *Entity) endPlay(reason EndPlayReason) {
	if !e.HasBegunPlay() || e.endedPlay {
		return
	}
	e.endedPlay = true
	var override func(Base)
	if h, ok := e.behavior.(EndPlayer); ok {
		override = func(b Base) { h.EndPlay(e, reason, b) }
	}
	e.route(hookEndPlay, override, func() {
		e.registerTickFunctions(false)
	})
}

// registerTickFunctions adds or removes the entity's and its active
// components' tick functions on the owning level.
func (e *Entity) registerTickFunctions(register bool) {
	var override func(Base)
	if h, ok := e.behavior.(TickFunctionRegistrar); ok {
		override = func(b Base) { h.RegisterTickFunctions(e, register, b) }
	}
	e.route(hookRegisterTicks, override, func() {
		if register {
			e.addTicks()
		} else {
			e.removeTicks()
		}
	})
}

func (e *Entity) addTicks() {
	if e.level == nil || e.ticking {
		return
	}
	e.ticking = true
	if t, ok := e.behavior.(EntityTicker); ok && e.TickEnabled {
		if e.tick == nil {
			e.tick = &entityTick{e: e, t: t}
		}
		e.level.runner.Register(e.tick)
	}
	for _, c := range e.components {
		c.registerTick()
	}
}

func (e *Entity) removeTicks() {
	if !e.ticking {
		return
	}
	e.ticking = false
	if e.level != nil {
		if e.tick != nil {
			e.level.runner.Unregister(e.tick)
		}
		for _, c := range e.components {
			c.unregisterTick()
		}
	}
}

// SetTickEnabled toggles the entity's own tick function.
func (e *Entity) SetTickEnabled(on bool) {
	e.TickEnabled = on
	if !e.ticking || e.level == nil {
		return
	}
	t, ok := e.behavior.(EntityTicker)
	if !ok {
		return
	}
	if e.tick == nil {
		e.tick = &entityTick{e: e, t: t}
	}
	if on {
		e.level.runner.Register(e.tick)
	} else {
		e.level.runner.Unregister(e.tick)
	}
}

func (e *Entity) unregisterAllComponents() {
	for i := len(e.components) - 1; i >= 0; i-- {
		e.components[i].Unregister()
	}
}
