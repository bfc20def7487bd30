package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/subsystem"
	"go.uber.org/zap"
)

// PersistentLevelName is the name of the level every world is created with.
const PersistentLevelName = "PersistentLevel"

// Settings tune how a world advances level registration each tick.
type Settings struct {
	ComponentsPerStep int           // budget per IncrementalRegister call, 0 = unlimited
	StepsPerFrame     int           // calls per level per tick, 0 = until the time slice runs out
	TimeSlice         time.Duration // 0 = no time limit
	Optimize          Optimization
}

func DefaultSettings() Settings {
	return Settings{
		ComponentsPerStep: 50,
		StepsPerFrame:     0,
		TimeSlice:         5 * time.Millisecond,
		Optimize:          OptimizeOn,
	}
}

// Options configure New. Zero values are replaced with defaults.
type Options struct {
	ID         uuid.UUID
	Name       string
	Kind       Kind
	InitValues *InitValues
	Package    PackageRef
	Settings   *Settings
	Backends   Backends
	Catalog    *subsystem.Catalog
	Logger     *zap.Logger
}

// World owns its levels and, through them, every entity and component.
// Accessed only from the engine loop goroutine.
type World struct {
	id         uuid.UUID
	name       string
	kind       Kind
	initValues InitValues
	pkg        PackageRef
	log        *zap.Logger

	arena      *ecs.Arena
	entities   *ecs.Store[Entity]
	components *ecs.Store[Component]
	bus        *event.Bus

	persistent  *Level
	collections [numCollections]LevelCollection
	subsystems  *subsystem.Collection

	settings Settings
	backends Backends
	physics  Scene

	begunPlay    bool
	paused       bool
	tickWhenIdle bool
	tornDown     bool

	frame   uint64
	delta   time.Duration
	elapsed time.Duration

	pendingBeginPlay []*Entity
}

// New creates a world with an empty persistent level in the dynamic source
// collection and initializes its subsystem collection.
func New(opts Options) *World {
	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "World_" + opts.ID.String()[:8]
	}
	iv := DefaultInitValues(opts.Kind)
	if opts.InitValues != nil {
		iv = *opts.InitValues
	}
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	if opts.Backends.Render == nil {
		opts.Backends.Render = nopScene{}
	}

	w := &World{
		id:         opts.ID,
		name:       opts.Name,
		kind:       opts.Kind,
		initValues: iv,
		pkg:        opts.Package,
		log:        opts.Logger.With(zap.String("world", opts.Name)),
		arena:      ecs.NewArena(),
		entities:   ecs.NewStore[Entity](),
		components: ecs.NewStore[Component](),
		bus:        event.NewBus(),
		settings:   settings,
		backends:   opts.Backends,
	}
	w.arena.Track(w.entities)
	w.arena.Track(w.components)
	for i := range w.collections {
		w.collections[i].Type = CollectionType(i)
	}

	if iv.CreatePhysicsScene {
		if opts.Backends.NewPhysicsScene != nil {
			w.physics = opts.Backends.NewPhysicsScene(w)
		} else {
			w.physics = nopScene{}
		}
	}

	w.persistent = w.NewLevel(PersistentLevelName, opts.Package)
	w.collections[CollectionDynamicSource].add(w.persistent)
	w.persistent.collection = CollectionDynamicSource
	w.persistent.inCollection = true

	catalog := opts.Catalog
	if catalog == nil {
		catalog = subsystem.NewCatalog()
	}
	w.subsystems = subsystem.NewCollection(subsystem.ScopeWorld, catalog, w.log)
	w.subsystems.Initialize(w)

	w.log.Debug("world created",
		zap.String("kind", w.kind.String()),
		zap.Bool("physics", w.physics != nil),
		zap.Bool("navigation", iv.CreateNavigation))
	return w
}

func (w *World) ID() uuid.UUID                     { return w.id }
func (w *World) Name() string                      { return w.name }
func (w *World) Kind() Kind                        { return w.kind }
func (w *World) InitValues() InitValues            { return w.initValues }
func (w *World) Package() PackageRef               { return w.pkg }
func (w *World) PersistentLevel() *Level           { return w.persistent }
func (w *World) Subsystems() *subsystem.Collection { return w.subsystems }
func (w *World) Bus() *event.Bus                   { return w.bus }
func (w *World) Settings() Settings                { return w.settings }
func (w *World) PhysicsScene() Scene               { return w.physics }
func (w *World) HasBegunPlay() bool                { return w.begunPlay }
func (w *World) IsTornDown() bool                  { return w.tornDown }
func (w *World) Frame() uint64                     { return w.frame }
func (w *World) Elapsed() time.Duration            { return w.elapsed }
func (w *World) Logger() *zap.Logger               { return w.log }

// DeltaSeconds is the delta of the most recent tick.
func (w *World) DeltaSeconds() float64 { return w.delta.Seconds() }

func (w *World) SetPaused(p bool)       { w.paused = p }
func (w *World) IsPaused() bool         { return w.paused }
func (w *World) SetTickWhenIdle(b bool) { w.tickWhenIdle = b }

// ShouldTick reports whether the engine loop should tick the world this
// frame. idle is the engine's idle state.
func (w *World) ShouldTick(idle bool) bool {
	if w.tornDown || w.paused {
		return false
	}
	return !idle || w.tickWhenIdle
}

// Collection returns the collection of type t.
func (w *World) Collection(t CollectionType) (*LevelCollection, bool) {
	if !t.Valid() {
		return nil, false
	}
	return &w.collections[t], true
}

// Levels returns every level in deterministic tick order.
func (w *World) Levels() []*Level {
	var out []*Level
	for i := range w.collections {
		out = append(out, w.collections[i].levels...)
	}
	return out
}

// NewLevel creates a level owned by w. It is not ticked until AddLevel.
func (w *World) NewLevel(name string, pkg PackageRef) *Level {
	w.mustBeLive()
	return &Level{
		name:   name,
		world:  w,
		pkg:    pkg,
		runner: system.NewRunner(),
	}
}

// AddLevel puts l into collection t.
func (w *World) AddLevel(l *Level, t CollectionType) error {
	w.mustBeLive()
	if l.world != w {
		return ErrForeignLevel
	}
	if l.inCollection {
		return ErrLevelInCollection
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCollection, int(t))
	}
	w.collections[t].add(l)
	l.collection = t
	l.inCollection = true
	return nil
}

// RemoveLevel takes l out of its collection and releases it.
func (w *World) RemoveLevel(l *Level) error {
	if l == w.persistent {
		return ErrPersistentLevel
	}
	if l.world != w || !l.inCollection {
		return ErrLevelNotFound
	}
	w.collections[l.collection].remove(l)
	l.release()
	w.log.Debug("level removed", zap.String("level", l.name))
	return nil
}

// NewEntity creates an entity with no level and no components.
func (w *World) NewEntity(name string, behavior any) *Entity {
	w.mustBeLive()
	e := &Entity{
		id:       w.arena.Create(),
		name:     name,
		world:    w,
		behavior: behavior,
	}
	w.entities.Set(e.id, e)
	return e
}

// Entity looks up a live entity by id.
func (w *World) Entity(id ecs.ObjectID) (*Entity, bool) {
	return w.entities.Get(id)
}

// Component looks up a live component by id.
func (w *World) Component(id ecs.ObjectID) (*Component, bool) {
	return w.components.Get(id)
}

// SpawnEntity creates an entity in level, lets setup add its components and
// runs the whole pipeline synchronously.
func (w *World) SpawnEntity(level *Level, name string, behavior any, setup func(*Entity)) (*Entity, error) {
	if level == nil {
		level = w.persistent
	}
	level.mustBeLive()
	if level.world != w {
		return nil, ErrForeignLevel
	}
	e := w.NewEntity(name, behavior)
	if setup != nil {
		setup(e)
	}
	dirty := level.dirty
	if err := level.AddEntity(e); err != nil {
		return nil, err
	}
	level.dirty = dirty

	ctx := level.registerContext()
	e.preRegisterAllComponents()
	e.registerComponents(0, ctx)
	e.postRegisterAllComponents()
	e.runConstruction(ctx)
	if w.kind.InitializesEntities() {
		e.initialize()
	}
	if w.begunPlay {
		w.dispatchBeginPlay(e)
	}
	return e, nil
}

// DestroyEntity ends e's play now and releases it at the end of the tick.
func (w *World) DestroyEntity(e *Entity) {
	if !e.IsValid() || e.world != w {
		return
	}
	e.endPlay(EndPlayDestroyed)
	e.removeTicks()
	e.pendingKill = true
	e.detachForeignChildren()
	w.arena.MarkForDestruction(e.id)
}

func (w *World) flushDestroyQueue() {
	w.arena.FlushDestroyQueue(func(id ecs.ObjectID) {
		e, ok := w.entities.Get(id)
		if !ok {
			return
		}
		if e.level != nil {
			e.level.RemoveEntity(e)
		}
		w.releaseComponents(e)
		e.phases = 0
		event.Emit(w.bus, event.EntityDestroyed{Entity: e.id, Name: e.name})
	})
}

// releaseEntity frees an entity that has already left its level.
func (w *World) releaseEntity(e *Entity) {
	w.releaseComponents(e)
	e.pendingKill = true
	e.phases = 0
	w.arena.Release(e.id)
}

func (w *World) releaseComponents(e *Entity) {
	for _, c := range e.components {
		c.Detach()
		c.destroyed = true
		w.arena.Release(c.id)
	}
}

// BeginPlay starts play on every initialized entity.
func (w *World) BeginPlay() {
	w.mustBeLive()
	if w.begunPlay {
		return
	}
	w.begunPlay = true
	w.log.Info("world begin play", zap.String("kind", w.kind.String()))
	for _, l := range w.Levels() {
		for _, e := range l.Entities() {
			if e.IsValid() && e.HasPhase(PhaseComponentsInitialized) {
				w.dispatchBeginPlay(e)
			}
		}
	}
	w.retryBeginPlay()
}

func (w *World) dispatchBeginPlay(e *Entity) {
	if e.HasBegunPlay() {
		return
	}
	if !e.canBeginPlay() {
		for _, p := range w.pendingBeginPlay {
			if p == e {
				return
			}
		}
		w.pendingBeginPlay = append(w.pendingBeginPlay, e)
		return
	}
	e.beginPlay()
}

// retryBeginPlay starts deferred entities that became ready. It loops so a
// chain of nested entities starts within one call.
func (w *World) retryBeginPlay() {
	for progress := true; progress && len(w.pendingBeginPlay) > 0; {
		progress = false
		pending := w.pendingBeginPlay
		w.pendingBeginPlay = nil
		for _, e := range pending {
			switch {
			case !e.IsValid() || e.level == nil || e.HasBegunPlay():
			case e.canBeginPlay():
				e.beginPlay()
				progress = true
			default:
				w.pendingBeginPlay = append(w.pendingBeginPlay, e)
			}
		}
	}
}

// PendingBeginPlay returns the entities whose begin play is deferred.
func (w *World) PendingBeginPlay() []*Entity {
	return append([]*Entity(nil), w.pendingBeginPlay...)
}

// Tick ticks every level in collection order, advances unfinished
// registration passes, starts deferred entities and flushes destruction.
func (w *World) Tick(dt time.Duration) {
	w.mustBeLive()
	w.frame++
	w.delta = dt
	w.elapsed += dt

	w.bus.Flush()

	levels := w.Levels()
	for _, l := range levels {
		l.Tick(dt)
	}
	for _, l := range levels {
		if !l.released && !l.IsFullyRegistered() {
			w.advanceRegistration(l)
		}
	}
	if w.begunPlay {
		w.retryBeginPlay()
	}
	w.flushDestroyQueue()
}

func (w *World) advanceRegistration(l *Level) {
	start := time.Now()
	for step := 1; ; step++ {
		if l.IncrementalRegister(w.settings.ComponentsPerStep) {
			return
		}
		if w.settings.StepsPerFrame > 0 && step >= w.settings.StepsPerFrame {
			return
		}
		if w.settings.TimeSlice > 0 && time.Since(start) >= w.settings.TimeSlice {
			return
		}
	}
}

// Destroy tears the world down: play ends, the subsystem collection is
// deinitialized once, then every level is released. Calling it again is a
// no-op.
func (w *World) Destroy() {
	if w.tornDown {
		return
	}
	w.log.Info("world teardown")
	levels := w.Levels()
	for _, l := range levels {
		for _, e := range l.Entities() {
			e.endPlay(EndPlayWorldTeardown)
		}
	}

	w.subsystems.Deinitialize()

	for i := len(levels) - 1; i >= 0; i-- {
		levels[i].release()
	}
	for i := range w.collections {
		w.collections[i].levels = nil
	}
	w.flushDestroyQueue()
	w.persistent = nil
	w.pendingBeginPlay = nil
	w.tornDown = true
}

func (w *World) mustBeLive() {
	invariant(!w.tornDown, "use of torn down world %q", w.name)
}
