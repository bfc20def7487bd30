package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/subsystem"
	"github.com/scenecore/scenecore/internal/world"
	"go.uber.org/zap"
)

// Mode selects how the engine boots.
type Mode int

const (
	ModeGame Mode = iota
	ModeEditor
)

func (m Mode) String() string {
	if m == ModeEditor {
		return "editor"
	}
	return "game"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "game":
		return ModeGame, nil
	case "editor":
		return ModeEditor, nil
	}
	return ModeGame, fmt.Errorf("unknown engine mode %q", s)
}

// LevelSource finds level content by level name. A nil file with a nil
// error means the source does not have it.
type LevelSource interface {
	FindLevel(ctx context.Context, name string) (*content.LevelFile, error)
}

// Engine owns the world contexts, the root set and the content packages,
// and drives every context's world from a single loop goroutine.
type Engine struct {
	cfg      *config.Config
	log      *zap.Logger
	mode     Mode
	settings world.Settings
	backends world.Backends

	packages   *content.Registry
	catalog    *subsystem.Catalog
	subsystems *subsystem.Collection
	bus        *event.Bus
	builder    *content.Builder
	sources    []LevelSource

	contexts   []*WorldContext
	nextHandle int
	worlds     []*world.World
	rootSet    map[uuid.UUID]*world.World
	players    []*LocalPlayer

	idle     bool
	frame    uint64
	shutdown bool
}

// New creates an engine and initializes its engine-scope subsystems. Level
// sources are consulted in order; builder may be nil when no content is
// loaded.
func New(cfg *config.Config, log *zap.Logger, catalog *subsystem.Catalog, builder *content.Builder, sources ...LevelSource) (*Engine, error) {
	mode, err := ParseMode(cfg.Engine.Mode)
	if err != nil {
		return nil, err
	}
	optimize, err := world.ParseOptimization(cfg.Registration.Optimize)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = subsystem.NewCatalog()
	}

	e := &Engine{
		cfg:  cfg,
		log:  log,
		mode: mode,
		settings: world.Settings{
			ComponentsPerStep: cfg.Registration.ComponentsPerStep,
			StepsPerFrame:     cfg.Registration.StepsPerFrame,
			TimeSlice:         cfg.Registration.TimeSlice,
			Optimize:          optimize,
		},
		packages: content.NewRegistry(cfg.Content.TransientPackage),
		catalog:  catalog,
		bus:      event.NewBus(),
		builder:  builder,
		sources:  sources,
		rootSet:  make(map[uuid.UUID]*world.World),
		idle:     cfg.Engine.Idle,
	}
	e.subsystems = subsystem.NewCollection(subsystem.ScopeEngine, catalog, log)
	e.subsystems.Initialize(e)
	return e, nil
}

func (e *Engine) Mode() Mode                        { return e.mode }
func (e *Engine) Config() *config.Config            { return e.cfg }
func (e *Engine) Packages() *content.Registry       { return e.packages }
func (e *Engine) Subsystems() *subsystem.Collection { return e.subsystems }
func (e *Engine) Bus() *event.Bus                   { return e.bus }
func (e *Engine) Settings() world.Settings          { return e.settings }
func (e *Engine) Frame() uint64                     { return e.frame }
func (e *Engine) SetBackends(b world.Backends)      { e.backends = b }
func (e *Engine) SetIdle(idle bool)                 { e.idle = idle }
func (e *Engine) Worlds() []*world.World            { return append([]*world.World(nil), e.worlds...) }
func (e *Engine) Contexts() []*WorldContext         { return append([]*WorldContext(nil), e.contexts...) }
func (e *Engine) IsRooted(w *world.World) bool      { return e.rootSet[w.ID()] == w }
func (e *Engine) AddToRoot(w *world.World)          { e.rootSet[w.ID()] = w }
func (e *Engine) RemoveFromRoot(w *world.World)     { delete(e.rootSet, w.ID()) }
func (e *Engine) LevelSources() []LevelSource       { return append([]LevelSource(nil), e.sources...) }

// CreateContext appends a context of the given kind. Handles are unique for
// the life of the engine.
func (e *Engine) CreateContext(kind world.Kind) *WorldContext {
	c := &WorldContext{
		handle: fmt.Sprintf("Context_%d", e.nextHandle),
		kind:   kind,
		log:    e.log,
	}
	e.nextHandle++
	e.contexts = append(e.contexts, c)
	e.log.Debug("world context created", zap.String("context", c.handle), zap.String("kind", kind.String()))
	return c
}

// DestroyContext removes c and destroys the world it points at.
func (e *Engine) DestroyContext(c *WorldContext) {
	for i, x := range e.contexts {
		if x != c {
			continue
		}
		e.contexts = append(e.contexts[:i], e.contexts[i+1:]...)
		if w := c.world; w != nil {
			c.SetCurrentWorld(nil)
			e.DestroyWorld(w)
		}
		return
	}
}

func (e *Engine) ContextByHandle(handle string) (*WorldContext, bool) {
	for _, c := range e.contexts {
		if c.handle == handle {
			return c, true
		}
	}
	return nil, false
}

// ContextFor returns the context currently pointing at w.
func (e *Engine) ContextFor(w *world.World) (*WorldContext, bool) {
	for _, c := range e.contexts {
		if c.world == w {
			return c, true
		}
	}
	return nil, false
}

// EditorContext returns the editor context. The engine guarantees one after
// an editor-mode Init, so a missing one is a bootstrap bug and panics.
func (e *Engine) EditorContext() *WorldContext {
	for _, c := range e.contexts {
		if c.kind == world.KindEditor {
			return c
		}
	}
	world.Fatalf("no editor world context")
	return nil
}

// Init boots the engine. Editor mode creates the editor context and its
// world. Game mode creates a game context and world and loads the default
// level into its persistent level.
func (e *Engine) Init(ctx context.Context) error {
	if e.mode == ModeEditor {
		c := e.CreateContext(world.KindEditor)
		w, err := e.CreateWorld(CreateWorldParams{
			Kind:         world.KindEditor,
			Name:         "EditorWorld",
			InformEngine: true,
			AddToRoot:    true,
		})
		if err != nil {
			return err
		}
		c.SetCurrentWorld(w)
		e.log.Info("editor ready", zap.String("context", c.Handle()))
		return nil
	}

	kind, err := world.ParseKind(e.cfg.Engine.WorldKind)
	if err != nil {
		return err
	}
	if !kind.IsGame() {
		return fmt.Errorf("engine: world kind %s cannot run in game mode", kind)
	}
	c := e.CreateContext(kind)
	level := e.cfg.Content.DefaultLevel
	params := CreateWorldParams{
		Kind:         kind,
		Name:         e.cfg.Engine.Name,
		InformEngine: true,
		AddToRoot:    true,
	}
	if level != "" {
		params.Package = content.MapPackageName(level)
	}
	w, err := e.CreateWorld(params)
	if err != nil {
		return err
	}
	c.SetCurrentWorld(w)

	if level != "" {
		if err := e.LoadLevel(ctx, w.PersistentLevel(), level); err != nil {
			return err
		}
	}
	w.BeginPlay()
	e.log.Info("game ready",
		zap.String("context", c.Handle()),
		zap.String("world", w.Name()),
		zap.String("level", level))
	return nil
}

// FindLevel asks each level source in turn.
func (e *Engine) FindLevel(ctx context.Context, name string) (*content.LevelFile, error) {
	for _, src := range e.sources {
		lf, err := src.FindLevel(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("find level %s: %w", name, err)
		}
		if lf != nil {
			return lf, nil
		}
	}
	return nil, fmt.Errorf("level %s not found", name)
}

// LoadLevel appends the named level's entities to l. They register
// incrementally as the world ticks.
func (e *Engine) LoadLevel(ctx context.Context, l *world.Level, name string) error {
	if e.builder == nil {
		return fmt.Errorf("load level %s: no content builder", name)
	}
	lf, err := e.FindLevel(ctx, name)
	if err != nil {
		return err
	}
	if err := e.builder.Populate(l, lf); err != nil {
		return fmt.Errorf("load level %s: %w", name, err)
	}
	e.log.Info("level queued for registration",
		zap.String("level", name),
		zap.Int("entities", len(lf.Entities)),
		zap.Int("components", lf.ComponentCount()))
	return nil
}

// StreamLevel loads the named level as a new level in w's collection t.
func (e *Engine) StreamLevel(ctx context.Context, w *world.World, name string, t world.CollectionType) (*world.Level, error) {
	if e.builder == nil {
		return nil, fmt.Errorf("stream level %s: no content builder", name)
	}
	lf, err := e.FindLevel(ctx, name)
	if err != nil {
		return nil, err
	}
	pkg := e.packages.FindOrCreate(content.MapPackageName(name))
	pkg.ClearFlag(content.FlagDirty)
	return e.builder.LoadInto(w, lf, pkg, t)
}

// Tick advances every context's world by dt. In editor mode the editor
// context must exist.
func (e *Engine) Tick(dt time.Duration) {
	if e.shutdown {
		return
	}
	if e.mode == ModeEditor {
		e.EditorContext()
	}
	e.frame++
	e.bus.Flush()
	for _, c := range e.contexts {
		w := c.world
		if w == nil || !w.ShouldTick(e.idle) {
			continue
		}
		w.Tick(dt)
	}
}

// Run ticks at the configured rate until ctx is cancelled, then shuts the
// engine down.
func (e *Engine) Run(ctx context.Context) error {
	rate := e.cfg.Engine.TickRate
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			e.Tick(now.Sub(last))
			last = now
		case <-ctx.Done():
			e.Shutdown()
			return nil
		}
	}
}

// Shutdown destroys every world, then the per-player and engine
// subsystems. Calling it again is a no-op.
func (e *Engine) Shutdown() {
	if e.shutdown {
		return
	}
	for i := len(e.contexts) - 1; i >= 0; i-- {
		c := e.contexts[i]
		if w := c.world; w != nil {
			c.SetCurrentWorld(nil)
			e.DestroyWorld(w)
		}
	}
	for _, w := range e.Worlds() {
		e.DestroyWorld(w)
	}
	for _, w := range e.rootSet {
		e.DestroyWorld(w)
	}
	for i := len(e.players) - 1; i >= 0; i-- {
		e.players[i].subsystems.Deinitialize()
	}
	e.players = nil
	e.subsystems.Deinitialize()
	e.shutdown = true
	e.log.Info("engine shut down", zap.Uint64("frames", e.frame))
}
