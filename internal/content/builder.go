package content

import (
	"fmt"

	"github.com/scenecore/scenecore/internal/world"
	"go.uber.org/zap"
)

// ComponentFactory returns the behavior for a component of a given type.
type ComponentFactory func(def ComponentDef) any

// ScriptRunner runs a named construction function against an entity.
type ScriptRunner interface {
	Construct(e *world.Entity, fn string) error
}

// Builder turns level files into entities. Component types are looked up
// by name; the "" and "scene" types have no behavior.
type Builder struct {
	types   map[string]ComponentFactory
	scripts ScriptRunner
	log     *zap.Logger
}

func NewBuilder(scripts ScriptRunner, log *zap.Logger) *Builder {
	b := &Builder{
		types:   make(map[string]ComponentFactory),
		scripts: scripts,
		log:     log,
	}
	b.types[""] = func(ComponentDef) any { return nil }
	b.types["scene"] = b.types[""]
	return b
}

// RegisterType adds a component type. Names are unique.
func (b *Builder) RegisterType(name string, f ComponentFactory) error {
	if _, ok := b.types[name]; ok {
		return fmt.Errorf("component type %q already registered", name)
	}
	b.types[name] = f
	return nil
}

// Behavior returns the behavior for a component definition.
func (b *Builder) Behavior(cd ComponentDef) (any, error) {
	f, ok := b.types[cd.Type]
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", cd.Type)
	}
	return f(cd), nil
}

// Build creates the level's entities in file order, fully constructed but
// not yet in any level. On error the entities created so far are destroyed.
func (b *Builder) Build(w *world.World, lf *LevelFile) ([]*world.Entity, error) {
	out := make([]*world.Entity, 0, len(lf.Entities))
	byName := make(map[string]*world.Entity, len(lf.Entities))
	fail := func(err error) ([]*world.Entity, error) {
		for _, e := range out {
			w.DestroyEntity(e)
		}
		return nil, fmt.Errorf("build level %s: %w", lf.Level, err)
	}

	for _, ed := range lf.Entities {
		e, err := b.buildEntity(w, ed)
		if err != nil {
			return fail(err)
		}
		out = append(out, e)
		byName[ed.Name] = e
	}

	for _, ed := range lf.Entities {
		if ed.AttachTo == nil {
			continue
		}
		child := byName[ed.Name]
		target := byName[ed.AttachTo.Entity]
		if target == nil || child.Root() == nil {
			return fail(fmt.Errorf("entity %q cannot attach to %q", ed.Name, ed.AttachTo.Entity))
		}
		parent := target.FindComponent(ed.AttachTo.Component)
		if err := child.Root().AttachTo(parent); err != nil {
			return fail(fmt.Errorf("attach %q to %s.%s: %w", ed.Name, ed.AttachTo.Entity, ed.AttachTo.Component, err))
		}
	}

	b.log.Debug("level built",
		zap.String("level", lf.Level),
		zap.Int("entities", len(out)),
		zap.Int("components", lf.ComponentCount()))
	return out, nil
}

func (b *Builder) buildEntity(w *world.World, ed EntityDef) (*world.Entity, error) {
	var behavior any
	if ed.Script != "" {
		if b.scripts == nil {
			return nil, fmt.Errorf("entity %q wants script %q but scripting is off", ed.Name, ed.Script)
		}
		behavior = &scriptedEntity{runner: b.scripts, fn: ed.Script, log: b.log}
	}
	e := w.NewEntity(ed.Name, behavior)
	e.TickEnabled = ed.Tick
	e.Replicated = ed.Replicated

	for _, cd := range ed.Components {
		behavior, err := b.Behavior(cd)
		if err != nil {
			w.DestroyEntity(e)
			return nil, fmt.Errorf("entity %q: %w", ed.Name, err)
		}
		ApplyFlags(e.AddComponent(cd.Name, behavior), cd)
	}
	for _, cd := range ed.Components {
		if cd.Parent == "" {
			continue
		}
		if err := e.FindComponent(cd.Name).AttachTo(e.FindComponent(cd.Parent)); err != nil {
			w.DestroyEntity(e)
			return nil, fmt.Errorf("entity %q: attach %q to %q: %w", ed.Name, cd.Name, cd.Parent, err)
		}
	}
	if ed.Root != "" {
		if err := e.SetRoot(e.FindComponent(ed.Root)); err != nil {
			w.DestroyEntity(e)
			return nil, fmt.Errorf("entity %q: root %q: %w", ed.Name, ed.Root, err)
		}
	}
	return e, nil
}

// ApplyFlags copies the definition's lifecycle flags onto c.
func ApplyFlags(c *world.Component, cd ComponentDef) {
	c.AutoActivate = cd.AutoActivate
	c.WantsInitialize = cd.WantsInitialize
	c.Visual = cd.Visual
	c.Collision = cd.Collision
	if cd.AutoRegister != nil {
		c.AutoRegister = *cd.AutoRegister
	}
}

// Populate appends the level file's entities to an existing level, e.g. a
// world's persistent level.
func (b *Builder) Populate(l *world.Level, lf *LevelFile) error {
	es, err := b.Build(l.World(), lf)
	if err != nil {
		return err
	}
	if lf.RunConstruction {
		l.SetRunConstruction(true)
	}
	return l.AddEntities(es...)
}

// LoadInto creates a new level from lf and adds it to the given collection.
// Registration happens incrementally as the world ticks.
func (b *Builder) LoadInto(w *world.World, lf *LevelFile, pkg world.PackageRef, t world.CollectionType) (*world.Level, error) {
	l := w.NewLevel(lf.Level, pkg)
	if err := b.Populate(l, lf); err != nil {
		return nil, err
	}
	if err := w.AddLevel(l, t); err != nil {
		return nil, err
	}
	return l, nil
}

// scriptedEntity runs a construction script after the base construction.
// Script errors are soft: logged, and the entity continues.
type scriptedEntity struct {
	runner ScriptRunner
	fn     string
	log    *zap.Logger
}

func (s *scriptedEntity) OnConstruction(e *world.Entity, base world.Base) {
	base()
	if err := s.runner.Construct(e, s.fn); err != nil {
		s.log.Warn("construction script failed",
			zap.String("entity", e.Name()),
			zap.String("script", s.fn),
			zap.Error(err))
	}
}
