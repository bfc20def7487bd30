package world

import (
	"time"

	"github.com/scenecore/scenecore/internal/core/system"
)

// Level holds an ordered sequence of entities and the registration cursor
// that walks it.
type Level struct {
	name  string
	world *World
	pkg   PackageRef

	entities []*Entity
	cursor   Cursor
	dirty    bool

	runConstruction bool
	runner          *system.Runner

	collection   CollectionType
	inCollection bool
	released     bool
	completions  int
}

func (l *Level) Name() string           { return l.name }
func (l *Level) World() *World          { return l.world }
func (l *Level) Package() PackageRef    { return l.pkg }
func (l *Level) Len() int               { return len(l.entities) }
func (l *Level) Cursor() Cursor         { return l.cursor }
func (l *Level) IsReleased() bool       { return l.released }
func (l *Level) Runner() *system.Runner { return l.runner }

// Completions counts finished registration passes.
func (l *Level) Completions() int { return l.completions }

// Entities returns a copy of the entity sequence.
func (l *Level) Entities() []*Entity { return append([]*Entity(nil), l.entities...) }

// Collection reports which world collection holds the level.
func (l *Level) Collection() (CollectionType, bool) { return l.collection, l.inCollection }

// IsPersistent reports whether l is its world's persistent level.
func (l *Level) IsPersistent() bool {
	return l.world != nil && l.world.persistent == l
}

// SetRunConstruction makes registration passes run a separate construction
// step over all entities before finalizing. Levels loaded from content use it.
func (l *Level) SetRunConstruction(on bool) { l.runConstruction = on }

// IsFullyRegistered reports whether no registration pass is pending or in
// progress.
func (l *Level) IsFullyRegistered() bool {
	return !l.dirty && l.cursor.Step == StepInit
}

func (l *Level) markDirty() { l.dirty = true }

// AddEntity appends e to the sequence. It is picked up by the next
// registration pass.
func (l *Level) AddEntity(e *Entity) error {
	l.mustBeLive()
	if e.world != l.world {
		return ErrForeignEntity
	}
	if e.level != nil {
		return ErrEntityInLevel
	}
	l.entities = append(l.entities, e)
	e.level = l
	e.endedPlay = false
	l.dirty = true
	return nil
}

// AddEntities appends in order and stops at the first error.
func (l *Level) AddEntities(es ...*Entity) error {
	for _, e := range es {
		if err := l.AddEntity(e); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEntity takes e out of the level, ending its play and unregistering
// its components. Removing index i < cursor shifts the cursor down by one.
func (l *Level) RemoveEntity(e *Entity) bool {
	i := l.indexOf(e)
	if i < 0 {
		return false
	}
	e.endPlay(EndPlayRemovedFromLevel)
	e.removeTicks()
	l.entities = append(l.entities[:i], l.entities[i+1:]...)
	if i < l.cursor.Index {
		l.cursor.Index--
	}
	e.level = nil
	e.unregisterAllComponents()
	return true
}

func (l *Level) indexOf(e *Entity) int {
	for i, x := range l.entities {
		if x == e {
			return i
		}
	}
	return -1
}

// Tick runs the level's tick functions.
func (l *Level) Tick(dt time.Duration) {
	if l.released {
		return
	}
	l.runner.Tick(dt)
}

func (l *Level) registerContext() RegisterContext {
	w := l.world
	return RegisterContext{
		World:   w,
		Level:   l,
		Render:  w.backends.Render,
		Physics: w.physics,
	}
}

func (l *Level) mustBeLive() {
	invariant(!l.released && l.world != nil, "use of released level %q", l.name)
}

// release ends play, unregisters everything and drops the world link.
func (l *Level) release() {
	if l.released {
		return
	}
	for _, e := range l.Entities() {
		e.endPlay(EndPlayWorldTeardown)
		e.removeTicks()
	}
	for i := len(l.entities) - 1; i >= 0; i-- {
		e := l.entities[i]
		e.level = nil
		e.unregisterAllComponents()
		l.world.releaseEntity(e)
	}
	l.entities = nil
	l.runner.Clear()
	l.cursor = Cursor{}
	l.dirty = false
	l.inCollection = false
	l.world = nil
	l.released = true
}
