package subsystem

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type collectionState int

const (
	stateNew collectionState = iota
	stateInitialized
	stateDeinitialized
)

// Collection holds at most one live instance per subsystem type for one
// scope object. Accessed only from the engine loop goroutine.
type Collection struct {
	scope   Scope
	catalog *Catalog
	log     *zap.Logger
	outer   any
	state   collectionState

	allowed  map[reflect.Type]bool
	live     map[reflect.Type]Subsystem
	order    []reflect.Type
	creating map[reflect.Type]bool
	active   reflect.Type // type whose Initialize is running
}

func NewCollection(scope Scope, catalog *Catalog, log *zap.Logger) *Collection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collection{
		scope:    scope,
		catalog:  catalog,
		log:      log.With(zap.String("scope", scope.String())),
		allowed:  make(map[reflect.Type]bool),
		live:     make(map[reflect.Type]Subsystem),
		creating: make(map[reflect.Type]bool),
	}
}

func (c *Collection) Scope() Scope { return c.scope }
func (c *Collection) Outer() any   { return c.outer }
func (c *Collection) Len() int     { return len(c.live) }

// IsInitialized is true between Initialize and Deinitialize.
func (c *Collection) IsInitialized() bool { return c.state == stateInitialized }

// Initialize evaluates every class's creation predicate once against outer
// and creates the non-lazy ones in dependency order. Failures are logged and
// leave that subsystem absent.
func (c *Collection) Initialize(outer any) {
	if c.state != stateNew {
		return
	}
	c.outer = outer
	classes := c.catalog.Classes(c.scope)
	for _, cls := range classes {
		c.allowed[cls.Type] = cls.ShouldCreate == nil || cls.ShouldCreate(outer)
	}
	c.state = stateInitialized
	for _, cls := range classes {
		if cls.Lazy || !c.allowed[cls.Type] {
			continue
		}
		if _, err := c.getOrCreate(cls.Type); err != nil {
			c.log.Error("subsystem initialize failed", zap.Stringer("type", cls.Type), zap.Error(err))
		}
	}
	c.log.Debug("subsystems initialized", zap.Int("live", len(c.live)))
}

// Deinitialize calls Deinitialize on every live subsystem in reverse
// initialization order. Later calls are no-ops.
func (c *Collection) Deinitialize() {
	if c.state == stateDeinitialized {
		return
	}
	c.state = stateDeinitialized
	for i := len(c.order) - 1; i >= 0; i-- {
		t := c.order[i]
		c.live[t].Deinitialize()
		c.log.Debug("subsystem deinitialized", zap.Stringer("type", t))
	}
	c.live = make(map[reflect.Type]Subsystem)
	c.order = nil
}

// Get returns the live instance of t, if any.
func (c *Collection) Get(t reflect.Type) (Subsystem, bool) {
	s, ok := c.live[t]
	return s, ok
}

// Allowed reports the cached creation predicate result for t.
func (c *Collection) Allowed(t reflect.Type) bool { return c.allowed[t] }

// Types returns live subsystem types in initialization order.
func (c *Collection) Types() []reflect.Type { return append([]reflect.Type(nil), c.order...) }

func (c *Collection) getOrCreate(t reflect.Type) (Subsystem, error) {
	if s, ok := c.live[t]; ok {
		return s, nil
	}
	if c.state == stateDeinitialized {
		return nil, ErrDeinitialized
	}
	cls, ok := c.catalog.byType[t]
	if !ok || cls.Scope != c.scope {
		return nil, fmt.Errorf("%s: %w", t, ErrUnknown)
	}
	if c.state == stateNew {
		return nil, fmt.Errorf("%s: collection not initialized", t)
	}
	if !c.allowed[t] {
		return nil, fmt.Errorf("%s: %w", t, ErrNotAllowed)
	}
	if c.active != nil {
		panic(fmt.Sprintf("subsystem %s requested %s while initializing; declare it with DependsOn", c.active, t))
	}
	if c.creating[t] {
		return nil, fmt.Errorf("%s: %w", t, ErrCircular)
	}
	c.creating[t] = true
	defer delete(c.creating, t)

	for _, dep := range cls.DependsOn {
		if _, err := c.getOrCreate(dep); err != nil {
			return nil, fmt.Errorf("%s dependency: %w", t, err)
		}
	}

	s := cls.New()
	c.active = t
	err := s.Initialize(c)
	c.active = nil
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", t, err)
	}
	c.live[t] = s
	c.order = append(c.order, t)
	c.log.Debug("subsystem initialized", zap.Stringer("type", t))
	return s, nil
}

// Get returns the live T in c.
func Get[T Subsystem](c *Collection) (T, bool) {
	s, ok := c.live[typeOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return s.(T), true
}

// GetOrCreate returns the live T, creating it on first access.
func GetOrCreate[T Subsystem](c *Collection) (T, error) {
	var zero T
	s, err := c.getOrCreate(typeOf[T]())
	if err != nil {
		return zero, err
	}
	return s.(T), nil
}

// MustGet panics when T is not live.
func MustGet[T Subsystem](c *Collection) T {
	s, ok := Get[T](c)
	if !ok {
		panic(fmt.Sprintf("subsystem not live: %s", typeOf[T]()))
	}
	return s
}
