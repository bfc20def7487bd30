package subsystem

import (
	"errors"
	"fmt"
	"reflect"
)

// Scope is the kind of object a collection hangs off.
type Scope int

const (
	ScopeEngine Scope = iota
	ScopeWorld
	ScopeLocalPlayer
)

func (s Scope) String() string {
	switch s {
	case ScopeEngine:
		return "Engine"
	case ScopeWorld:
		return "World"
	case ScopeLocalPlayer:
		return "LocalPlayer"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

var (
	ErrDuplicate     = errors.New("subsystem type already registered")
	ErrUnknown       = errors.New("subsystem type not registered for scope")
	ErrNotAllowed    = errors.New("subsystem declined creation for this scope")
	ErrCircular      = errors.New("circular subsystem dependency")
	ErrDeinitialized = errors.New("subsystem collection deinitialized")
)

// Subsystem is a long-lived service scoped to an engine, world or player.
// Initialize and Deinitialize are each called exactly once.
type Subsystem interface {
	Initialize(c *Collection) error
	Deinitialize()
}

// Class describes how a collection creates one subsystem type.
type Class struct {
	Scope        Scope
	Type         reflect.Type
	New          func() Subsystem
	ShouldCreate func(outer any) bool // nil means always
	DependsOn    []reflect.Type
	Lazy         bool // created on first GetOrCreate instead of at Initialize
}

// Option tweaks a Class at registration.
type Option func(*Class)

// WithShouldCreate sets the creation predicate. It is evaluated once per
// collection, before any instance exists.
func WithShouldCreate(fn func(outer any) bool) Option {
	return func(c *Class) { c.ShouldCreate = fn }
}

// DependsOn makes T initialize before the registered type.
func DependsOn[T Subsystem]() Option {
	return func(c *Class) { c.DependsOn = append(c.DependsOn, typeOf[T]()) }
}

// Lazy defers creation until first access.
func Lazy() Option {
	return func(c *Class) { c.Lazy = true }
}

// Catalog lists the subsystem classes known to an engine. Registration order
// is initialization order among independent classes.
type Catalog struct {
	classes []*Class
	byType  map[reflect.Type]*Class
}

func NewCatalog() *Catalog {
	return &Catalog{byType: make(map[reflect.Type]*Class)}
}

// Register adds T to the catalog for scope.
func Register[T Subsystem](cat *Catalog, scope Scope, newFn func() T, opts ...Option) error {
	t := typeOf[T]()
	if _, ok := cat.byType[t]; ok {
		return fmt.Errorf("register %s: %w", t, ErrDuplicate)
	}
	c := &Class{
		Scope: scope,
		Type:  t,
		New:   func() Subsystem { return newFn() },
	}
	for _, o := range opts {
		o(c)
	}
	cat.classes = append(cat.classes, c)
	cat.byType[t] = c
	return nil
}

// MustRegister panics on error.
func MustRegister[T Subsystem](cat *Catalog, scope Scope, newFn func() T, opts ...Option) {
	if err := Register(cat, scope, newFn, opts...); err != nil {
		panic(err)
	}
}

// Classes returns the classes registered for scope in registration order.
func (cat *Catalog) Classes(scope Scope) []*Class {
	var out []*Class
	for _, c := range cat.classes {
		if c.Scope == scope {
			out = append(out, c)
		}
	}
	return out
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
