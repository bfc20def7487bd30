package subsystem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct{ lines []string }

func (j *journal) add(s string) { j.lines = append(j.lines, s) }

type navSystem struct{ j *journal }

func (n *navSystem) Initialize(*Collection) error { n.j.add("nav+"); return nil }
func (n *navSystem) Deinitialize()                { n.j.add("nav-") }

type aiSystem struct{ j *journal }

func (a *aiSystem) Initialize(c *Collection) error {
	_, ok := Get[*navSystem](c)
	if !ok {
		return errors.New("navigation missing")
	}
	a.j.add("ai+")
	return nil
}
func (a *aiSystem) Deinitialize() { a.j.add("ai-") }

type audioSystem struct{ j *journal }

func (a *audioSystem) Initialize(*Collection) error { a.j.add("audio+"); return nil }
func (a *audioSystem) Deinitialize()                { a.j.add("audio-") }

type brokenSystem struct{}

func (brokenSystem) Initialize(*Collection) error { return errors.New("boom") }
func (brokenSystem) Deinitialize()                {}

type greedySystem struct{}

func (greedySystem) Initialize(c *Collection) error {
	_, err := GetOrCreate[*audioSystem](c)
	return err
}
func (greedySystem) Deinitialize() {}

func TestCollectionInitializesInDependencyOrder(t *testing.T) {
	j := &journal{}
	cat := NewCatalog()
	MustRegister(cat, ScopeWorld, func() *aiSystem { return &aiSystem{j} }, DependsOn[*navSystem]())
	MustRegister(cat, ScopeWorld, func() *navSystem { return &navSystem{j} })

	c := NewCollection(ScopeWorld, cat, nil)
	c.Initialize("outer")

	assert.Equal(t, []string{"nav+", "ai+"}, j.lines)
	assert.Equal(t, "outer", c.Outer())

	c.Deinitialize()
	c.Deinitialize()
	assert.Equal(t, []string{"nav+", "ai+", "ai-", "nav-"}, j.lines)
	assert.False(t, c.IsInitialized())
}

func TestShouldCreateEvaluatedOnce(t *testing.T) {
	j := &journal{}
	calls := 0
	cat := NewCatalog()
	MustRegister(cat, ScopeWorld, func() *navSystem { return &navSystem{j} },
		Lazy(),
		WithShouldCreate(func(outer any) bool {
			calls++
			return outer == "editor"
		}))

	game := NewCollection(ScopeWorld, cat, nil)
	game.Initialize("game")
	_, err := GetOrCreate[*navSystem](game)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = GetOrCreate[*navSystem](game)
	assert.ErrorIs(t, err, ErrNotAllowed)

	editor := NewCollection(ScopeWorld, cat, nil)
	editor.Initialize("editor")
	assert.Equal(t, 0, editor.Len(), "lazy subsystem is not created up front")
	a, err := GetOrCreate[*navSystem](editor)
	require.NoError(t, err)
	b, err := GetOrCreate[*navSystem](editor)
	require.NoError(t, err)
	assert.Same(t, a, b)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"nav+"}, j.lines)
}

func TestScopesAreSeparate(t *testing.T) {
	j := &journal{}
	cat := NewCatalog()
	MustRegister(cat, ScopeEngine, func() *audioSystem { return &audioSystem{j} })

	w := NewCollection(ScopeWorld, cat, nil)
	w.Initialize(nil)
	_, err := GetOrCreate[*audioSystem](w)
	assert.ErrorIs(t, err, ErrUnknown)

	e := NewCollection(ScopeEngine, cat, nil)
	e.Initialize(nil)
	assert.NotNil(t, MustGet[*audioSystem](e))
}

func TestDuplicateRegistration(t *testing.T) {
	cat := NewCatalog()
	require.NoError(t, Register(cat, ScopeWorld, func() *navSystem { return &navSystem{} }))
	err := Register(cat, ScopeWorld, func() *navSystem { return &navSystem{} })
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFailedInitializeLeavesSubsystemAbsent(t *testing.T) {
	cat := NewCatalog()
	MustRegister(cat, ScopeWorld, func() brokenSystem { return brokenSystem{} })

	c := NewCollection(ScopeWorld, cat, nil)
	c.Initialize(nil)
	_, ok := Get[brokenSystem](c)
	assert.False(t, ok)
	assert.Panics(t, func() { MustGet[brokenSystem](c) })
}

func TestUndeclaredCreationDuringInitializePanics(t *testing.T) {
	cat := NewCatalog()
	MustRegister(cat, ScopeWorld, func() *audioSystem { return &audioSystem{&journal{}} }, Lazy())
	MustRegister(cat, ScopeWorld, func() greedySystem { return greedySystem{} }, Lazy())

	c := NewCollection(ScopeWorld, cat, nil)
	c.Initialize(nil)
	assert.Panics(t, func() { _, _ = GetOrCreate[greedySystem](c) })
}

func TestGetOrCreateAfterDeinitialize(t *testing.T) {
	cat := NewCatalog()
	MustRegister(cat, ScopeWorld, func() *navSystem { return &navSystem{&journal{}} }, Lazy())
	c := NewCollection(ScopeWorld, cat, nil)
	c.Initialize(nil)
	c.Deinitialize()
	_, err := GetOrCreate[*navSystem](c)
	assert.ErrorIs(t, err, ErrDeinitialized)
}
