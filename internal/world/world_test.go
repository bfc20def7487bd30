package world

import (
	"testing"
	"time"

	"github.com/scenecore/scenecore/internal/subsystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSubsystem struct {
	inits, deinits *int
	levelsAtDeinit *int
	world          *World
}

func (s *countingSubsystem) Initialize(c *subsystem.Collection) error {
	*s.inits++
	s.world = c.Outer().(*World)
	return nil
}

func (s *countingSubsystem) Deinitialize() {
	*s.deinits++
	*s.levelsAtDeinit = len(s.world.Levels())
}

func TestWorldStartsWithPersistentLevel(t *testing.T) {
	w := newTestWorld(t, KindGame)
	l := w.PersistentLevel()
	require.NotNil(t, l)
	assert.True(t, l.IsPersistent())
	ct, ok := l.Collection()
	assert.True(t, ok)
	assert.Equal(t, CollectionDynamicSource, ct)
	assert.Equal(t, []*Level{l}, w.Levels())
	assert.True(t, l.IsFullyRegistered())
}

func TestUnknownCollectionRejected(t *testing.T) {
	w := newTestWorld(t, KindGame)
	l := w.NewLevel("stray", nil)

	assert.ErrorIs(t, w.AddLevel(l, CollectionType(7)), ErrUnknownCollection)
	assert.ErrorIs(t, w.AddLevel(l, CollectionType(-1)), ErrUnknownCollection)
	_, ok := l.Collection()
	assert.False(t, ok)
	assert.Equal(t, []*Level{w.PersistentLevel()}, w.Levels())

	_, ok = w.Collection(CollectionType(7))
	assert.False(t, ok)
	c, ok := w.Collection(CollectionStatic)
	require.True(t, ok)
	assert.Equal(t, CollectionStatic, c.Type)
}

func TestLevelCollectionsAreDisjoint(t *testing.T) {
	w := newTestWorld(t, KindGame)
	static := w.NewLevel("static", nil)
	streamed := w.NewLevel("streamed", nil)
	require.NoError(t, w.AddLevel(streamed, CollectionDynamicSource))
	require.NoError(t, w.AddLevel(static, CollectionStatic))

	assert.ErrorIs(t, w.AddLevel(static, CollectionDynamicDuplicated), ErrLevelInCollection)
	assert.ErrorIs(t, w.RemoveLevel(w.PersistentLevel()), ErrPersistentLevel)

	other := newTestWorld(t, KindGame)
	assert.ErrorIs(t, other.AddLevel(static, CollectionStatic), ErrForeignLevel)

	assert.Equal(t, []*Level{w.PersistentLevel(), streamed, static}, w.Levels())

	require.NoError(t, w.RemoveLevel(streamed))
	assert.True(t, streamed.IsReleased())
	assert.ErrorIs(t, w.RemoveLevel(streamed), ErrLevelNotFound)
	assert.Equal(t, []*Level{w.PersistentLevel(), static}, w.Levels())
}

func TestWorldTeardownOrder(t *testing.T) {
	var inits, deinits, levelsAtDeinit int
	cat := subsystem.NewCatalog()
	subsystem.MustRegister(cat, subsystem.ScopeWorld, func() *countingSubsystem {
		return &countingSubsystem{inits: &inits, deinits: &deinits, levelsAtDeinit: &levelsAtDeinit}
	})

	w := newCatalogWorld(t, KindGame, cat)
	a := w.NewLevel("a", nil)
	b := w.NewLevel("b", nil)
	require.NoError(t, w.AddLevel(a, CollectionDynamicSource))
	require.NoError(t, w.AddLevel(b, CollectionStatic))
	populate(t, a, &trace{}, 2, 1)
	populate(t, b, &trace{}, 2, 1)
	w.BeginPlay()
	w.Tick(time.Millisecond)
	require.Equal(t, 1, inits)

	w.Destroy()
	w.Destroy()

	assert.Equal(t, 1, deinits)
	assert.Equal(t, 3, levelsAtDeinit, "subsystems go first, levels are still present")
	assert.True(t, a.IsReleased())
	assert.True(t, b.IsReleased())
	assert.Nil(t, a.World())
	assert.Empty(t, w.Levels())
	assert.True(t, w.IsTornDown())
	assert.Zero(t, w.Snapshot().LiveObjects)
	assert.Panics(t, func() { w.Tick(time.Millisecond) })
}

func TestTickAdvancesRegistrationWithinSettings(t *testing.T) {
	w := New(Options{
		Kind:     KindGame,
		Settings: &Settings{ComponentsPerStep: 1, StepsPerFrame: 1},
	})
	l := w.PersistentLevel()
	populate(t, l, &trace{}, 2, 2)

	ticks := 0
	for !l.IsFullyRegistered() {
		w.Tick(16 * time.Millisecond)
		ticks++
		require.LessOrEqual(t, ticks, 10)
	}
	assert.Equal(t, 4, ticks)
	assert.Equal(t, uint64(4), w.Frame())
	assert.InDelta(t, 0.016, w.DeltaSeconds(), 1e-9)
}

func TestShouldTick(t *testing.T) {
	w := newTestWorld(t, KindGame)
	assert.True(t, w.ShouldTick(false))
	assert.False(t, w.ShouldTick(true))
	w.SetTickWhenIdle(true)
	assert.True(t, w.ShouldTick(true))
	w.SetPaused(true)
	assert.False(t, w.ShouldTick(false))
}

func TestDefaultInitValues(t *testing.T) {
	cases := []struct {
		kind               Kind
		physics, nav, sims bool
	}{
		{KindGame, true, false, false},
		{KindEditor, true, true, false},
		{KindEditorPreview, true, true, false},
		{KindGamePreview, true, true, false},
		{KindPIE, true, false, false},
		{KindInactive, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			iv := DefaultInitValues(tc.kind)
			assert.Equal(t, tc.physics, iv.CreatePhysicsScene)
			assert.Equal(t, tc.nav, iv.CreateNavigation)
			assert.Equal(t, tc.nav, iv.CreateAISystem)
			assert.Equal(t, tc.sims, iv.ShouldSimulatePhysics)
			assert.True(t, iv.EnableTraceCollision)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("pie")
	require.NoError(t, err)
	assert.Equal(t, KindPIE, k)
	_, err = ParseKind("sandbox")
	assert.Error(t, err)
}

func TestParseOptimization(t *testing.T) {
	for s, want := range map[string]Optimization{"off": OptimizeOff, "on": OptimizeOn, "verify": OptimizeVerify} {
		got, err := ParseOptimization(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOptimization("sometimes")
	assert.Error(t, err)
}

type recordingScene struct{ added, removed int }

func (s *recordingScene) AddComponent(*Component) error { s.added++; return nil }
func (s *recordingScene) RemoveComponent(*Component)    { s.removed++ }

func TestBackendsSeeVisualAndCollisionComponents(t *testing.T) {
	render, physics := &recordingScene{}, &recordingScene{}
	w := New(Options{
		Kind: KindGame,
		Backends: Backends{
			Render:          render,
			NewPhysicsScene: func(*World) Scene { return physics },
		},
	})
	e, err := w.SpawnEntity(nil, "prop", nil, func(e *Entity) {
		mesh := e.AddComponent("mesh", nil)
		mesh.Visual = true
		mesh.Collision = true
		e.AddComponent("logic", nil)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, render.added)
	assert.Equal(t, 1, physics.added)

	w.PersistentLevel().RemoveEntity(e)
	assert.Equal(t, 1, render.removed)
	assert.Equal(t, 1, physics.removed)
}

func TestInactiveWorldHasNoPhysicsScene(t *testing.T) {
	w := newTestWorld(t, KindInactive)
	assert.Nil(t, w.PhysicsScene())
}

func TestSnapshotCopiesProgress(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	l := w.PersistentLevel()
	populate(t, l, &trace{}, 3, 1)
	l.IncrementalRegister(1)

	s := w.Snapshot()
	require.Len(t, s.Levels, 1)
	assert.Equal(t, PersistentLevelName, s.Levels[0].Name)
	assert.Equal(t, 3, s.Levels[0].Entities)
	assert.False(t, s.Levels[0].FullyRegistered)
	assert.Equal(t, 1, s.Levels[0].Cursor.Index)
	assert.Equal(t, 6, s.LiveObjects)
}
