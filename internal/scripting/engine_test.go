package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const houseScript = `
function build_house(e)
  e.add_component{name = "Roof", parent = e.components[1], visual = true, auto_activate = true}
  e.add_component{name = "Light", type = "lamp", wants_initialize = true}
  e.attach("Light", "Roof")
  e.set_tick(true)
  log("built " .. e.name)
end

function broken(e)
  error("no bricks")
end
`

type lamp struct{}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine("", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	require.NoError(t, eng.LoadString(houseScript))
	return eng
}

func TestConstructAddsComponents(t *testing.T) {
	eng := newEngine(t)
	b := content.NewBuilder(eng, zap.NewNop())
	require.NoError(t, b.RegisterType("lamp", func(content.ComponentDef) any { return &lamp{} }))
	eng.SetResolver(b)

	w := world.New(world.Options{Kind: world.KindGame})
	e := w.NewEntity("house", nil)
	frame := e.AddComponent("Frame", nil)

	require.NoError(t, eng.Construct(e, "build_house"))

	roof := e.FindComponent("Roof")
	light := e.FindComponent("Light")
	require.NotNil(t, roof)
	require.NotNil(t, light)
	assert.Equal(t, frame, roof.AttachParent())
	assert.Equal(t, roof, light.AttachParent())
	assert.True(t, roof.Visual)
	assert.True(t, roof.AutoActivate)
	assert.True(t, light.WantsInitialize)
	assert.IsType(t, &lamp{}, light.Behavior())
	assert.True(t, e.TickEnabled)
}

func TestConstructErrors(t *testing.T) {
	eng := newEngine(t)
	w := world.New(world.Options{Kind: world.KindGame})
	e := w.NewEntity("house", nil)
	e.AddComponent("Frame", nil)

	assert.Error(t, eng.Construct(e, "missing"))
	assert.Error(t, eng.Construct(e, "broken"))
	assert.Error(t, eng.Construct(e, "build_house"), "lamp type needs a resolver")
	assert.True(t, eng.HasFunction("build_house"))
	assert.False(t, eng.HasFunction("missing"))
}

func TestScriptedLevelThroughScheduler(t *testing.T) {
	eng := newEngine(t)
	b := content.NewBuilder(eng, zap.NewNop())
	require.NoError(t, b.RegisterType("lamp", func(content.ComponentDef) any { return &lamp{} }))
	eng.SetResolver(b)

	lf, err := content.ParseLevel([]byte(`
level: Street
run_construction: true
entities:
  - name: house
    script: build_house
    components: [{name: Frame}]
`))
	require.NoError(t, err)

	w := world.New(world.Options{Kind: world.KindGame})
	l, err := b.LoadInto(w, lf, nil, world.CollectionDynamicSource)
	require.NoError(t, err)
	for !l.IncrementalRegister(1) {
	}

	house := l.Entities()[0]
	for _, c := range house.Components() {
		assert.True(t, c.IsRegistered(), c.Name())
	}
	assert.True(t, house.FindComponent("Light").IsInitialized())
	assert.True(t, house.FindComponent("Roof").IsActive())
}

func TestNewEngineLoadsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "props"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "util.lua"),
		[]byte("function util_name(e) return 'x' end"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "props", "tree.lua"),
		[]byte("function build_tree(e) e.add_component{name = 'Trunk'} end"), 0o644))

	eng, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer eng.Close()
	assert.True(t, eng.HasFunction("util_name"))
	assert.True(t, eng.HasFunction("build_tree"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))
	_, err = NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}
