package injector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scenecore/scenecore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const harborLevel = `
level: Harbor
run_construction: true
entities:
  - name: Pier
    components:
      - name: Deck
        collision: true
  - name: Lighthouse
    script: build_lighthouse
    attach_to: {entity: Pier, component: Deck}
    components:
      - name: Tower
        visual: true
`

const lighthouseScript = `
function build_lighthouse(ent)
  ent.add_component({name = "Lamp", parent = "Tower", visual = true})
  log("built " .. ent.name)
end
`

func TestInitializeEngineRunsContentPipeline(t *testing.T) {
	root := t.TempDir()
	levels := filepath.Join(root, "levels")
	scripts := filepath.Join(root, "scripts", "structures")
	require.NoError(t, os.MkdirAll(levels, 0o755))
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(levels, "Harbor.yaml"), []byte(harborLevel), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "lighthouse.lua"), []byte(lighthouseScript), 0o644))

	cfg := config.Default()
	cfg.Content.LevelDir = levels
	cfg.Content.ScriptsDir = filepath.Join(root, "scripts")
	cfg.Content.DefaultLevel = "Harbor"
	cfg.Registration.TimeSlice = 0

	eng, cleanup, err := InitializeEngine(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()
	require.Len(t, eng.LevelSources(), 1)

	require.NoError(t, eng.Init(context.Background()))
	w := eng.Contexts()[0].World()
	eng.Tick(16 * time.Millisecond)

	l := w.PersistentLevel()
	require.True(t, l.IsFullyRegistered())
	ents := l.Entities()
	require.Len(t, ents, 2)
	lighthouse := ents[1]
	lamp := lighthouse.FindComponent("Lamp")
	require.NotNil(t, lamp)
	assert.True(t, lamp.IsRegistered())
	assert.True(t, lighthouse.HasBegunPlay())
	assert.Same(t, ents[0], lighthouse.AttachParentEntity())

	eng.Shutdown()
	assert.True(t, w.IsTornDown())
}

func TestInitializeEngineBadScripts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.lua"), []byte("function ("), 0o644))

	cfg := config.Default()
	cfg.Content.ScriptsDir = root
	_, _, err := InitializeEngine(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
