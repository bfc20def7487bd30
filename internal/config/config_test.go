package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenecore.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
mode = "editor"
tick_rate = "33ms"

[registration]
components_per_step = 8
optimize = "verify"

[content]
default_level = "Courtyard"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "editor", cfg.Engine.Mode)
	assert.Equal(t, 33*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, 8, cfg.Registration.ComponentsPerStep)
	assert.Equal(t, "verify", cfg.Registration.Optimize)
	assert.Equal(t, "Courtyard", cfg.Content.DefaultLevel)

	// untouched sections keep their defaults
	assert.Equal(t, 5*time.Millisecond, cfg.Registration.TimeSlice)
	assert.Equal(t, "/Engine/Transient", cfg.Content.TransientPackage)
	assert.False(t, cfg.Database.Enabled)
	assert.NotZero(t, cfg.Engine.StartTime)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"mode":     "[engine]\nmode = \"server\"\n",
		"optimize": "[registration]\noptimize = \"always\"\n",
		"budget":   "[registration]\ncomponents_per_step = -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().validate())
}
