package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
simulation:
  fixedStep: 50ms
  timeScale: 4
world:
  width: 32
  height: 16
  characters: [Ada, Bob]
logging:
  level: debug
prototypes: data/protos.yaml
save:
  path: /tmp/colony.yaml
  autosave: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.FixedStep)
	assert.Equal(t, 4.0, cfg.Simulation.TimeScale)
	assert.Equal(t, 1000, cfg.Simulation.MaxFiresPerUpdate)
	assert.Equal(t, 32, cfg.World.Width)
	assert.Equal(t, 1, cfg.World.Depth)
	assert.Equal(t, []string{"Ada", "Bob"}, cfg.World.Characters)
	assert.Equal(t, time.Minute, cfg.Save.Autosave)
	assert.Equal(t, log.LevelDebug, cfg.LogConfig().Level)
	assert.Equal(t, "console", cfg.LogConfig().Encoding)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeFile(t, "wrld:\n  width: 3\n"))
	assert.Error(t, err)
}

func TestValidateJoinsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Simulation.TimeScale = 0
	cfg.World.Width = -1
	cfg.Logging.Level = "loud"
	cfg.Save.Autosave = time.Second

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"timeScale", "world size", "logging.level", "save.path"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load("../../configs/spacelife.yaml")
	require.NoError(t, err)
	assert.Equal(t, "scripts/events.lua", cfg.Scripts)
	assert.Equal(t, 5*time.Minute, cfg.Save.Autosave)
	assert.Len(t, cfg.World.Characters, 3)
}
