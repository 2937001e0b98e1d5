package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spacelife/internal/config"
)

const prototypes = `
inventory:
  - {type: Ore, maxStackSize: 50}
events:
  - {name: Pulse, onFire: on_pulse}
needs:
  - {type: Oxygen, growthRate: 1, restoreBuildable: Oxygen Tank, restoreTime: 2}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestInitializeSimulation(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.World.Width, cfg.World.Height = 10, 10
	cfg.World.Characters = []string{"Ada", "Bob"}
	cfg.Prototypes = writeFile(t, dir, "prototypes.yaml", prototypes)
	cfg.Scripts = writeFile(t, dir, "events.lua", "pulses = 0\nfunction on_pulse(evt) pulses = pulses + 1 end\n")

	sim, cleanup, err := InitializeSimulation(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Len(t, sim.Characters(), 2)
	assert.Equal(t, 5, sim.Characters()[0].Tile().X)
	_, err = sim.Scheduler().ScheduleEvent("Pulse", 1, 1, false, 1)
	require.NoError(t, err)
	sim.FixedUpdate(1)
	assert.Zero(t, sim.Scheduler().Stats().Failed)
}

func TestInitializeSimulationFailsOnBadInput(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Prototypes = filepath.Join(dir, "missing.yaml")
	_, _, err := InitializeSimulation(cfg)
	assert.Error(t, err)

	cfg.Prototypes = writeFile(t, dir, "prototypes.yaml", prototypes)
	cfg.Scripts = writeFile(t, dir, "broken.lua", "function (")
	_, _, err = InitializeSimulation(cfg)
	assert.Error(t, err)

	cfg.Scripts = ""
	cfg.World.Width = 0
	_, _, err = InitializeSimulation(cfg)
	assert.Error(t, err)
}
