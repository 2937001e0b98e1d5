package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/spacelife/internal/config"
	"github.com/zeusync/spacelife/internal/core/observability/log"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/core/scheduler"
	"github.com/zeusync/spacelife/internal/core/simulation"
	"github.com/zeusync/spacelife/internal/script/lua"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideCatalog,
	ProvideScriptHost,
	ProvideOptions,
	ProvideSimulation,
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func()) {
	l := log.New(cfg.LogConfig())
	return l, func() { _ = l.Sync() }
}

func ProvideCatalog(cfg *config.Config) (*prototype.Catalog, error) {
	return prototype.LoadFile(cfg.Prototypes)
}

// ProvideScriptHost runs the configured Lua file. Without one, scripted
// events resolve against an empty table and fail when fired.
func ProvideScriptHost(cfg *config.Config, logger log.Log) (scheduler.ScriptHost, func(), error) {
	if cfg.Scripts == "" {
		return scheduler.FuncTable{}, func() {}, nil
	}
	h := lua.New(logger)
	if err := h.LoadFile(cfg.Scripts); err != nil {
		h.Close()
		return nil, nil, err
	}
	return h, h.Close, nil
}

func ProvideOptions(cfg *config.Config) simulation.Options {
	return simulation.Options{
		Width:             cfg.World.Width,
		Height:            cfg.World.Height,
		Depth:             cfg.World.Depth,
		Seed:              cfg.World.Seed,
		TimeScale:         cfg.Simulation.TimeScale,
		StartPaused:       cfg.Simulation.StartPaused,
		MaxFiresPerUpdate: cfg.Simulation.MaxFiresPerUpdate,
	}
}

// ProvideSimulation builds the simulation and spawns the configured
// characters in the middle of the ground floor.
func ProvideSimulation(
	cfg *config.Config,
	opts simulation.Options,
	catalog *prototype.Catalog,
	host scheduler.ScriptHost,
	logger log.Log,
) (*simulation.Simulation, func(), error) {
	sim, err := simulation.New(opts, catalog, host, logger)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range cfg.World.Characters {
		if _, err := sim.AddCharacter(name, cfg.World.Width/2, cfg.World.Height/2, 0); err != nil {
			sim.Close()
			return nil, nil, fmt.Errorf("spawn %s: %w", name, err)
		}
	}
	return sim, sim.Close, nil
}
