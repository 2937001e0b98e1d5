//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/spacelife/internal/config"
	"github.com/zeusync/spacelife/internal/core/simulation"
)

func InitializeSimulation(cfg *config.Config) (*simulation.Simulation, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
