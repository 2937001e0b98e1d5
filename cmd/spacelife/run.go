package main

import (
	"github.com/spf13/cobra"

	"github.com/zeusync/spacelife/internal/config"
	"github.com/zeusync/spacelife/internal/injector"
	"github.com/zeusync/spacelife/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		sim, cleanup, err := injector.InitializeSimulation(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		r := runner.New(sim, cfg, sim.Log())
		if err := r.Restore(); err != nil {
			return err
		}
		return r.Run(cmd.Context())
	},
}
