package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeusync/spacelife/internal/config"
	"github.com/zeusync/spacelife/internal/core/prototype"
	"github.com/zeusync/spacelife/internal/script/lua"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, prototypes and scripts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		catalog, err := prototype.LoadFile(cfg.Prototypes)
		if err != nil {
			return err
		}
		var missing []string
		if cfg.Scripts != "" {
			host := lua.New(nil)
			defer host.Close()
			if err := host.LoadFile(cfg.Scripts); err != nil {
				return err
			}
			for _, evt := range catalog.Events() {
				if !host.Has(evt.OnFire) {
					missing = append(missing, evt.OnFire)
				}
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config ok: %d buildables, %d events, %d needs\n",
			len(catalog.Buildables()), len(catalog.Events()), len(catalog.Needs()))
		if len(missing) > 0 {
			return fmt.Errorf("script functions not defined: %v", missing)
		}
		return nil
	},
}
