package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spacelife",
	Short: "Headless Space Life colony simulation.",
	Long: `Runs the Space Life colony simulation without a front end: ` +
		`scheduled events, workshops, characters, power and ship traffic.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/spacelife.yaml", "path to the configuration file")
	rootCmd.AddCommand(runCmd, validateCmd)
}
