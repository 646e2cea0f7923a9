// Package cmd holds the fuel-dashboard command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fuel-dashboard",
	Short: "Fuel tracking dashboard for plaza generators",
	Long: `fuel-dashboard records fuel deliveries into plaza tanks and withdrawals
to generators, and builds per-user consumption reports in hours per liter.

  fuel-dashboard serve                          # run the HTTP API
  fuel-dashboard report --in txs.json --out r.csv
  fuel-dashboard version`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (overrides CONFIG_FILE)")
}
