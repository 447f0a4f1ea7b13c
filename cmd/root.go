package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsim/config"
	"github.com/kilianp07/fleetsim/core/sim"
	"github.com/kilianp07/fleetsim/infra/logger"
)

var (
	cfgPath string
	ticks   int
	seed    int64
)

var rootCmd = &cobra.Command{
	Use:          "fleetsim",
	Short:        "Micromobility fleet simulator",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().IntVarP(&ticks, "ticks", "n", -1, "number of ticks, overrides run.ticks")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed, overrides run.seed")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if ticks >= 0 {
		cfg.Run.Ticks = ticks
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = seed
	}
	return cfg, nil
}

// runBounded loads the configuration, runs a fresh engine for the configured
// number of ticks and returns it. name labels the error of an unbounded run.
func runBounded(cmd *cobra.Command, name string) (*sim.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Run.Ticks == 0 {
		return nil, fmt.Errorf("%s needs a bounded number of ticks", name)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	e, err := sim.New(cfg.Simulation, cfg.Run.Seed, sim.WithLogger(logger.New("engine")))
	if err != nil {
		return nil, err
	}
	if err := e.Run(cmd.Context(), cfg.Run.Ticks); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}
