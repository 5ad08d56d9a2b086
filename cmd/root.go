package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/smplsim/sim/network"
)

var (
	logLevel     string  // Log verbosity level
	scenarioPath string  // Path to the scenario YAML file
	seed         int64   // Overrides the scenario seed when set
	horizon      float64 // Overrides the scenario horizon when set
	warmup       float64 // Overrides the scenario warm-up time when set
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "smplsim",
	Short: "Discrete-event simulator for queueing networks",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

// loadScenario reads --scenario and applies the flags the user set explicitly.
func loadScenario(cmd *cobra.Command) (*network.Scenario, error) {
	if scenarioPath == "" {
		return nil, fmt.Errorf("--scenario is required")
	}
	sc, err := network.LoadScenario(scenarioPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		sc.Seed = seed
	}
	if flags.Changed("horizon") {
		sc.Horizon = horizon
	}
	if flags.Changed("warmup") {
		sc.Warmup = warmup
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}
	return sc, nil
}

// addScenarioFlags registers the scenario flags shared by run and sweep.
func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides the scenario)")
	cmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulation horizon (overrides the scenario)")
	cmd.Flags().Float64Var(&warmup, "warmup", 0, "Statistics reset time (overrides the scenario)")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
