package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/smplsim/sim"
	"github.com/inference-sim/smplsim/sim/export"
	"github.com/inference-sim/smplsim/sim/network"
)

var metricsFile string // Prometheus text file written after the run

// runCmd executes one replication of a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario once and print its statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := loadScenario(cmd)
		if err != nil {
			return err
		}
		return runScenario(sc, metricsFile, cmd.OutOrStdout())
	},
}

// runScenario runs sc on a fresh instance, prints the result to w and, when
// metricsPath is set, writes the final facility gauges there.
func runScenario(sc *network.Scenario, metricsPath string, w io.Writer) error {
	reg := sim.NewRegistry(1)
	s, err := reg.Create(sim.Config{Name: sc.Name})
	if err != nil {
		return err
	}
	defer reg.Destroy(s.Name())

	m, err := network.NewModel(s, sc)
	if err != nil {
		return err
	}
	res := m.Run()
	res.Print(w)

	if metricsPath != "" {
		if err := export.WriteTextfile(s, metricsPath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logrus.Infof("metrics written to %s", metricsPath)
	}
	return nil
}

func init() {
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write final facility metrics in Prometheus text format to this file")
	rootCmd.AddCommand(runCmd)
}
