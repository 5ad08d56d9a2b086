package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inference-sim/smplsim/sim/network"
)

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check a scenario file for unknown fields and invalid parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := network.LoadScenario(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenario %q is valid: %d links, %d classes\n", sc.Name, len(sc.Links), len(sc.Classes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
