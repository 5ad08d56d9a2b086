package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/smplsim/sim"
	"github.com/inference-sim/smplsim/sim/network"
)

var (
	replications int // Number of independent runs
	parallel     int // Runs executed concurrently
	maxInstances int // Registry capacity (0 = unbounded)
)

// sweepCmd runs independent replications with consecutive seeds
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run independent replications of a scenario and summarize link statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := loadScenario(cmd)
		if err != nil {
			return err
		}
		results, err := sweep(cmd.Context(), sc, replications, parallel, maxInstances)
		if err != nil {
			return err
		}
		printSweep(cmd.OutOrStdout(), results)
		return nil
	},
}

// sweep runs n replications of sc with seeds sc.Seed .. sc.Seed+n-1, each on
// its own registered instance, at most par at a time. Results are returned
// in seed order.
func sweep(ctx context.Context, sc *network.Scenario, n, par, limit int) ([]*network.Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("replications must be >= 1, got %d", n)
	}
	if par < 1 {
		return nil, fmt.Errorf("parallel must be >= 1, got %d", par)
	}
	if limit > 0 && par > limit {
		logrus.Warnf("parallel %d exceeds max instances %d, lowering it", par, limit)
		par = limit
	}

	reg := sim.NewRegistry(limit)
	results := make([]*network.Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(par)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep := *sc
			rep.Seed = sc.Seed + int64(i)
			s, err := reg.Create(sim.Config{})
			if err != nil {
				return err
			}
			defer reg.Destroy(s.Name())
			m, err := network.NewModel(s, &rep)
			if err != nil {
				return err
			}
			results[i] = m.Run()
			logrus.Infof("replication %d (seed %d) finished on %s", i, rep.Seed, s.Name())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printSweep(w io.Writer, results []*network.Result) {
	fmt.Fprintln(w, "=== Sweep Results ===")
	fmt.Fprintf(w, "Replications         : %d\n", len(results))

	fmt.Fprintln(w, "\n--- Replications ---")
	fmt.Fprintf(w, "%8s %10s %10s %10s %10s\n", "seed", "events", "arrived", "delivered", "dropped")
	for _, r := range results {
		arrived, delivered, dropped := 0, 0, 0
		for _, c := range r.Classes {
			arrived += c.Arrived
			delivered += c.Delivered
			dropped += c.Dropped
		}
		fmt.Fprintf(w, "%8d %10d %10d %10d %10d\n", r.Seed, r.Events, arrived, delivered, dropped)
	}

	fmt.Fprintln(w, "\n--- Links ---")
	fmt.Fprintf(w, "%-16s %10s %10s %10s %10s %12s\n", "link", "mean-util", "min-util", "max-util", "mean-q", "mean-svc")
	for _, l := range network.Summarize(results) {
		fmt.Fprintf(w, "%-16s %10.4f %10.4f %10.4f %10.4f %12.4f\n",
			l.Name, l.MeanUtilization, l.MinUtilization, l.MaxUtilization, l.MeanQueueLength, l.MeanServicePeriod)
	}
}

func init() {
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&replications, "replications", 10, "Number of independent replications")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 4, "Replications run concurrently")
	sweepCmd.Flags().IntVar(&maxInstances, "max-instances", 0, "Maximum coexisting simulation instances (0 = unbounded)")
	rootCmd.AddCommand(sweepCmd)
}
