package network

import (
	"fmt"
	"io"
	"math"

	"github.com/inference-sim/smplsim/sim"
)

// ClassStats aggregates per-class packet counters since the last warm-up
// reset. Packets created before the reset are left out even when they are
// delivered or dropped afterwards, so Delivered+Dropped never exceeds Arrived.
type ClassStats struct {
	Name       string
	Arrived    int     // packets that reached their first link
	Delivered  int     // packets that crossed their last link
	Dropped    int     // packets refused by a down link or purged from its queue
	LatencySum float64 // sum of end-to-end latencies of delivered packets
	MaxLatency float64
}

// MeanLatency returns the average end-to-end latency, or 0 when nothing was delivered.
func (c ClassStats) MeanLatency() float64 {
	if c.Delivered == 0 {
		return 0
	}
	return c.LatencySum / float64(c.Delivered)
}

// Result is the outcome of one model run.
type Result struct {
	Scenario string
	Seed     int64
	Instance string
	EndTime  float64
	Events   int
	Classes  []ClassStats
	Links    []sim.FacilityReport
	Outages  []int // failures per link, in link order
}

// Print writes the class and link tables.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintf(w, "Scenario             : %s\n", r.Scenario)
	fmt.Fprintf(w, "Instance             : %s\n", r.Instance)
	fmt.Fprintf(w, "Seed                 : %d\n", r.Seed)
	fmt.Fprintf(w, "End Time             : %.3f\n", r.EndTime)
	fmt.Fprintf(w, "Events               : %d\n", r.Events)

	fmt.Fprintln(w, "\n--- Classes ---")
	fmt.Fprintf(w, "%-16s %10s %10s %10s %12s %12s\n", "class", "arrived", "delivered", "dropped", "mean-lat", "max-lat")
	for _, c := range r.Classes {
		fmt.Fprintf(w, "%-16s %10d %10d %10d %12.4f %12.4f\n",
			c.Name, c.Arrived, c.Delivered, c.Dropped, c.MeanLatency(), c.MaxLatency)
	}

	fmt.Fprintln(w, "\n--- Links ---")
	fmt.Fprintf(w, "%-16s %4s %8s %10s %10s %8s %8s %8s %8s %8s\n",
		"link", "srv", "util", "busy-per", "mean-q", "max-q", "release", "preempt", "dropped", "outages")
	for i, l := range r.Links {
		outages := 0
		if i < len(r.Outages) {
			outages = r.Outages[i]
		}
		fmt.Fprintf(w, "%-16s %4d %8.4f %10.4f %10.4f %8d %8d %8d %8d %8d\n",
			l.Name, l.Servers, l.Utilization, l.MeanBusyPeriod, l.MeanQueueLength,
			l.MaxQueueLength, l.Releases, l.Preemptions, l.Dropped, outages)
	}
}

// LinkSummary aggregates one link's statistics over several replications.
type LinkSummary struct {
	Name              string
	MeanUtilization   float64
	MinUtilization    float64
	MaxUtilization    float64
	MeanQueueLength   float64
	MeanServicePeriod float64
}

// Summarize aggregates link statistics across replications of the same
// scenario. Results must list links in the same order.
func Summarize(results []*Result) []LinkSummary {
	if len(results) == 0 {
		return nil
	}
	out := make([]LinkSummary, len(results[0].Links))
	for i, l := range results[0].Links {
		out[i] = LinkSummary{Name: l.Name, MinUtilization: math.Inf(1), MaxUtilization: math.Inf(-1)}
	}
	for _, r := range results {
		for i, l := range r.Links {
			s := &out[i]
			s.MeanUtilization += l.Utilization
			s.MinUtilization = math.Min(s.MinUtilization, l.Utilization)
			s.MaxUtilization = math.Max(s.MaxUtilization, l.Utilization)
			s.MeanQueueLength += l.MeanQueueLength
			s.MeanServicePeriod += l.MeanServicePeriod
		}
	}
	n := float64(len(results))
	for i := range out {
		out[i].MeanUtilization /= n
		out[i].MeanQueueLength /= n
		out[i].MeanServicePeriod /= n
	}
	return out
}
