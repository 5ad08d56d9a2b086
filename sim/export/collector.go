// Package export publishes facility statistics of a simulation as
// Prometheus gauges.
package export

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/smplsim/sim"
)

const namespace = "smplsim"

type gauge struct {
	desc  *prometheus.Desc
	value func(r sim.FacilityReport) float64
}

func newGauge(name, help string, value func(r sim.FacilityReport) float64) gauge {
	return gauge{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "facility", name), help, []string{"facility"}, nil),
		value: value,
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Collector reads a Simulation's facility report on every scrape.
// A Simulation is not safe for concurrent use, so scrapes must not overlap
// with the event loop.
type Collector struct {
	sim    *sim.Simulation
	gauges []gauge
}

// NewCollector returns a collector for every facility of s.
func NewCollector(s *sim.Simulation) *Collector {
	return &Collector{
		sim: s,
		gauges: []gauge{
			newGauge("utilization", "Busy time divided by the measurement interval",
				func(r sim.FacilityReport) float64 { return r.Utilization }),
			newGauge("mean_busy_period", "Busy time per release",
				func(r sim.FacilityReport) float64 { return r.MeanBusyPeriod }),
			newGauge("mean_service_period", "Busy time per completed service",
				func(r sim.FacilityReport) float64 { return r.MeanServicePeriod }),
			newGauge("mean_queue_length", "Time-averaged queue length",
				func(r sim.FacilityReport) float64 { return r.MeanQueueLength }),
			newGauge("queue_length", "Tokens currently waiting",
				func(r sim.FacilityReport) float64 { return float64(r.QueueLength) }),
			newGauge("max_queue_length", "Largest queue length observed",
				func(r sim.FacilityReport) float64 { return float64(r.MaxQueueLength) }),
			newGauge("busy_servers", "Servers currently holding a token",
				func(r sim.FacilityReport) float64 { return float64(r.Busy) }),
			newGauge("releases", "Releases including preemptions",
				func(r sim.FacilityReport) float64 { return float64(r.Releases) }),
			newGauge("preemptions", "In-service tokens displaced by a stronger token",
				func(r sim.FacilityReport) float64 { return float64(r.Preemptions) }),
			newGauge("serviced_tokens", "Releases minus preemptions",
				func(r sim.FacilityReport) float64 { return float64(r.ServicedTokens) }),
			newGauge("dropped", "Tokens refused or purged while down",
				func(r sim.FacilityReport) float64 { return float64(r.Dropped) }),
			newGauge("up", "Operational state (1=up, 0=down)",
				func(r sim.FacilityReport) float64 { return boolGauge(r.Up) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, r := range c.sim.Report() {
		for _, g := range c.gauges {
			ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, g.value(r), r.Name)
		}
	}
}

// WriteTextfile registers a collector for s on a fresh registry and writes
// its metrics to path in the text exposition format.
func WriteTextfile(s *sim.Simulation, path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(s)); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
