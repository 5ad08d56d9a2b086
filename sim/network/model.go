// Package network is a path-routed packet network model built on the sim
// kernel. Links are facilities, packets are tokens, and traffic classes
// carry priorities and optionally preempt weaker traffic.
package network

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/smplsim/sim"
)

// Event kinds dispatched by the model.
const (
	EvArrival sim.EventKind = iota + 1
	EvTransmitDone
	EvLinkFail
	EvLinkRepair
	EvWarmupReset
	EvEndSimulation
)

// Control events use negative tokens so they never collide with packets.
const (
	tokenEnd    sim.Token = -1
	tokenWarmup sim.Token = -2
)

func linkToken(i int) sim.Token { return sim.Token(-3 - i) }

func linkFromToken(tkn sim.Token) int { return int(-3 - tkn) }

type class struct {
	spec         ClassSpec
	index        int
	route        []sim.FacilityID
	interarrival Sampler
	service      Sampler
	arrivalRNG   *rand.Rand
	serviceRNG   *rand.Rand
	generated    int
}

type link struct {
	spec    LinkSpec
	id      sim.FacilityID
	fail    Sampler
	repair  Sampler
	rng     *rand.Rand
	outages int
}

// Model wires a Scenario onto a kernel Simulation.
type Model struct {
	scenario  *Scenario
	sim       *sim.Simulation
	rng       *PartitionedRNG
	links     []*link
	classes   []*class
	stats     []ClassStats
	nextToken sim.Token
	events    int
	since     float64 // packets created before this time are not counted
	handlers  map[sim.EventKind]func(sim.Event) bool
}

// NewModel validates sc and creates one facility per link on s.
// s must be fresh: the model owns its clock and drop hook from now on.
func NewModel(s *sim.Simulation, sc *Scenario) (*Model, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	m := &Model{
		scenario: sc,
		sim:      s,
		rng:      NewPartitionedRNG(NewSimulationKey(sc.Seed)),
		stats:    make([]ClassStats, len(sc.Classes)),
	}
	m.handlers = map[sim.EventKind]func(sim.Event) bool{
		EvArrival:       m.arrive,
		EvTransmitDone:  m.transmitDone,
		EvLinkFail:      m.linkFail,
		EvLinkRepair:    m.linkRepair,
		EvWarmupReset:   m.warmupReset,
		EvEndSimulation: m.end,
	}

	byName := make(map[string]sim.FacilityID, len(sc.Links))
	for _, ls := range sc.Links {
		l := &link{spec: ls, id: s.CreateFacility(ls.Name, ls.Servers)}
		if ls.Failure != nil {
			// Specs are validated above, so the samplers cannot fail.
			l.fail, _ = NewSampler(ls.Failure.TimeToFail)
			l.repair, _ = NewSampler(ls.Failure.TimeToRepair)
			l.rng = m.rng.ForSubsystem(SubsystemFailure(ls.Name))
		}
		byName[ls.Name] = l.id
		m.links = append(m.links, l)
	}
	for i, cs := range sc.Classes {
		c := &class{
			spec:       cs,
			index:      i,
			arrivalRNG: m.rng.ForSubsystem(SubsystemArrivals(cs.Name)),
			serviceRNG: m.rng.ForSubsystem(SubsystemService(cs.Name)),
		}
		c.interarrival, _ = NewSampler(cs.Interarrival)
		c.service, _ = NewSampler(cs.Service)
		for _, hop := range cs.Route {
			c.route = append(c.route, byName[hop])
		}
		m.classes = append(m.classes, c)
		m.stats[i].Name = cs.Name
	}

	s.SetDropHook(func(_ sim.Token, payload any) {
		m.drop(payload.(*Packet), "purged")
	})
	return m, nil
}

// Simulation returns the kernel instance the model drives.
func (m *Model) Simulation() *sim.Simulation {
	return m.sim
}

// Start schedules the first arrival of every class, the first failure of
// every failing link, the warm-up reset and the end of the simulation.
func (m *Model) Start() {
	for _, c := range m.classes {
		m.scheduleArrival(c)
	}
	for i, l := range m.links {
		if l.fail != nil {
			m.sim.Schedule(EvLinkFail, l.fail.Sample(l.rng), linkToken(i), nil)
		}
	}
	if m.scenario.Warmup > 0 {
		m.sim.Schedule(EvWarmupReset, m.scenario.Warmup, tokenWarmup, nil)
	}
	m.sim.Schedule(EvEndSimulation, m.scenario.Horizon, tokenEnd, nil)
	logrus.Infof("[%s] scenario %q started: %d links, %d classes, horizon %g",
		m.sim.Name(), m.scenario.Name, len(m.links), len(m.classes), m.scenario.Horizon)
}

// Run starts the model, drives the event loop until the horizon and returns
// the collected results.
func (m *Model) Run() *Result {
	m.Start()
	m.events += m.sim.Run(m.dispatch)
	return m.Result()
}

func (m *Model) dispatch(ev sim.Event) bool {
	h, ok := m.handlers[ev.Kind]
	if !ok {
		panic(fmt.Sprintf("network: no handler for event kind %d", ev.Kind))
	}
	return h(ev)
}

func (m *Model) newToken() sim.Token {
	m.nextToken++
	return m.nextToken
}

func (m *Model) scheduleArrival(c *class) {
	if c.spec.Limit > 0 && c.generated >= c.spec.Limit {
		return
	}
	c.generated++
	pkt := &Packet{ID: m.newToken(), Class: c.index}
	m.sim.Schedule(EvArrival, c.interarrival.Sample(c.arrivalRNG), pkt.ID, pkt)
}

func (m *Model) arrive(ev sim.Event) bool {
	pkt := ev.Payload.(*Packet)
	c := m.classes[pkt.Class]
	pkt.Created = m.sim.Time()
	m.stats[c.index].Arrived++
	m.offer(c, pkt)
	m.scheduleArrival(c)
	return true
}

// offer hands pkt to the link of its current hop.
func (m *Model) offer(c *class, pkt *Packet) {
	f := c.route[pkt.Hop]
	svc := c.service.Sample(c.serviceRNG)
	var out sim.Outcome
	if c.spec.Preempt {
		out = m.sim.Preempt(f, pkt.ID, c.spec.Priority, EvTransmitDone, svc, pkt)
	} else {
		out = m.sim.Request(f, pkt.ID, c.spec.Priority, EvTransmitDone, svc, pkt)
	}
	switch out {
	case sim.Served:
		m.sim.Schedule(EvTransmitDone, svc, pkt.ID, pkt)
	case sim.Down:
		m.drop(pkt, "link down")
	}
}

func (m *Model) transmitDone(ev sim.Event) bool {
	pkt := ev.Payload.(*Packet)
	c := m.classes[pkt.Class]
	m.sim.Release(c.route[pkt.Hop], pkt.ID)
	pkt.Hop++
	if pkt.Hop < len(c.route) {
		m.offer(c, pkt)
		return true
	}
	if pkt.Created < m.since {
		return true
	}
	latency := m.sim.Time() - pkt.Created
	st := &m.stats[c.index]
	st.Delivered++
	st.LatencySum += latency
	st.MaxLatency = max(st.MaxLatency, latency)
	logrus.Debugf("[%s t=%g] delivered %v after %g", m.sim.Name(), m.sim.Time(), pkt, latency)
	return true
}

func (m *Model) drop(pkt *Packet, reason string) {
	if pkt.Created >= m.since {
		m.stats[pkt.Class].Dropped++
	}
	logrus.Debugf("[%s t=%g] dropped %v: %s", m.sim.Name(), m.sim.Time(), pkt, reason)
}

func (m *Model) linkFail(ev sim.Event) bool {
	i := linkFromToken(ev.Token)
	l := m.links[i]
	l.outages++
	m.sim.SetDown(l.id)
	m.sim.Schedule(EvLinkRepair, l.repair.Sample(l.rng), ev.Token, nil)
	return true
}

func (m *Model) linkRepair(ev sim.Event) bool {
	l := m.links[linkFromToken(ev.Token)]
	m.sim.SetUp(l.id)
	m.sim.Schedule(EvLinkFail, l.fail.Sample(l.rng), ev.Token, nil)
	return true
}

func (m *Model) warmupReset(sim.Event) bool {
	m.sim.Reset()
	m.since = m.sim.Time()
	for i := range m.stats {
		m.stats[i] = ClassStats{Name: m.stats[i].Name}
	}
	for _, l := range m.links {
		l.outages = 0
	}
	return true
}

func (m *Model) end(sim.Event) bool {
	logrus.Infof("[%s t=%g] end of simulation, %d events pending", m.sim.Name(), m.sim.Time(), m.sim.PendingEvents())
	return false
}

// Result snapshots the model and kernel statistics.
func (m *Model) Result() *Result {
	r := &Result{
		Scenario: m.scenario.Name,
		Seed:     m.scenario.Seed,
		Instance: m.sim.Name(),
		EndTime:  m.sim.Time(),
		Events:   m.events,
		Classes:  append([]ClassStats(nil), m.stats...),
		Links:    m.sim.Report(),
	}
	for _, l := range m.links {
		r.Outages = append(r.Outages, l.outages)
	}
	return r
}
