package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Simulation is one isolated simulation instance: a logical clock, the
// event chain, and the facilities created on it.
type Simulation struct {
	name          string
	cfg           Config
	clock         float64
	intervalStart float64 // clock value of the last Reset
	chain         eventChain
	facilities    []*facility
	dropHook      func(Token, any)
}

// NewSimulation creates an empty simulation at time zero.
func NewSimulation(cfg Config) *Simulation {
	if cfg.MaxFacilities < 0 {
		violate("NewSimulation", "MaxFacilities must be >= 0, got %d", cfg.MaxFacilities)
	}
	return &Simulation{name: cfg.Name, cfg: cfg}
}

// Name returns the instance name.
func (s *Simulation) Name() string {
	return s.name
}

// Time returns the current simulation time.
func (s *Simulation) Time() float64 {
	return s.clock
}

// SetDropHook installs fn to receive the token and payload of every queue
// entry discarded by SetDown or Teardown. Payloads are otherwise never
// released by the kernel.
func (s *Simulation) SetDropHook(fn func(tkn Token, payload any)) {
	s.dropHook = fn
}

// Schedule adds an event of the given kind for tkn, firing delta time units
// from now. Events scheduled for the same time fire in scheduling order.
func (s *Simulation) Schedule(kind EventKind, delta float64, tkn Token, payload any) {
	if delta < 0 || math.IsNaN(delta) {
		violate("Schedule", "negative delay %g for token %d", delta, tkn)
	}
	if tkn == NoToken {
		violate("Schedule", "token must be non-zero")
	}
	ev := Event{Time: s.clock + delta, Kind: kind, Token: tkn, Payload: payload}
	s.chain.insert(ev)
	logrus.Debugf("[%s t=%g] scheduled kind %d for token %d at %g", s.name, s.clock, kind, tkn, ev.Time)
}

// Cause removes the earliest pending event, advances the clock to its time
// and returns it. Calling Cause on an empty chain is a contract violation;
// check IsEmpty first.
func (s *Simulation) Cause() Event {
	if s.chain.Len() == 0 {
		violate("Cause", "event chain is empty")
	}
	ev := s.chain.popFront()
	s.clock = ev.Time
	logrus.Debugf("[%s t=%g] caused kind %d for token %d", s.name, s.clock, ev.Kind, ev.Token)
	return ev
}

// IsEmpty reports whether no events are pending.
func (s *Simulation) IsEmpty() bool {
	return s.chain.Len() == 0
}

// PendingEvents returns the number of events in the chain.
func (s *Simulation) PendingEvents() int {
	return s.chain.Len()
}

// Peek returns the next event without removing it or advancing the clock.
func (s *Simulation) Peek() (Event, bool) {
	return s.chain.peek()
}

// CancelToken removes the first pending event for tkn and returns it.
// A missing event is not an error; ok is false.
func (s *Simulation) CancelToken(tkn Token) (ev Event, ok bool) {
	ev, ok = s.chain.removeFirst(func(ev Event) bool { return ev.Token == tkn })
	if ok {
		logrus.Debugf("[%s t=%g] cancelled kind %d for token %d", s.name, s.clock, ev.Kind, tkn)
	}
	return ev, ok
}

// CancelKind removes the first pending event of the given kind and returns it.
// A missing event is not an error; ok is false.
func (s *Simulation) CancelKind(kind EventKind) (ev Event, ok bool) {
	ev, ok = s.chain.removeFirst(func(ev Event) bool { return ev.Kind == kind })
	if ok {
		logrus.Debugf("[%s t=%g] cancelled kind %d for token %d", s.name, s.clock, kind, ev.Token)
	}
	return ev, ok
}

// Run causes events until the chain is empty or handle returns false, and
// returns the number of events handled.
func (s *Simulation) Run(handle func(Event) bool) int {
	n := 0
	for !s.IsEmpty() {
		ev := s.Cause()
		n++
		if !handle(ev) {
			break
		}
	}
	logrus.Infof("[%s t=%g] simulation loop ended after %d events, %d pending", s.name, s.clock, n, s.chain.Len())
	return n
}

// Teardown discards every pending event and every queued token. Queued
// payloads go through the drop hook; facility counters are left as they are.
func (s *Simulation) Teardown() {
	s.chain.clear()
	for _, f := range s.facilities {
		for _, e := range f.purge(s.clock) {
			if s.dropHook != nil {
				s.dropHook(e.token, e.payload)
			}
		}
	}
}
