package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of Request and Preempt.
type Outcome int

const (
	// Served means the token holds a server. The caller schedules its completion.
	Served Outcome = iota
	// Queued means the token waits in the facility queue. Release schedules
	// its resume event once it reaches a server.
	Queued
	// Down means the facility is not operational and the token was refused.
	Down
)

func (o Outcome) String() string {
	switch o {
	case Served:
		return "served"
	case Queued:
		return "queued"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

func checkWork(op string, tkn Token, service float64) {
	if tkn == NoToken {
		violate(op, "token must be non-zero")
	}
	if service < 0 || math.IsNaN(service) {
		violate(op, "service time must be >= 0, got %g", service)
	}
}

// seize puts tkn on server i of f.
func (s *Simulation) seize(f *facility, i int, tkn Token, priority int) {
	sv := &f.servers[i]
	sv.token = tkn
	sv.priority = priority
	sv.start = s.clock
	f.busy++
	logrus.Debugf("[%s t=%g] token %d seized server %d of %q", s.name, s.clock, tkn, i, f.name)
}

// credit adds the service of server i since its last start to the busy-time
// and release accumulators of the server and of f.
func (s *Simulation) credit(f *facility, i int) {
	sv := &f.servers[i]
	elapsed := s.clock - sv.start
	sv.busyTime += elapsed
	sv.releases++
	f.busyTime += elapsed
	f.releases++
}

// Request asks f for a server on behalf of tkn.
//
// When f is down the request is counted as dropped and Down is returned.
// When a server is free tkn occupies it and Served is returned; the caller
// must schedule the completion event itself. Otherwise tkn joins the queue
// behind every token of equal or higher priority and Queued is returned; when
// it later reaches a server, Release schedules resume after service.
func (s *Simulation) Request(f FacilityID, tkn Token, priority int, resume EventKind, service float64, payload any) Outcome {
	fac := s.lookup("Request", f)
	checkWork("Request", tkn, service)
	if !fac.up {
		fac.dropped++
		logrus.Debugf("[%s t=%g] token %d refused by down facility %q", s.name, s.clock, tkn, fac.name)
		return Down
	}
	if fac.serverOf(tkn) >= 0 {
		violate("Request", "token %d already in service at facility %q", tkn, fac.name)
	}
	if i := fac.freeServer(); i >= 0 {
		s.seize(fac, i, tkn, priority)
		return Served
	}
	fac.enqueue(s.clock, queueEntry{
		token:     tkn,
		payload:   payload,
		priority:  priority,
		remaining: service,
		resume:    resume,
	}, false)
	logrus.Debugf("[%s t=%g] token %d queued at %q (len %d)", s.name, s.clock, tkn, fac.name, fac.queue.Len())
	return Queued
}

// Preempt is Request with the right to displace a weaker token.
//
// If no server is free, the in-service token with the lowest priority is
// located. When its priority is >= priority, tkn is queued ahead of its
// equal-priority peers and Queued is returned. Otherwise that token's pending
// event is pulled from the chain, its elapsed service is credited, it is
// queued ahead of its peers with the unused part of its service, and tkn
// takes its server.
//
// A displaced token's partial service counts as a release for busy-period
// statistics, so a token that is preempted and later completes is counted
// twice. ServicedTokens subtracts preemptions to correct for this.
func (s *Simulation) Preempt(f FacilityID, tkn Token, priority int, resume EventKind, service float64, payload any) Outcome {
	fac := s.lookup("Preempt", f)
	checkWork("Preempt", tkn, service)
	if !fac.up {
		fac.dropped++
		logrus.Debugf("[%s t=%g] token %d refused by down facility %q", s.name, s.clock, tkn, fac.name)
		return Down
	}
	if fac.serverOf(tkn) >= 0 {
		violate("Preempt", "token %d already in service at facility %q", tkn, fac.name)
	}
	if i := fac.freeServer(); i >= 0 {
		s.seize(fac, i, tkn, priority)
		return Served
	}

	k := fac.weakestServer()
	victim := fac.servers[k]
	if victim.priority >= priority {
		fac.enqueue(s.clock, queueEntry{
			token:     tkn,
			payload:   payload,
			priority:  priority,
			remaining: service,
			resume:    resume,
		}, true)
		logrus.Debugf("[%s t=%g] token %d queued at %q, no weaker token in service", s.name, s.clock, tkn, fac.name)
		return Queued
	}

	ev, ok := s.chain.removeFirst(func(ev Event) bool { return ev.Token == victim.token })
	if !ok {
		violate("Preempt", "token %d in service at facility %q has no pending event", victim.token, fac.name)
	}
	s.credit(fac, k)
	fac.preempts++
	fac.servers[k].token = NoToken
	fac.busy--
	fac.enqueue(s.clock, queueEntry{
		token:     victim.token,
		payload:   ev.Payload,
		priority:  victim.priority,
		remaining: ev.Time - s.clock,
		resume:    ev.Kind,
	}, true)
	logrus.Infof("[%s t=%g] token %d (pri %d) preempted token %d (pri %d) at %q, %g service left",
		s.name, s.clock, tkn, priority, victim.token, victim.priority, fac.name, ev.Time-s.clock)

	s.seize(fac, k, tkn, priority)
	return Served
}

// Release frees the server of f held by tkn and credits its busy time.
// If tokens are waiting, the head of the queue takes the server and its
// resume event is scheduled after its remaining service time.
func (s *Simulation) Release(f FacilityID, tkn Token) {
	fac := s.lookup("Release", f)
	i := fac.serverOf(tkn)
	if tkn == NoToken || i < 0 {
		violate("Release", "token %d is not in service at facility %q", tkn, fac.name)
	}
	s.credit(fac, i)
	fac.servers[i].token = NoToken
	fac.busy--
	logrus.Debugf("[%s t=%g] token %d released server %d of %q", s.name, s.clock, tkn, i, fac.name)

	if fac.queue.Len() == 0 {
		return
	}
	next := fac.dequeue(s.clock)
	s.seize(fac, i, next.token, next.priority)
	s.Schedule(next.resume, next.remaining, next.token, next.payload)
}

// SetDown marks f as not operational and purges its queue. Each purged entry
// is counted as dropped and handed to the drop hook. The number of purged
// entries is returned.
//
// Tokens holding a server are not evicted; they complete their service
// normally. Callers that need stricter failure semantics can find them with
// InService.
func (s *Simulation) SetDown(f FacilityID) int {
	fac := s.lookup("SetDown", f)
	fac.up = false
	purged := fac.purge(s.clock)
	fac.dropped += len(purged)
	for _, e := range purged {
		if s.dropHook != nil {
			s.dropHook(e.token, e.payload)
		}
	}
	logrus.Warnf("[%s t=%g] facility %q down, %d queued tokens purged, %d still in service",
		s.name, s.clock, fac.name, len(purged), fac.busy)
	return len(purged)
}

// SetUp marks f as operational again. The queue is left untouched.
func (s *Simulation) SetUp(f FacilityID) {
	fac := s.lookup("SetUp", f)
	fac.up = true
	logrus.Infof("[%s t=%g] facility %q up", s.name, s.clock, fac.name)
}
