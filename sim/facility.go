package sim

import (
	"slices"

	"github.com/sirupsen/logrus"
)

// FacilityID is the stable handle returned by CreateFacility.
type FacilityID int

// server is one unit of service capacity within a facility.
type server struct {
	token    Token   // occupying token, NoToken when idle
	priority int     // priority of the occupying token
	start    float64 // clock value when the current service (re)started
	busyTime float64
	releases int
}

func (sv *server) idle() bool {
	return sv.token == NoToken
}

// facility is a named resource with identical parallel servers and one
// shared priority queue.
//
// Invariants: 0 <= busy <= len(servers); a token is either on one server or
// in the queue, never both.
type facility struct {
	id      FacilityID
	name    string
	servers []server
	busy    int
	up      bool
	queue   facilityQueue

	maxQueue        int     // largest queue length seen since the last reset
	queueArea       float64 // integral of queue length over time
	lastQueueChange float64 // clock value of the last queueArea update
	busyTime        float64
	releases        int
	preempts        int
	dropped         int
}

func (f *facility) freeServer() int {
	return slices.IndexFunc(f.servers, func(sv server) bool { return sv.idle() })
}

func (f *facility) serverOf(tkn Token) int {
	return slices.IndexFunc(f.servers, func(sv server) bool { return sv.token == tkn })
}

// weakestServer returns the index of the occupied server holding the
// lowest-priority token; the first one wins on ties.
func (f *facility) weakestServer() int {
	k := 0
	for i := 1; i < len(f.servers); i++ {
		if f.servers[i].priority < f.servers[k].priority {
			k = i
		}
	}
	return k
}

// accumulateQueue brings the queue-length integral up to now. It must run
// immediately before every change of the queue length.
func (f *facility) accumulateQueue(now float64) {
	f.queueArea += float64(f.queue.Len()) * (now - f.lastQueueChange)
	f.lastQueueChange = now
}

func (f *facility) enqueue(now float64, e queueEntry, displaced bool) {
	f.accumulateQueue(now)
	if displaced {
		f.queue.enqueuePreempt(e)
	} else {
		f.queue.enqueueFIFO(e)
	}
	f.maxQueue = max(f.maxQueue, f.queue.Len())
}

func (f *facility) dequeue(now float64) queueEntry {
	f.accumulateQueue(now)
	return f.queue.dequeue()
}

func (f *facility) purge(now float64) []queueEntry {
	f.accumulateQueue(now)
	return f.queue.drain()
}

// CreateFacility adds a facility with the given number of servers and
// returns its handle. Handles are assigned in creation order starting at 0.
// The facility starts up with all counters zero.
func (s *Simulation) CreateFacility(name string, servers int) FacilityID {
	if servers < 1 {
		violate("CreateFacility", "facility %q needs at least one server, got %d", name, servers)
	}
	if s.cfg.MaxFacilities > 0 && len(s.facilities) >= s.cfg.MaxFacilities {
		violate("CreateFacility", "facility limit %d reached", s.cfg.MaxFacilities)
	}
	id := FacilityID(len(s.facilities))
	s.facilities = append(s.facilities, &facility{
		id:              id,
		name:            name,
		servers:         make([]server, servers),
		up:              true,
		lastQueueChange: s.clock,
	})
	logrus.Debugf("[%s t=%g] created facility %d %q with %d servers", s.name, s.clock, id, name, servers)
	return id
}

// lookup resolves a facility handle, panicking on unknown ids.
func (s *Simulation) lookup(op string, f FacilityID) *facility {
	if f < 0 || int(f) >= len(s.facilities) {
		violate(op, "unknown facility %d", f)
	}
	return s.facilities[f]
}

// Facilities returns every facility handle in creation order.
func (s *Simulation) Facilities() []FacilityID {
	ids := make([]FacilityID, len(s.facilities))
	for i := range s.facilities {
		ids[i] = FacilityID(i)
	}
	return ids
}

// FacilityName returns the name given to CreateFacility.
func (s *Simulation) FacilityName(f FacilityID) string {
	return s.lookup("FacilityName", f).name
}

// NumServers returns the number of servers of f.
func (s *Simulation) NumServers(f FacilityID) int {
	return len(s.lookup("NumServers", f).servers)
}

// BusyServers returns the number of occupied servers of f.
func (s *Simulation) BusyServers(f FacilityID) int {
	return s.lookup("BusyServers", f).busy
}

// InService returns the tokens currently holding a server of f, in server order.
func (s *Simulation) InService(f FacilityID) []Token {
	fac := s.lookup("InService", f)
	var out []Token
	for _, sv := range fac.servers {
		if !sv.idle() {
			out = append(out, sv.token)
		}
	}
	return out
}

// IsUp reports whether f is operational.
func (s *Simulation) IsUp(f FacilityID) bool {
	return s.lookup("IsUp", f).up
}

// QueueLength returns the number of tokens waiting for a server of f.
func (s *Simulation) QueueLength(f FacilityID) int {
	return s.lookup("QueueLength", f).queue.Len()
}

// MaxQueueLength returns the largest queue length of f seen since the last Reset.
func (s *Simulation) MaxQueueLength(f FacilityID) int {
	return s.lookup("MaxQueueLength", f).maxQueue
}

// Dropped returns how many requests f refused while down plus how many
// queued tokens SetDown purged.
func (s *Simulation) Dropped(f FacilityID) int {
	return s.lookup("Dropped", f).dropped
}
