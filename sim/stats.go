package sim

import "github.com/sirupsen/logrus"

// interval returns the length of the current measurement interval.
func (s *Simulation) interval() float64 {
	return s.clock - s.intervalStart
}

// Utilization returns the busy time of f divided by the time since the last
// Reset, or 0 when no time has passed. Service still in progress is not
// counted until it is released or preempted.
func (s *Simulation) Utilization(f FacilityID) float64 {
	fac := s.lookup("Utilization", f)
	if iv := s.interval(); iv > 0 {
		return fac.busyTime / iv
	}
	return 0
}

// ServerUtilization is Utilization for server i of f.
func (s *Simulation) ServerUtilization(f FacilityID, i int) float64 {
	fac := s.lookup("ServerUtilization", f)
	if i < 0 || i >= len(fac.servers) {
		violate("ServerUtilization", "facility %q has no server %d", fac.name, i)
	}
	if iv := s.interval(); iv > 0 {
		return fac.servers[i].busyTime / iv
	}
	return 0
}

// ServerReleases returns the release count of server i of f.
func (s *Simulation) ServerReleases(f FacilityID, i int) int {
	fac := s.lookup("ServerReleases", f)
	if i < 0 || i >= len(fac.servers) {
		violate("ServerReleases", "facility %q has no server %d", fac.name, i)
	}
	return fac.servers[i].releases
}

// MeanBusyPeriod returns busy time per release, or the raw busy time when
// nothing has been released yet. Preempted service counts as a release.
func (s *Simulation) MeanBusyPeriod(f FacilityID) float64 {
	fac := s.lookup("MeanBusyPeriod", f)
	if fac.releases > 0 {
		return fac.busyTime / float64(fac.releases)
	}
	return fac.busyTime
}

// MeanQueueLength returns the time-averaged queue length of f since the last
// Reset, or 0 when no time has passed.
func (s *Simulation) MeanQueueLength(f FacilityID) float64 {
	fac := s.lookup("MeanQueueLength", f)
	if iv := s.interval(); iv > 0 {
		return fac.queueArea / iv
	}
	return 0
}

// Releases returns the release count of f, preemptions included.
func (s *Simulation) Releases(f FacilityID) int {
	return s.lookup("Releases", f).releases
}

// Preemptions returns how many in-service tokens of f were displaced.
func (s *Simulation) Preemptions(f FacilityID) int {
	return s.lookup("Preemptions", f).preempts
}

// ServicedTokens returns releases minus preemptions: the number of service
// episodes that ran to completion.
func (s *Simulation) ServicedTokens(f FacilityID) int {
	fac := s.lookup("ServicedTokens", f)
	return fac.releases - fac.preempts
}

// MeanServicePeriod is MeanBusyPeriod computed over ServicedTokens instead of
// releases, which removes the bias preemption introduces.
func (s *Simulation) MeanServicePeriod(f FacilityID) float64 {
	fac := s.lookup("MeanServicePeriod", f)
	if n := fac.releases - fac.preempts; n > 0 {
		return fac.busyTime / float64(n)
	}
	return fac.busyTime
}

// Reset zeroes every statistics accumulator and starts a new measurement
// interval at the current time. Pending events, server occupancy and queue
// contents are kept, so work in flight carries on; in-service tokens are
// only credited for service after the reset.
func (s *Simulation) Reset() {
	s.intervalStart = s.clock
	for _, f := range s.facilities {
		f.busyTime = 0
		f.releases = 0
		f.preempts = 0
		f.dropped = 0
		f.queueArea = 0
		f.lastQueueChange = s.clock
		f.maxQueue = f.queue.Len()
		for i := range f.servers {
			sv := &f.servers[i]
			sv.busyTime = 0
			sv.releases = 0
			if !sv.idle() {
				sv.start = s.clock
			}
		}
	}
	logrus.Infof("[%s t=%g] statistics reset", s.name, s.clock)
}

// FacilityReport is a snapshot of one facility's state and statistics.
type FacilityReport struct {
	ID                FacilityID
	Name              string
	Servers           int
	Busy              int
	Up                bool
	BusyTime          float64
	Utilization       float64
	MeanBusyPeriod    float64
	MeanServicePeriod float64
	MeanQueueLength   float64
	QueueLength       int
	MaxQueueLength    int
	Releases          int
	Preemptions       int
	ServicedTokens    int
	Dropped           int
}

// Report returns a snapshot of every facility in creation order.
func (s *Simulation) Report() []FacilityReport {
	out := make([]FacilityReport, 0, len(s.facilities))
	for _, f := range s.facilities {
		out = append(out, FacilityReport{
			ID:                f.id,
			Name:              f.name,
			Servers:           len(f.servers),
			Busy:              f.busy,
			Up:                f.up,
			BusyTime:          f.busyTime,
			Utilization:       s.Utilization(f.id),
			MeanBusyPeriod:    s.MeanBusyPeriod(f.id),
			MeanServicePeriod: s.MeanServicePeriod(f.id),
			MeanQueueLength:   s.MeanQueueLength(f.id),
			QueueLength:       f.queue.Len(),
			MaxQueueLength:    f.maxQueue,
			Releases:          f.releases,
			Preemptions:       f.preempts,
			ServicedTokens:    f.releases - f.preempts,
			Dropped:           f.dropped,
		})
	}
	return out
}
