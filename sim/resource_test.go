package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queuedTokens returns the tokens waiting at f in queue order.
func queuedTokens(s *Simulation, f FacilityID) []Token {
	var out []Token
	for _, e := range s.facilities[f].queue.entries {
		out = append(out, e.token)
	}
	return out
}

// advanceTo moves the clock to t with a throwaway event.
func advanceTo(t *testing.T, s *Simulation, at float64) {
	t.Helper()
	s.Schedule(evTick, at-s.Time(), 999, nil)
	ev := s.Cause()
	require.Equal(t, evTick, ev.Kind, "advanceTo expects no earlier events")
}

func TestCreateFacility_AssignsSequentialIDs(t *testing.T) {
	s := NewSimulation(Config{})
	a := s.CreateFacility("a", 1)
	b := s.CreateFacility("b", 3)

	assert.Equal(t, FacilityID(0), a)
	assert.Equal(t, FacilityID(1), b)
	assert.Equal(t, "b", s.FacilityName(b))
	assert.Equal(t, 3, s.NumServers(b))
	assert.True(t, s.IsUp(b))
	assert.Equal(t, []FacilityID{a, b}, s.Facilities())
}

func TestCreateFacility_ZeroServers_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	assert.PanicsWithError(t, `CreateFacility: facility "x" needs at least one server, got 0`, func() {
		s.CreateFacility("x", 0)
	})
}

func TestCreateFacility_BeyondLimit_Panics(t *testing.T) {
	s := NewSimulation(Config{MaxFacilities: 1})
	s.CreateFacility("a", 1)
	assert.Panics(t, func() { s.CreateFacility("b", 1) })
}

func TestRequest_UnknownFacility_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	assert.PanicsWithError(t, "Request: unknown facility 7", func() {
		s.Request(7, 1, 0, evDone, 1, nil)
	})
}

func TestRequest_ZeroToken_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	assert.PanicsWithError(t, "Request: token must be non-zero", func() {
		s.Request(f, NoToken, 0, evDone, 1, nil)
	})
}

func TestRequest_ServeQueueThenReleaseRedispatches(t *testing.T) {
	// GIVEN a single-server facility
	s := NewSimulation(Config{Name: "scenario"})
	f := s.CreateFacility("link", 1)

	// WHEN token 1 then token 2 request it
	assert.Equal(t, Served, s.Request(f, 1, 0, evDone, 5.0, nil))
	s.Schedule(evDone, 5.0, 1, nil)
	assert.Equal(t, Queued, s.Request(f, 2, 0, evDone, 5.0, "two"))

	// THEN only the served token's event is pending (Request never schedules)
	assert.Equal(t, 1, s.PendingEvents())
	assert.Equal(t, 1, s.BusyServers(f))
	assert.Equal(t, 1, s.QueueLength(f))

	// WHEN token 1 completes and is released
	ev := s.Cause()
	require.Equal(t, Token(1), ev.Token)
	s.Release(f, 1)

	// THEN token 2 holds the server and its completion fires at clock+5
	assert.Equal(t, []Token{2}, s.InService(f))
	assert.Equal(t, 0, s.QueueLength(f))
	next, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, Token(2), next.Token)
	assert.Equal(t, evDone, next.Kind)
	assert.Equal(t, 10.0, next.Time)
	assert.Equal(t, "two", next.Payload)
}

func TestRequest_QueueOrdersByPriorityThenArrival(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 0, evDone, 1, nil)

	s.Request(f, 2, 1, evDone, 1, nil)
	s.Request(f, 3, 5, evDone, 1, nil)
	s.Request(f, 4, 1, evDone, 1, nil)
	s.Request(f, 5, 5, evDone, 1, nil)
	s.Request(f, 6, 0, evDone, 1, nil)

	assert.Equal(t, []Token{3, 5, 2, 4, 6}, queuedTokens(s, f))
	assert.Equal(t, 5, s.MaxQueueLength(f))
}

func TestRequest_TokenAlreadyInService_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 2)
	s.Request(f, 1, 0, evDone, 1, nil)
	assert.Panics(t, func() { s.Request(f, 1, 0, evDone, 1, nil) })
}

func TestRequest_NegativeService_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	assert.PanicsWithError(t, "Request: service time must be >= 0, got -2", func() {
		s.Request(f, 1, 0, evDone, -2, nil)
	})
}

func TestPreempt_DisplacesWeakerToken(t *testing.T) {
	// GIVEN token 1 (priority 0) in service until t=10 and token 3 queued FIFO at priority 0
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	require.Equal(t, Served, s.Request(f, 1, 0, evDone, 10, nil))
	s.Schedule(evDone, 10, 1, "p1")
	require.Equal(t, Queued, s.Request(f, 3, 0, evDone, 4, nil))
	advanceTo(t, s, 4)

	// WHEN token 2 preempts at priority 5
	out := s.Preempt(f, 2, 5, evDone, 3.0, nil)

	// THEN token 2 is served and token 1 waits ahead of token 3
	assert.Equal(t, Served, out)
	assert.Equal(t, []Token{2}, s.InService(f))
	assert.Equal(t, []Token{1, 3}, queuedTokens(s, f))

	// AND token 1 keeps its unused service, resume kind and payload
	head := s.facilities[f].queue.entries[0]
	assert.Equal(t, 6.0, head.remaining)
	assert.Equal(t, evDone, head.resume)
	assert.Equal(t, "p1", head.payload)
	assert.Equal(t, 0, head.priority)

	// AND its completion event left the chain
	_, ok := s.CancelToken(1)
	assert.False(t, ok)

	// AND its partial service was credited as a release
	assert.Equal(t, 1, s.Releases(f))
	assert.Equal(t, 1, s.Preemptions(f))
	assert.Equal(t, 0, s.ServicedTokens(f))
	assert.Equal(t, 4.0, s.facilities[f].busyTime)
}

func TestPreempt_ResumedTokenFinishesRemainingService(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 0, evDone, 10, nil)
	s.Schedule(evDone, 10, 1, "p1")
	advanceTo(t, s, 4)
	require.Equal(t, Served, s.Preempt(f, 2, 5, evDone, 3, nil))
	s.Schedule(evDone, 3, 2, nil)

	ev := s.Cause()
	require.Equal(t, Token(2), ev.Token)
	s.Release(f, 2)

	resumed, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, Token(1), resumed.Token)
	assert.Equal(t, 13.0, resumed.Time, "6 units of service were still owed at t=7")
	assert.Equal(t, "p1", resumed.Payload)
}

func TestPreempt_FreeServer_BehavesLikeRequest(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 2)
	s.Request(f, 1, 9, evDone, 1, nil)

	assert.Equal(t, Served, s.Preempt(f, 2, 0, evDone, 1, nil))
	assert.Equal(t, []Token{1, 2}, s.InService(f))
	assert.Equal(t, 0, s.Preemptions(f))
}

func TestPreempt_NoWeakerToken_QueuesAheadOfEqualPriority(t *testing.T) {
	// GIVEN token 1 in service at priority 5 and token 3 queued FIFO at priority 5
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 5, evDone, 10, nil)
	s.Schedule(evDone, 10, 1, nil)
	s.Request(f, 3, 5, evDone, 1, nil)
	s.Request(f, 4, 9, evDone, 1, nil)

	// WHEN token 2 preempts at the same priority
	out := s.Preempt(f, 2, 5, evDone, 1, nil)

	// THEN it is queued before its equal-priority peer but behind stronger tokens
	assert.Equal(t, Queued, out)
	assert.Equal(t, []Token{4, 2, 3}, queuedTokens(s, f))
	assert.Equal(t, []Token{1}, s.InService(f))
	assert.Equal(t, 0, s.Preemptions(f))
	assert.Equal(t, 1, s.PendingEvents())
}

func TestPreempt_PicksLowestPriorityServer(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("trunk", 3)
	for i, pri := range []int{3, 1, 2} {
		tkn := Token(i + 1)
		s.Request(f, tkn, pri, evDone, 10, nil)
		s.Schedule(evDone, 10, tkn, nil)
	}

	require.Equal(t, Served, s.Preempt(f, 4, 2, evDone, 1, nil))

	assert.Equal(t, []Token{1, 4, 3}, s.InService(f))
	assert.Equal(t, []Token{2}, queuedTokens(s, f))
}

func TestPreempt_MissingCompletionEvent_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 0, evDone, 10, nil) // completion never scheduled

	assert.PanicsWithError(t, `Preempt: token 1 in service at facility "link" has no pending event`, func() {
		s.Preempt(f, 2, 1, evDone, 1, nil)
	})
}

func TestRelease_TokenNotInService_Panics(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 0, evDone, 1, nil)
	s.Request(f, 2, 0, evDone, 1, nil)

	assert.PanicsWithError(t, `Release: token 2 is not in service at facility "link"`, func() {
		s.Release(f, 2)
	})
	assert.Panics(t, func() { s.Release(f, NoToken) })
}

func TestSetDown_PurgesQueueAndKeepsInService(t *testing.T) {
	// GIVEN a facility with one token in service and three queued
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	s.Request(f, 1, 0, evDone, 5, nil)
	s.Schedule(evDone, 5, 1, nil)
	for i := 2; i <= 4; i++ {
		s.Request(f, Token(i), 0, evDone, 1, i*10)
	}
	var dropped []any
	s.SetDropHook(func(tkn Token, payload any) { dropped = append(dropped, payload) })

	// WHEN the facility goes down
	n := s.SetDown(f)

	// THEN every queued entry is purged through the hook
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, s.QueueLength(f))
	assert.Equal(t, 3, s.Dropped(f))
	assert.Equal(t, []any{20, 30, 40}, dropped)
	assert.False(t, s.IsUp(f))

	// AND the in-service token is left to finish
	assert.Equal(t, []Token{1}, s.InService(f))

	// AND new requests are refused and counted
	assert.Equal(t, Down, s.Request(f, 5, 0, evDone, 1, nil))
	assert.Equal(t, Down, s.Preempt(f, 6, 9, evDone, 1, nil))
	assert.Equal(t, 5, s.Dropped(f))

	s.Cause()
	s.Release(f, 1)
	assert.Equal(t, 0, s.BusyServers(f))
}

func TestSetUp_AcceptsRequestsAgain(t *testing.T) {
	s := NewSimulation(Config{})
	f := s.CreateFacility("link", 1)
	assert.Equal(t, 0, s.SetDown(f))

	s.SetUp(f)

	assert.True(t, s.IsUp(f))
	assert.Equal(t, Served, s.Request(f, 1, 0, evDone, 1, nil))
}

func TestFacility_CapacityAndConservationUnderRandomLoad(t *testing.T) {
	// GIVEN a two-server facility fed by random requests and preemptions
	const (
		evArrive EventKind = 100
		servers            = 2
		arrivals           = 500
	)
	rng := rand.New(rand.NewSource(7))
	s := NewSimulation(Config{Name: "random"})
	f := s.CreateFacility("link", servers)
	next := Token(1)
	outstanding := 0
	s.Schedule(evArrive, 0, next, nil)

	// WHEN the model runs to completion
	for !s.IsEmpty() {
		ev := s.Cause()
		switch ev.Kind {
		case evArrive:
			svc := rng.ExpFloat64()
			pri := rng.Intn(3)
			var out Outcome
			if rng.Intn(2) == 0 {
				out = s.Request(f, ev.Token, pri, evDone, svc, nil)
			} else {
				out = s.Preempt(f, ev.Token, pri, evDone, svc, nil)
			}
			require.NotEqual(t, Down, out)
			if out == Served {
				s.Schedule(evDone, svc, ev.Token, nil)
			}
			outstanding++
			if next < arrivals {
				next++
				s.Schedule(evArrive, rng.ExpFloat64()*0.5, next, nil)
			}
		case evDone:
			s.Release(f, ev.Token)
			outstanding--
		}

		// THEN capacity and conservation hold after every event
		busy := s.BusyServers(f)
		require.GreaterOrEqual(t, busy, 0)
		require.LessOrEqual(t, busy, servers)
		require.Equal(t, min(outstanding, servers), busy)
		require.Equal(t, outstanding, busy+s.QueueLength(f))
		require.GreaterOrEqual(t, s.ServicedTokens(f), 0)
	}

	assert.Equal(t, 0, outstanding)
	assert.Equal(t, arrivals, s.ServicedTokens(f))
	assert.Equal(t, arrivals+s.Preemptions(f), s.Releases(f))
}
