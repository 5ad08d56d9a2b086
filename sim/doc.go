// Package sim provides the discrete-event simulation kernel for smplsim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Tokens, event kinds and the Event value returned by Cause
//   - chain.go: the time-ordered event chain behind Schedule and Cause
//   - facility.go: facilities, their servers, and the per-facility queue
//   - resource.go: Request, Preempt, Release, SetDown and SetUp
//   - stats.go: utilization, mean busy period and mean queue length
//
// # Model
//
// A Simulation owns one logical clock, one event chain and a set of
// facilities. Time only advances when Cause removes the earliest pending
// event. Callers drive the loop themselves (or through Run), dispatching each
// event by kind and calling back into the resource API:
//
//	for !s.IsEmpty() {
//	    ev := s.Cause()
//	    switch ev.Kind {
//	    case Arrive:
//	        if s.Request(link, ev.Token, 0, Depart, 1.5, nil) == sim.Served {
//	            s.Schedule(Depart, 1.5, ev.Token, nil)
//	        }
//	    case Depart:
//	        s.Release(link, ev.Token)
//	    }
//	}
//
// Request and Preempt never schedule the completion of a token they serve
// immediately; the caller does. Release is the one place where the kernel
// schedules on the caller's behalf: the head of the queue is put into service
// and its stored resume event is scheduled after its remaining service time.
//
// # Errors
//
// Broken preconditions (zero tokens, negative delays, unknown facilities,
// releasing a token that is not in service, causing from an empty chain)
// panic with a *ContractViolation. Ordinary outcomes such as a down facility,
// a full set of servers or a missing event on cancellation are return values.
//
// A Simulation is not safe for concurrent use. Independent instances share no
// state and may run on separate goroutines; Registry bounds how many coexist.
package sim
