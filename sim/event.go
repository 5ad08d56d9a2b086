package sim

import "fmt"

// Token identifies one unit of work (a packet, a job) flowing through the
// simulation. Tokens are assigned by the caller and must be unique among all
// pending uses, both in the event chain and in facility queues.
type Token int64

// NoToken is reserved; scheduling or requesting with it is a contract violation.
const NoToken Token = 0

// EventKind is a caller-defined event type used to dispatch caused events.
type EventKind int

// Event is one pending occurrence in the event chain.
// Payload is attached by the caller and passed through untouched.
type Event struct {
	Time    float64   // absolute simulation time at which the event fires
	Kind    EventKind // caller-defined event type
	Token   Token     // work unit the event belongs to
	Payload any       // optional caller data, owned by the caller
}

func (ev Event) String() string {
	return fmt.Sprintf("Event: (Kind: %d, Token: %d, Time: %g)", ev.Kind, ev.Token, ev.Time)
}
