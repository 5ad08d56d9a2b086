package network

import (
	"fmt"

	"github.com/inference-sim/smplsim/sim"
)

// Packet is the payload attached to every packet token. It travels with the
// token through the event chain and the link queues.
type Packet struct {
	ID      sim.Token
	Class   int     // index into Scenario.Classes
	Hop     int     // index of the link currently being crossed
	Created float64 // arrival time at the first link
}

func (p Packet) String() string {
	return fmt.Sprintf("Packet: (ID: %d, Class: %d, Hop: %d, Created: %g)", p.ID, p.Class, p.Hop, p.Created)
}
