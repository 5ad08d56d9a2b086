// Implements the facility queue, which holds tokens waiting for a server.
// Entries are kept in descending priority order.

package sim

import (
	"fmt"
	"slices"
	"strings"
)

// queueEntry is a token waiting for a server, together with what the kernel
// needs to resume it: the event to schedule and the service still owed.
type queueEntry struct {
	token     Token
	payload   any
	priority  int
	remaining float64   // service time still owed when the token is resumed
	resume    EventKind // event scheduled by Release when the entry gets a server
}

// facilityQueue is a priority-ordered waiting list. Higher priority values
// are served first.
type facilityQueue struct {
	entries []queueEntry
}

func (q *facilityQueue) Len() int {
	return len(q.entries)
}

// enqueueFIFO inserts e after the last entry whose priority is >= e.priority,
// so equal-priority tokens are served in arrival order.
func (q *facilityQueue) enqueueFIFO(e queueEntry) {
	i := len(q.entries)
	for i > 0 && q.entries[i-1].priority < e.priority {
		i--
	}
	q.entries = slices.Insert(q.entries, i, e)
}

// enqueuePreempt inserts e before the first entry whose priority is <= e.priority.
// Displaced tokens resume ahead of their peers at the same priority.
func (q *facilityQueue) enqueuePreempt(e queueEntry) {
	i := 0
	for i < len(q.entries) && q.entries[i].priority > e.priority {
		i++
	}
	q.entries = slices.Insert(q.entries, i, e)
}

// dequeue removes the head entry. The queue must not be empty.
func (q *facilityQueue) dequeue() queueEntry {
	e := q.entries[0]
	q.entries[0] = queueEntry{}
	q.entries = q.entries[1:]
	return e
}

// drain empties the queue and returns the removed entries in queue order.
func (q *facilityQueue) drain() []queueEntry {
	out := q.entries
	q.entries = nil
	return out
}

func (q *facilityQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range q.entries {
		fmt.Fprintf(&sb, "%d/%d", e.token, e.priority)
		if i < len(q.entries)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
