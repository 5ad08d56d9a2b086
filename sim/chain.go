package sim

import "slices"

// eventChain holds pending events in ascending time order.
// Events with equal times keep their scheduling order.
type eventChain struct {
	events []Event
}

func (c *eventChain) Len() int {
	return len(c.events)
}

// insert places ev after every event whose time is <= ev.Time.
// The search walks back from the tail because newly scheduled events usually
// belong near the end; an event earlier than the head goes straight to the front.
func (c *eventChain) insert(ev Event) {
	n := len(c.events)
	switch {
	case n == 0 || ev.Time >= c.events[n-1].Time:
		c.events = append(c.events, ev)
		return
	case ev.Time < c.events[0].Time:
		c.events = slices.Insert(c.events, 0, ev)
		return
	}
	i := n - 1
	for c.events[i-1].Time > ev.Time {
		i--
	}
	c.events = slices.Insert(c.events, i, ev)
}

func (c *eventChain) peek() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[0], true
}

// popFront removes the earliest event. The chain must not be empty.
func (c *eventChain) popFront() Event {
	ev := c.events[0]
	c.events[0] = Event{} // drop the payload reference
	c.events = c.events[1:]
	return ev
}

// removeFirst removes the first event, scanning from the head, for which
// match returns true.
func (c *eventChain) removeFirst(match func(Event) bool) (Event, bool) {
	i := slices.IndexFunc(c.events, match)
	if i < 0 {
		return Event{}, false
	}
	ev := c.events[i]
	c.events = slices.Delete(c.events, i, i+1)
	return ev, true
}

func (c *eventChain) clear() {
	clear(c.events)
	c.events = c.events[:0]
}
