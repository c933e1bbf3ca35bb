package gamemanager

import "slices"

// Event is a list of callbacks invoked in subscription order.
type Event struct {
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func()
}

// Subscribe adds fn and returns a function that removes it again.
func (e *Event) Subscribe(fn func()) (unsubscribe func()) {
	e.next++
	id := e.next
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	return func() {
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.id == id })
	}
}

// Invoke calls every subscriber. Subscriptions changed by a callback take
// effect on the next Invoke.
func (e *Event) Invoke() {
	for _, s := range slices.Clone(e.subs) {
		s.fn()
	}
}

func (e *Event) Len() int { return len(e.subs) }
