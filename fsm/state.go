// Package fsm is a small typed finite state machine for frame-driven hosts.
// A Handler owns one State per identifier, built by a Factory, and forwards
// the host's logic and physics ticks to whichever state is current.
package fsm

import (
	"fmt"
	"time"

	"github.com/milk9111/gamestate/debug"
)

// Behavior is what a concrete state implements. The State wrapping it takes
// care of timestamps, the exiting flag and diagnostics.
type Behavior interface {
	Entering()
	Exiting()
	LogicUpdate()
	PhysicsUpdate()
}

// Nop can be embedded to pick up no-op hooks.
type Nop struct{}

func (Nop) Entering()      {}
func (Nop) Exiting()       {}
func (Nop) LogicUpdate()   {}
func (Nop) PhysicsUpdate() {}

// State is one phase of a subject's behavior, identified by T.
type State[T comparable] struct {
	id       T
	behavior Behavior
	group    debug.Group
	ownerID  int
	info     debug.Info
	sink     debug.Sink
	clock    func() time.Time

	startTime time.Time
	exiting   bool
}

type StateOption func(*stateOptions)

type stateOptions struct {
	info  debug.Info
	sink  debug.Sink
	clock func() time.Time
}

// WithInfo replaces the "Id = n" identity in diagnostics.
func WithInfo(info debug.Info) StateOption {
	return func(o *stateOptions) { o.info = info }
}

// WithStateSink pins the state's diagnostics to sink instead of the
// handler's.
func WithStateSink(sink debug.Sink) StateOption {
	return func(o *stateOptions) { o.sink = sink }
}

// WithStateClock pins the clock used for StartTime.
func WithStateClock(clock func() time.Time) StateOption {
	return func(o *stateOptions) { o.clock = clock }
}

func NewState[T comparable](id T, behavior Behavior, group debug.Group, ownerID int, opts ...StateOption) *State[T] {
	var o stateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &State[T]{
		id:       id,
		behavior: behavior,
		group:    group,
		ownerID:  ownerID,
		info:     o.info,
		sink:     o.sink,
		clock:    o.clock,
	}
}

// attach fills in the handler's sink and clock unless the state was built
// with its own.
func (s *State[T]) attach(sink debug.Sink, clock func() time.Time) {
	if s.sink == nil {
		s.sink = sink
	}
	if s.clock == nil {
		s.clock = clock
	}
}

func (s *State[T]) ID() T { return s.id }

func (s *State[T]) Behavior() Behavior { return s.behavior }

// Decorate returns a copy of s that drives b instead. Factories use it to
// wrap a state another factory built without losing its options.
func (s *State[T]) Decorate(b Behavior) *State[T] {
	c := *s
	c.behavior = b
	return &c
}

// StartTime is when the state was last entered.
func (s *State[T]) StartTime() time.Time { return s.startTime }

// IsExiting reports whether Exit ran since the last Enter.
func (s *State[T]) IsExiting() bool { return s.exiting }

func (s *State[T]) Enter() {
	s.print(fmt.Sprintf("Enter state %v", s.id))

	s.startTime = s.now()
	s.exiting = false
	s.behavior.Entering()
}

func (s *State[T]) Exit() {
	s.print(fmt.Sprintf("Exit state %v", s.id))

	s.exiting = true
	s.behavior.Exiting()
}

func (s *State[T]) LogicUpdate() { s.behavior.LogicUpdate() }

func (s *State[T]) PhysicsUpdate() { s.behavior.PhysicsUpdate() }

func (s *State[T]) String() string {
	return fmt.Sprintf("%T(%v)", s.behavior, s.id)
}

func (s *State[T]) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}

func (s *State[T]) identity() string {
	if s.info == nil {
		return fmt.Sprintf("Id = %d", s.ownerID)
	}
	return s.info.Info()
}

func (s *State[T]) print(msg string) {
	sink := s.sink
	if sink == nil {
		sink = debug.Default()
	}
	sink.Output(s.group, s, s.identity()+" - "+msg)
}
