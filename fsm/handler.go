package fsm

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"gopkg.in/eapache/queue.v1"

	"github.com/milk9111/gamestate/debug"
)

var (
	ErrNilFactory     = errors.New("nil state factory")
	ErrNoStates       = errors.New("no states declared")
	ErrNotDeclared    = errors.New("state not declared")
	ErrAlreadyStarted = errors.New("state machine already started")
	ErrNotRegistered  = errors.New("state not registered")
	ErrWrongType      = errors.New("state has a different type")
)

// Config declares the states a handler supports for one subject.
type Config[T comparable] struct {
	Factory Factory[T]
	// Subject is passed through to the factory unchanged.
	Subject any
	Group   debug.Group
	// ID identifies the subject in diagnostics.
	ID int
	// Standard is the fallback used by ChangeToNextState on an empty queue.
	Standard T
	// States lists every identifier the handler supports; duplicates are
	// ignored.
	States []T
	Start  T
}

type Option func(*handlerOptions)

type handlerOptions struct {
	sink  debug.Sink
	clock func() time.Time
}

// WithSink routes the handler's and its states' diagnostics to sink. The
// default is debug.Default() at construction time.
func WithSink(sink debug.Sink) Option {
	return func(o *handlerOptions) { o.sink = sink }
}

// WithClock sets the clock states use for StartTime.
func WithClock(clock func() time.Time) Option {
	return func(o *handlerOptions) { o.clock = clock }
}

// Handler maps identifiers to the states built for one subject and exposes
// transitions that tolerate unknown identifiers.
type Handler[T comparable] struct {
	group    debug.Group
	id       int
	standard T
	start    T

	order  []T
	states map[T]*State[T]
	byType map[reflect.Type]*State[T]

	machine Machine[T]
	queue   *queue.Queue
	sink    debug.Sink
}

// NewHandler builds one state per distinct identifier in cfg.States. The
// machine is not started; call StartStateMachine once the host is ready for
// the first Enter.
func NewHandler[T comparable](cfg Config[T], opts ...Option) (*Handler[T], error) {
	o := handlerOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = debug.Default()
	}

	h := &Handler[T]{
		group:    cfg.Group,
		id:       cfg.ID,
		standard: cfg.Standard,
		start:    cfg.Start,
		states:   make(map[T]*State[T], len(cfg.States)),
		byType:   make(map[reflect.Type]*State[T], len(cfg.States)),
		queue:    queue.New(),
		sink:     o.sink,
	}

	if err := h.initializeStates(cfg, o); err != nil {
		h.sink.Error(h.group, h, err.Error())
		return nil, err
	}
	return h, nil
}

func (h *Handler[T]) initializeStates(cfg Config[T], o handlerOptions) error {
	if cfg.Factory == nil {
		return fmt.Errorf("fsm: %w", ErrNilFactory)
	}
	if len(cfg.States) == 0 {
		return fmt.Errorf("fsm: %w", ErrNoStates)
	}

	for _, id := range cfg.States {
		if _, ok := h.states[id]; ok {
			continue
		}

		s, err := cfg.Factory.CreateState(cfg.Subject, id, cfg.Group, cfg.ID)
		if err != nil {
			return fmt.Errorf("fsm: create state %v: %w", id, err)
		}
		if s == nil || s.behavior == nil {
			return fmt.Errorf("fsm: create state %v: factory returned no state: %w", id, ErrUnknownState)
		}
		if s.ID() != id {
			return fmt.Errorf("fsm: create state %v: got state %v: %w", id, s.ID(), ErrStateMismatch)
		}

		s.attach(o.sink, o.clock)
		h.states[id] = s
		h.order = append(h.order, id)

		t := reflect.TypeOf(s.behavior)
		if _, ok := h.byType[t]; !ok {
			h.byType[t] = s
		}
	}

	if _, ok := h.states[cfg.Start]; !ok {
		return fmt.Errorf("fsm: start state %v: %w", cfg.Start, ErrNotDeclared)
	}
	if _, ok := h.states[cfg.Standard]; !ok {
		return fmt.Errorf("fsm: standard state %v: %w", cfg.Standard, ErrNotDeclared)
	}
	return nil
}

// StartStateMachine enters the start state. It may be called once.
func (h *Handler[T]) StartStateMachine() error {
	if h.machine.Initialized() {
		return fmt.Errorf("fsm: %w", ErrAlreadyStarted)
	}
	return h.machine.Initialize(h.states[h.start])
}

func (h *Handler[T]) Started() bool { return h.machine.Initialized() }

// Update forwards the logic tick to the current state.
func (h *Handler[T]) Update() {
	if s := h.machine.Current(); s != nil {
		s.LogicUpdate()
	}
}

// FixedUpdate forwards the physics tick to the current state.
func (h *Handler[T]) FixedUpdate() {
	if s := h.machine.Current(); s != nil {
		s.PhysicsUpdate()
	}
}

// ChangeState transitions to id unless it is already current. Unknown
// identifiers are reported and ignored.
func (h *Handler[T]) ChangeState(id T) {
	next, ok := h.lookup(id, "change to")
	if !ok {
		return
	}
	if h.machine.Current() == next {
		return
	}
	h.machine.ChangeState(next)
}

// ChangeStateIgnoreCurrentState transitions to id even when it is current,
// which re-runs its Exit and Enter.
func (h *Handler[T]) ChangeStateIgnoreCurrentState(id T) {
	next, ok := h.lookup(id, "change to")
	if !ok {
		return
	}
	h.machine.ChangeState(next)
}

// ChangeStateTo is ChangeState(s.ID()); identity is by identifier.
func (h *Handler[T]) ChangeStateTo(s *State[T]) {
	if s == nil {
		h.sink.Warn(h.group, h, "Trying to change to a nil state!")
		return
	}
	h.ChangeState(s.ID())
}

// ChangeToNextState pops the queue, or falls back to the standard state
// when it is empty.
func (h *Handler[T]) ChangeToNextState() {
	if !h.machine.Initialized() {
		h.sink.Warn(h.group, h, "Trying to change to the next state before the state machine was started!")
		return
	}
	if h.queue.Length() > 0 {
		h.ChangeState(h.queue.Remove().(T))
		return
	}
	h.ChangeState(h.standard)
}

func (h *Handler[T]) SetStandardState(id T) {
	if _, ok := h.states[id]; !ok {
		h.sink.Warn(h.group, h, fmt.Sprintf("Trying to set standard state %v which is not known!", id))
		return
	}
	h.standard = id
}

func (h *Handler[T]) Standard() T { return h.standard }

// EnqueueState appends id to the pending queue. Unknown identifiers are
// reported and dropped.
func (h *Handler[T]) EnqueueState(id T) {
	if _, ok := h.states[id]; !ok {
		h.sink.Warn(h.group, h, fmt.Sprintf("Trying to enqueue state %v which is not known!", id))
		return
	}
	h.queue.Add(id)
}

func (h *Handler[T]) ClearStatesQueue() {
	h.sink.Output(h.group, h, fmt.Sprintf("Id = %d Resetting states queue", h.id))
	h.queue = queue.New()
}

// ClearStatesQueueAndReset empties the queue and moves to the standard state.
func (h *Handler[T]) ClearStatesQueueAndReset() {
	h.ClearStatesQueue()
	h.ChangeToNextState()
}

// Pending returns the queued identifiers, front first.
func (h *Handler[T]) Pending() []T {
	out := make([]T, h.queue.Length())
	for i := range out {
		out[i] = h.queue.Get(i).(T)
	}
	return out
}

func (h *Handler[T]) QueueLen() int { return h.queue.Length() }

// IsInState reports whether the current state is any of ids.
func (h *Handler[T]) IsInState(ids ...T) bool {
	s := h.machine.Current()
	return s != nil && slices.Contains(ids, s.ID())
}

// Current is nil until the machine is started.
func (h *Handler[T]) Current() *State[T] { return h.machine.Current() }

// CurrentID returns the zero value until the machine is started.
func (h *Handler[T]) CurrentID() T {
	var zero T
	if s := h.machine.Current(); s != nil {
		return s.ID()
	}
	return zero
}

func (h *Handler[T]) Previous() (T, bool) { return h.machine.Previous() }

func (h *Handler[T]) Has(id T) bool {
	_, ok := h.states[id]
	return ok
}

// States returns the declared identifiers in declaration order, without
// duplicates.
func (h *Handler[T]) States() []T { return slices.Clone(h.order) }

func (h *Handler[T]) Group() debug.Group { return h.group }

func (h *Handler[T]) ID() int { return h.id }

func (h *Handler[T]) String() string {
	return fmt.Sprintf("Handler(%s #%d)", h.group, h.id)
}

func (h *Handler[T]) lookup(id T, action string) (*State[T], bool) {
	s, ok := h.states[id]
	if !ok {
		h.sink.Warn(h.group, h, fmt.Sprintf("Trying to %s state %v which is not known!", action, id))
		return nil, false
	}
	if !h.machine.Initialized() {
		h.sink.Warn(h.group, h, fmt.Sprintf("Trying to %s state %v before the state machine was started!", action, id))
		return nil, false
	}
	return s, true
}

// StateAs returns the behavior built for id as V.
func StateAs[V any, T comparable](h *Handler[T], id T) (V, error) {
	var zero V
	s, ok := h.states[id]
	if !ok {
		return zero, fmt.Errorf("fsm: state %v: %w", id, ErrNotRegistered)
	}
	v, ok := s.behavior.(V)
	if !ok {
		return zero, fmt.Errorf("fsm: state %v is %T, not %v: %w", id, s.behavior, reflect.TypeFor[V](), ErrWrongType)
	}
	return v, nil
}

// StateOf returns the first declared behavior whose type is V. Interface
// types match any behavior implementing them.
func StateOf[V any, T comparable](h *Handler[T]) (V, error) {
	if s, ok := h.byType[reflect.TypeFor[V]()]; ok {
		return s.behavior.(V), nil
	}
	for _, id := range h.order {
		if v, ok := h.states[id].behavior.(V); ok {
			return v, nil
		}
	}
	var zero V
	return zero, fmt.Errorf("fsm: state of type %v: %w", reflect.TypeFor[V](), ErrNotRegistered)
}

func MustStateAs[V any, T comparable](h *Handler[T], id T) V {
	v, err := StateAs[V](h, id)
	if err != nil {
		panic(err)
	}
	return v
}

func MustStateOf[V any, T comparable](h *Handler[T]) V {
	v, err := StateOf[V](h)
	if err != nil {
		panic(err)
	}
	return v
}
