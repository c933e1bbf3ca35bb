package fsm

import "errors"

var (
	ErrNilState           = errors.New("nil state")
	ErrAlreadyInitialized = errors.New("state machine already initialized")
)

// Machine holds the current state and the identifier of the one before it.
// It performs no validation; callers decide whether a transition makes sense.
type Machine[T comparable] struct {
	current     *State[T]
	previous    T
	hasPrevious bool
}

// Initialize enters start. It may be called once.
func (m *Machine[T]) Initialize(start *State[T]) error {
	if start == nil {
		return ErrNilState
	}
	if m.current != nil {
		return ErrAlreadyInitialized
	}
	m.current = start
	m.current.Enter()
	return nil
}

// ChangeState exits the current state and then enters next. Initialize
// must have been called.
func (m *Machine[T]) ChangeState(next *State[T]) {
	m.previous = m.current.ID()
	m.hasPrevious = true
	m.current.Exit()
	m.current = next
	m.current.Enter()
}

// Current is nil until Initialize.
func (m *Machine[T]) Current() *State[T] { return m.current }

// Previous is the identifier of the state left by the last transition.
func (m *Machine[T]) Previous() (T, bool) { return m.previous, m.hasPrevious }

func (m *Machine[T]) Initialized() bool { return m.current != nil }
