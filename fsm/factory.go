package fsm

import (
	"errors"

	"github.com/milk9111/gamestate/debug"
)

var (
	// ErrUnknownState is wrapped by factories that have no state for an
	// identifier.
	ErrUnknownState = errors.New("unknown state")
	// ErrStateMismatch means a factory built a state for another identifier.
	ErrStateMismatch = errors.New("state identifier mismatch")
)

// Factory builds the concrete state for id. subject is whatever the host
// passed to NewHandler and is handed through untouched.
type Factory[T comparable] interface {
	CreateState(subject any, id T, group debug.Group, ownerID int) (*State[T], error)
}

type FactoryFunc[T comparable] func(subject any, id T, group debug.Group, ownerID int) (*State[T], error)

func (f FactoryFunc[T]) CreateState(subject any, id T, group debug.Group, ownerID int) (*State[T], error) {
	return f(subject, id, group, ownerID)
}
