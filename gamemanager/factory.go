package gamemanager

import (
	"fmt"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
)

type stateFactory struct{}

// Factory builds the game manager's states. The subject must be the
// *Manager the states act on.
func Factory() fsm.Factory[State] { return stateFactory{} }

func (stateFactory) CreateState(subject any, id State, group debug.Group, ownerID int) (*fsm.State[State], error) {
	m, ok := subject.(*Manager)
	if !ok || m == nil {
		return nil, fmt.Errorf("gamemanager: state %v: subject %T is not a *Manager", id, subject)
	}

	base := gameState{m: m}
	var b fsm.Behavior
	switch id {
	case StateEnter:
		b = &EnterState{DenyInputState: DenyInputState{base}}
	case StateExit:
		b = &ExitState{DenyInputState{base}}
	case StateLoad:
		b = &LoadState{DenyInputState: DenyInputState{base}}
	case StateRun:
		b = &RunState{AllowInputState{base}}
	case StatePause:
		b = &PauseState{base}
	case StateDenyInput:
		b = &DenyInputState{base}
	case StateAllowInput:
		b = &AllowInputState{base}
	default:
		return nil, fmt.Errorf("gamemanager: state %v: %w", id, fsm.ErrUnknownState)
	}
	return fsm.NewState(id, b, group, ownerID, fsm.WithInfo(m)), nil
}
