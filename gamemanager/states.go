package gamemanager

import (
	"fmt"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
	"github.com/milk9111/gamestate/scene"
)

// waitForStartFrames is how many logic ticks the Enter state lets pass
// before announcing itself.
const waitForStartFrames = 3

type gameState struct {
	fsm.Nop
	m *Manager
}

type DenyInputState struct {
	gameState
}

func (s *DenyInputState) Entering() { s.m.input.Disable() }

type AllowInputState struct {
	gameState
}

func (s *AllowInputState) Entering() { s.m.input.Enable() }

// EnterState fires EnterEnterState once, on the fourth logic tick after
// entry.
type EnterState struct {
	DenyInputState
	framesInState int
}

func (s *EnterState) Entering() {
	s.DenyInputState.Entering()
	s.framesInState = 0
}

func (s *EnterState) LogicUpdate() {
	frame := s.framesInState
	s.framesInState++
	if frame != waitForStartFrames {
		return
	}
	s.m.EnterEnterState.Invoke()
}

type ExitState struct {
	DenyInputState
}

func (s *ExitState) Entering() {
	s.DenyInputState.Entering()
	s.m.EnterExitState.Invoke()
}

// LoadState loads the scene the manager was asked for and moves on to
// Enter once the load completes.
type LoadState struct {
	DenyInputState
	op scene.Operation
}

func (s *LoadState) Entering() {
	s.DenyInputState.Entering()
	m := s.m
	if !m.hasSceneBeenSet {
		m.sink.Error(debug.GroupGameManager, m, "Scene has not been set correctly before entering load state!")
	}

	m.LoadingStarted.Invoke()

	s.op = nil
	details, err := m.catalog.ByBakedID(m.sceneToLoad)
	if err != nil {
		m.sink.Error(debug.GroupGameManager, m, fmt.Sprintf("Could not load scene %d: %v", m.sceneToLoad, err))
		return
	}
	s.op = m.loader.Load(details)
}

func (s *LoadState) Exiting() {
	s.m.LoadingFinished.Invoke()
	s.m.hasSceneBeenSet = false
}

// LogicUpdate finishes the load once the operation is done. A scene that
// could not be looked up ends the load on the first tick.
func (s *LoadState) LogicUpdate() {
	if s.op == nil || s.op.Done() {
		s.SceneLoadDone()
	}
}

// Operation is the load in flight, or nil when nothing could be loaded.
func (s *LoadState) Operation() scene.Operation { return s.op }

// SceneLoadDone records the loaded scene and moves to Enter.
func (s *LoadState) SceneLoadDone() {
	m := s.m
	if s.op != nil && s.op.Done() {
		details := s.op.Details()
		if err := s.op.Err(); err != nil {
			m.sink.Error(debug.GroupGameManager, m, fmt.Sprintf("Loading scene %s failed: %v", details.Name, err))
		} else {
			m.loaded = s.op.Data()
			m.catalog.SetCurrent(details.Kind, details.Name)
			m.sink.Output(debug.GroupGameManager, m, "Loaded scene "+details.String())
		}
	}
	m.ChangeState(StateEnter)
}

type RunState struct {
	AllowInputState
}

// PauseState stops fixed ticks while it is current.
type PauseState struct {
	gameState
}

func (s *PauseState) Entering() { s.m.paused = true }

func (s *PauseState) Exiting() { s.m.paused = false }
