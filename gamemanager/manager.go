// Package gamemanager drives the game flow (entering, running, pausing,
// exiting and loading scenes) with an fsm.Handler.
package gamemanager

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
	"github.com/milk9111/gamestate/input"
	"github.com/milk9111/gamestate/scene"
	"github.com/milk9111/gamestate/scripted"
	"github.com/milk9111/gamestate/spawn"
	"github.com/milk9111/gamestate/specs"
)

const (
	minTimeScale      = 0.001
	defaultFixedDelta = 1.0 / 50
	// maxFixedSteps bounds the fixed ticks one Advance may run; the rest of
	// the backlog is dropped.
	maxFixedSteps = 8
)

var ErrNoCatalog = errors.New("no scene catalog")

// LoadSpec reads a game manager machine spec such as game_manager.yaml.
func LoadSpec(name string) (specs.MachineSpec[State], error) {
	return specs.LoadSpec[specs.MachineSpec[State]](name)
}

type Config struct {
	Spec    specs.MachineSpec[State]
	Catalog *scene.Catalog
	// Loader defaults to scene.AsyncLoader.
	Loader scene.Loader
	// Input defaults to a fresh gate.
	Input *input.Gate
	// Spawner, when set, has its clear-on-load pools dropped whenever a
	// scene starts loading.
	Spawner *spawn.Spawner
	Sink    debug.Sink
	// Physics runs once per fixed tick with the fixed delta in seconds.
	Physics func(dt float64)
	// Scripts overrides the scripts named in Spec.
	Scripts map[State][]byte
}

// Manager owns the game flow state machine and the time bookkeeping the
// host loop needs.
type Manager struct {
	id      int
	handler *fsm.Handler[State]
	catalog *scene.Catalog
	loader  scene.Loader
	input   *input.Gate
	sink    debug.Sink
	physics func(dt float64)

	fixedDelta  float64
	accumulator float64
	timeScale   float64
	paused      bool
	frame       int64

	hasSceneBeenSet bool
	sceneToLoad     int
	loaded          scene.Data

	LoadingStarted  Event
	LoadingFinished Event
	EnterEnterState Event
	EnterExitState  Event
}

func New(cfg Config) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("gamemanager: %w", ErrNoCatalog)
	}

	m := &Manager{
		id:         spawn.NextID(),
		catalog:    cfg.Catalog,
		loader:     cfg.Loader,
		input:      cfg.Input,
		sink:       cfg.Sink,
		physics:    cfg.Physics,
		fixedDelta: cfg.Spec.FixedDelta,
		timeScale:  1,
	}
	if m.sink == nil {
		m.sink = debug.Default()
	}
	if m.loader == nil {
		m.loader = scene.AsyncLoader{}
	}
	if m.input == nil {
		m.input = input.NewGate(m.sink)
	}
	if m.fixedDelta <= 0 {
		m.fixedDelta = defaultFixedDelta
	}

	scripts := cfg.Scripts
	if scripts == nil && len(cfg.Spec.Scripts) > 0 {
		var err error
		scripts, err = scripted.LoadScripts(cfg.Spec.Scripts, lookupState)
		if err != nil {
			return nil, fmt.Errorf("gamemanager: %w", err)
		}
	}

	factory := Factory()
	if len(scripts) > 0 {
		factory = &scripted.Factory[State]{
			Inner:   factory,
			Scripts: scripts,
			Parse:   lookupState,
			Sink:    m.sink,
		}
	}

	h, err := fsm.NewHandler(fsm.Config[State]{
		Factory:  factory,
		Subject:  m,
		Group:    debug.GroupGameManager,
		ID:       m.id,
		Standard: cfg.Spec.Standard,
		States:   cfg.Spec.States,
		Start:    cfg.Spec.Start,
	}, fsm.WithSink(m.sink))
	if err != nil {
		return nil, err
	}
	m.handler = h

	if cfg.Spawner != nil {
		m.LoadingStarted.Subscribe(cfg.Spawner.ClearOnLoad)
	}
	return m, nil
}

// Start enters the start state.
func (m *Manager) Start() error { return m.handler.StartStateMachine() }

func (m *Manager) ID() int { return m.id }

func (m *Manager) Info() string { return fmt.Sprintf("GameManager #%d", m.id) }

func (m *Manager) String() string { return "GameManager" }

// Handler exposes the underlying state machine handler.
func (m *Manager) Handler() *fsm.Handler[State] { return m.handler }

func (m *Manager) Input() *input.Gate { return m.input }

func (m *Manager) Catalog() *scene.Catalog { return m.catalog }

// State is the current game state.
func (m *Manager) State() State { return m.handler.CurrentID() }

// Update runs one logic tick.
func (m *Manager) Update() {
	m.frame++
	m.handler.Update()
}

// FixedUpdate runs one physics tick.
func (m *Manager) FixedUpdate() {
	m.handler.FixedUpdate()
	if m.physics != nil {
		m.physics(m.fixedDelta)
	}
}

// Advance runs one logic tick and then as many fixed ticks as dt seconds of
// scaled time owe. It returns the number of fixed ticks run.
func (m *Manager) Advance(dt float64) int {
	m.Update()

	m.accumulator += dt * m.TimeScale()
	steps := 0
	for m.accumulator >= m.fixedDelta {
		if steps == maxFixedSteps {
			m.accumulator = math.Mod(m.accumulator, m.fixedDelta)
			break
		}
		m.accumulator -= m.fixedDelta
		m.FixedUpdate()
		steps++
	}
	return steps
}

// Frame counts logic ticks since creation.
func (m *Manager) Frame() int64 { return m.frame }

func (m *Manager) FixedDelta() float64 { return m.fixedDelta }

// TimeScale is zero while paused.
func (m *Manager) TimeScale() float64 {
	if m.paused {
		return 0
	}
	return m.timeScale
}

// SetTimeScale sets the scale applied outside of pause, never below 0.001.
func (m *Manager) SetTimeScale(v float64) {
	m.timeScale = math.Max(minTimeScale, v)
}

func (m *Manager) ChangeState(s State) { m.handler.ChangeState(s) }

func (m *Manager) EnqueueState(s State) { m.handler.EnqueueState(s) }

func (m *Manager) OnResume() { m.ChangeState(StateRun) }

func (m *Manager) OnPause() { m.ChangeState(StatePause) }

// OnEnterFinished is called by the host once the enter transition has
// played.
func (m *Manager) OnEnterFinished() { m.ChangeState(StateRun) }

// OnExitFinished is called by the host once the exit transition has
// played.
func (m *Manager) OnExitFinished() { m.ChangeState(StateLoad) }

// OnLoadScene starts leaving the current scene for the one called name.
// The load itself begins once the exit transition has finished.
func (m *Manager) OnLoadScene(kind scene.Kind, name string) error {
	baked, err := m.catalog.BakedID(kind, name)
	if err == nil && baked == scene.NotBaked {
		err = fmt.Errorf("gamemanager: %s %q is not in the scene order: %w", kind, name, scene.ErrNotFound)
	}
	if err != nil {
		m.sink.Error(debug.GroupGameManager, m, err.Error())
		m.sink.Error(debug.GroupGameManager, m, "Could not load scene "+name)
		return err
	}
	m.loadScene(baked)
	return nil
}

func (m *Manager) LoadMainMenu() error {
	first, err := m.catalog.First(scene.KindMainMenu)
	if err != nil {
		m.sink.Error(debug.GroupGameManager, m, err.Error())
		return err
	}
	return m.OnLoadScene(scene.KindMainMenu, first.Name)
}

// LoadNext loads the scene after the current one, if there is one.
func (m *Manager) LoadNext() bool {
	next, ok := m.catalog.Next()
	if !ok {
		return false
	}
	return m.OnLoadScene(next.Kind, next.Name) == nil
}

func (m *Manager) loadScene(baked int) {
	m.hasSceneBeenSet = true
	m.sceneToLoad = baked
	m.ChangeState(StateExit)
}

// SceneToLoad is the baked id of the pending scene, if one was set.
func (m *Manager) SceneToLoad() (int, bool) { return m.sceneToLoad, m.hasSceneBeenSet }

// LoadedScene is the data of the last scene that finished loading.
func (m *Manager) LoadedScene() scene.Data { return m.loaded }

// LoadState returns the load state, looking through script decoration.
func (m *Manager) LoadState() (*LoadState, error) {
	b, err := fsm.StateAs[fsm.Behavior](m.handler, StateLoad)
	if err != nil {
		return nil, err
	}
	ls, ok := scripted.Unwrap(b).(*LoadState)
	if !ok {
		return nil, fmt.Errorf("gamemanager: load state is %T: %w", b, fsm.ErrWrongType)
	}
	return ls, nil
}
