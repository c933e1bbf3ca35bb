package gamemanager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
	"github.com/milk9111/gamestate/input"
	"github.com/milk9111/gamestate/scene"
	"github.com/milk9111/gamestate/spawn"
	"github.com/milk9111/gamestate/specs"
)

type manualOp struct {
	details scene.Details
	done    bool
	err     error
	data    scene.Data
}

func (o *manualOp) Done() bool             { return o.done }
func (o *manualOp) Err() error             { return o.err }
func (o *manualOp) Data() scene.Data       { return o.data }
func (o *manualOp) Details() scene.Details { return o.details }

type manualLoader struct {
	ops []*manualOp
}

func (l *manualLoader) Load(d scene.Details) scene.Operation {
	op := &manualOp{details: d, data: scene.Data{Name: d.Name}}
	l.ops = append(l.ops, op)
	return op
}

func (l *manualLoader) last() *manualOp { return l.ops[len(l.ops)-1] }

type recSink struct {
	warns  []string
	errors []string
}

func (s *recSink) Output(debug.Group, any, string)         {}
func (s *recSink) Warn(_ debug.Group, _ any, msg string)  { s.warns = append(s.warns, msg) }
func (s *recSink) Error(_ debug.Group, _ any, msg string) { s.errors = append(s.errors, msg) }

type crate struct{ active bool }

func (c *crate) Active() bool { return c.active }
func (c *crate) Spawn()       { c.active = true }
func (c *crate) Deactivate()  { c.active = false }

type fixture struct {
	m       *Manager
	loader  *manualLoader
	sink    *recSink
	gate    *input.Gate
	spawner *spawn.Spawner
	fixed   int
	counts  map[string]int
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	spec, err := LoadSpec("game_manager.yaml")
	require.NoError(t, err)
	catalog, err := scene.LoadCatalog("scenes.yaml")
	require.NoError(t, err)

	f := &fixture{
		loader: &manualLoader{},
		sink:   &recSink{},
		counts: map[string]int{},
	}
	f.gate = input.NewGate(debug.Nop)
	f.spawner = spawn.NewSpawner(debug.Nop)

	cfg := Config{
		Spec:    spec,
		Catalog: catalog,
		Loader:  f.loader,
		Input:   f.gate,
		Spawner: f.spawner,
		Sink:    f.sink,
		Physics: func(float64) { f.fixed++ },
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	f.m, err = New(cfg)
	require.NoError(t, err)

	for name, ev := range map[string]*Event{
		"loading_started":   &f.m.LoadingStarted,
		"loading_finished":  &f.m.LoadingFinished,
		"enter_enter_state": &f.m.EnterEnterState,
		"enter_exit_state":  &f.m.EnterExitState,
	} {
		name := name
		ev.Subscribe(func() { f.counts[name]++ })
	}
	return f
}

func TestStateNames(t *testing.T) {
	for s, name := range stateNames {
		parsed, err := ParseState(name)
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
		assert.Equal(t, name, s.String())
	}
	_, err := ParseState("sleep")
	assert.Error(t, err)
	assert.Equal(t, "state(42)", State(42).String())

	var spec specs.MachineSpec[State]
	require.NoError(t, yaml.Unmarshal([]byte("standard: run\nstart: deny_input\nstates: [run, deny_input]\n"), &spec))
	assert.Equal(t, StateRun, spec.Standard)
	assert.Equal(t, StateDenyInput, spec.Start)

	out, err := yaml.Marshal(spec.States)
	require.NoError(t, err)
	assert.Equal(t, "- run\n- deny_input\n", string(out))
}

func TestEnterStateFiresOnFourthTick(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.Start())
	assert.Equal(t, StateEnter, f.m.State())
	assert.False(t, f.gate.Enabled(), "entering denies input")

	for i := 1; i <= 3; i++ {
		f.m.Update()
		assert.Zero(t, f.counts["enter_enter_state"], "tick %d", i)
	}
	f.m.Update()
	assert.Equal(t, 1, f.counts["enter_enter_state"])

	for i := 0; i < 10; i++ {
		f.m.Update()
	}
	assert.Equal(t, 1, f.counts["enter_enter_state"], "fires exactly once per entry")

	f.m.OnEnterFinished()
	assert.Equal(t, StateRun, f.m.State())
	assert.True(t, f.gate.Enabled())
}

func TestLoadSceneFlow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.Start())
	f.m.OnEnterFinished()

	crates := spawn.NewPool("crates", 2, func(int) *crate { return &crate{} }, spawn.ClearOnLoad(), spawn.WithSink(debug.Nop))
	require.NoError(t, spawn.AddPool(f.spawner, crates))

	require.NoError(t, f.m.OnLoadScene(scene.KindLevel, "cavern"))
	assert.Equal(t, StateExit, f.m.State())
	assert.Equal(t, 1, f.counts["enter_exit_state"])
	assert.False(t, f.gate.Enabled())
	baked, ok := f.m.SceneToLoad()
	require.True(t, ok)
	assert.Equal(t, 2, baked)

	f.m.OnExitFinished()
	assert.Equal(t, StateLoad, f.m.State())
	assert.Equal(t, 1, f.counts["loading_started"])
	assert.Empty(t, f.spawner.Pools(), "clear-on-load pools are dropped when loading starts")
	require.Len(t, f.loader.ops, 1)
	assert.Equal(t, "cavern", f.loader.last().details.Name)

	ls, err := f.m.LoadState()
	require.NoError(t, err)
	assert.Same(t, f.loader.last(), ls.Operation())

	f.m.Update()
	assert.Equal(t, StateLoad, f.m.State(), "still loading")

	f.loader.last().done = true
	f.m.Update()
	assert.Equal(t, StateEnter, f.m.State())
	assert.Equal(t, 1, f.counts["loading_finished"])
	assert.Equal(t, "cavern", f.m.LoadedScene().Name)
	_, ok = f.m.SceneToLoad()
	assert.False(t, ok)

	cur, ok := f.m.Catalog().Current()
	require.True(t, ok)
	assert.Equal(t, "cavern", cur.Name)
	assert.Empty(t, f.sink.errors)
}

func TestLoadFailuresAreReported(t *testing.T) {
	t.Run("unknown_scene", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())
		f.m.OnEnterFinished()

		err := f.m.OnLoadScene(scene.KindLevel, "volcano")
		assert.ErrorIs(t, err, scene.ErrNotFound)
		assert.Equal(t, StateRun, f.m.State())
		assert.Contains(t, f.sink.errors, "Could not load scene volcano")
	})

	t.Run("load_without_scene", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())

		f.m.ChangeState(StateLoad)
		assert.Contains(t, f.sink.errors, "Scene has not been set correctly before entering load state!")
		assert.Equal(t, 1, f.counts["loading_started"])
	})

	t.Run("scene_outside_order", func(t *testing.T) {
		var spec scene.CatalogSpec
		require.NoError(t, yaml.Unmarshal([]byte(`
order: [main_menu]
scenes:
  main_menu:
    - name: title
      path: scenes/title.yaml
  credits:
    - name: credits
      path: scenes/credits.yaml
`), &spec))
		catalog, err := scene.NewCatalog(spec)
		require.NoError(t, err)

		f := newFixture(t, func(c *Config) { c.Catalog = catalog })
		require.NoError(t, f.m.Start())
		f.m.OnEnterFinished()

		err = f.m.OnLoadScene(scene.KindCredits, "credits")
		assert.ErrorIs(t, err, scene.ErrNotFound)
		assert.Equal(t, StateRun, f.m.State())
		assert.True(t, f.gate.Enabled())
		assert.Contains(t, f.sink.errors, "Could not load scene credits")
		_, set := f.m.SceneToLoad()
		assert.False(t, set)
	})

	t.Run("unknown_baked_id_ends_load", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())
		f.m.loadScene(scene.NotBaked)
		f.m.OnExitFinished()
		require.Equal(t, StateLoad, f.m.State())
		assert.Empty(t, f.loader.ops)

		f.m.Update()
		assert.Equal(t, StateEnter, f.m.State())
		assert.Equal(t, 1, f.counts["loading_finished"])
		require.NotEmpty(t, f.sink.errors)
		assert.Contains(t, f.sink.errors[0], "Could not load scene -1")
	})

	t.Run("operation_error", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())
		require.NoError(t, f.m.OnLoadScene(scene.KindLevel, "meadow"))
		f.m.OnExitFinished()

		op := f.loader.last()
		op.err = errors.New("corrupt")
		op.done = true
		f.m.Update()

		assert.Equal(t, StateEnter, f.m.State())
		require.Len(t, f.sink.errors, 1)
		assert.Contains(t, f.sink.errors[0], "corrupt")
		_, ok := f.m.Catalog().Current()
		assert.False(t, ok)
	})
}

func TestLoadMainMenuAndNext(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.Start())

	require.NoError(t, f.m.LoadMainMenu())
	baked, _ := f.m.SceneToLoad()
	assert.Equal(t, 0, baked)

	f.m.OnExitFinished()
	f.loader.last().done = true
	f.m.Update()
	assert.False(t, f.m.LoadNext(), "the main menu has no successor")

	f.m.OnEnterFinished()
	require.NoError(t, f.m.OnLoadScene(scene.KindLevel, "meadow"))
	f.m.OnExitFinished()
	f.loader.last().done = true
	f.m.Update()
	f.m.OnEnterFinished()

	assert.True(t, f.m.LoadNext())
	baked, _ = f.m.SceneToLoad()
	assert.Equal(t, 2, baked)
}

func TestPauseStopsFixedTicks(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Spec.FixedDelta = 0.25
		c.Scripts = map[State][]byte{}
	})
	require.NoError(t, f.m.Start())
	f.m.OnEnterFinished()

	assert.Equal(t, 2, f.m.Advance(0.5))
	assert.Equal(t, 2, f.fixed)

	f.m.OnPause()
	assert.Equal(t, StatePause, f.m.State())
	assert.Zero(t, f.m.TimeScale())
	assert.Zero(t, f.m.Advance(1))
	assert.Equal(t, 2, f.fixed)

	f.m.OnResume()
	assert.Equal(t, StateRun, f.m.State())
	assert.Equal(t, 1.0, f.m.TimeScale())
	assert.Equal(t, 1, f.m.Advance(0.25))
}

func TestAdvanceScalesAndCapsFixedTicks(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Spec.FixedDelta = 0.25 })
	require.NoError(t, f.m.Start())

	f.m.SetTimeScale(0.5)
	assert.Equal(t, 1, f.m.Advance(0.5))
	assert.Zero(t, f.m.Advance(0.25), "half a step carried over")
	assert.Equal(t, 1, f.m.Advance(0.25))

	f.m.SetTimeScale(1)
	assert.Equal(t, maxFixedSteps, f.m.Advance(100))
	assert.Equal(t, 1, f.m.Advance(0.25), "the backlog beyond the cap is dropped")

	f.m.SetTimeScale(-3)
	assert.Equal(t, minTimeScale, f.m.TimeScale())
	assert.Equal(t, int64(5), f.m.Frame())
}

func TestScriptedPauseResumesAfterIdleLimit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.m.Start())
	f.m.OnEnterFinished()
	f.m.OnPause()

	for i := 0; i < 3000; i++ {
		f.m.Update()
	}
	assert.Equal(t, StatePause, f.m.State())

	f.m.Update()
	assert.Equal(t, StateRun, f.m.State())
	assert.Empty(t, f.sink.errors)
}

func TestGameManagerScenarios(t *testing.T) {
	t.Run("change_state", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())
		assert.Equal(t, StateEnter, f.m.State())

		f.m.ChangeState(StateRun)
		assert.Equal(t, StateRun, f.m.State())
		prev, ok := f.m.Handler().Previous()
		require.True(t, ok)
		assert.Equal(t, StateEnter, prev)

		f.m.ChangeState(StateRun)
		prev, _ = f.m.Handler().Previous()
		assert.Equal(t, StateEnter, prev, "no re-entry")

		f.m.ChangeState(State(42))
		assert.Equal(t, StateRun, f.m.State())
		assert.Len(t, f.sink.warns, 1)
	})

	t.Run("queue", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.m.Start())

		f.m.EnqueueState(StateLoad)
		f.m.EnqueueState(StateRun)
		f.m.Handler().ChangeToNextState()
		assert.Equal(t, StateLoad, f.m.State())
		f.m.Handler().ChangeToNextState()
		assert.Equal(t, StateRun, f.m.State())
		f.m.Handler().ChangeToNextState()
		assert.Equal(t, StateRun, f.m.State())
	})
}

func TestNewErrors(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoCatalog)

	catalog, err := scene.LoadCatalog("scenes.yaml")
	require.NoError(t, err)

	_, err = New(Config{
		Catalog: catalog,
		Sink:    debug.Nop,
		Spec:    specs.MachineSpec[State]{Standard: StateRun, Start: StateEnter, States: []State{StateEnter, StateRun, State(9)}},
	})
	assert.ErrorIs(t, err, fsm.ErrUnknownState)

	_, err = New(Config{
		Catalog: catalog,
		Sink:    debug.Nop,
		Spec: specs.MachineSpec[State]{
			Standard: StateRun, Start: StateEnter, States: []State{StateEnter, StateRun},
			Scripts: map[string]string{"fly": "pause.tengo"},
		},
	})
	assert.Error(t, err)
}

func TestFactoryRejectsForeignSubject(t *testing.T) {
	_, err := Factory().CreateState("nope", StateRun, debug.GroupGameManager, 1)
	assert.Error(t, err)
}

func TestEventUnsubscribe(t *testing.T) {
	var e Event
	calls := 0
	stop := e.Subscribe(func() { calls++ })
	e.Subscribe(func() { calls += 10 })

	e.Invoke()
	stop()
	e.Invoke()
	assert.Equal(t, 21, calls)
	assert.Equal(t, 1, e.Len())
}
