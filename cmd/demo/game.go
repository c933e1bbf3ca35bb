package main

import (
	"fmt"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/gamemanager"
	"github.com/milk9111/gamestate/scene"
	"github.com/milk9111/gamestate/spawn"
	"github.com/milk9111/gamestate/specs"
)

type Game struct {
	cfg     Config
	debug   *debug.Manager
	manager *gamemanager.Manager
	world   *world
	fade    *fade
	pauseUI *ebitenui.UI
	watcher *specs.Watcher
}

func NewGame(cfg Config) (*Game, error) {
	g := &Game{cfg: cfg, fade: newFade(cfg.FadeFrames)}

	debugCfg, err := debug.LoadConfig(cfg.Debug)
	if err != nil {
		return nil, err
	}
	g.debug = debug.NewManager(debugCfg, debug.WithFrameSource(func() int64 {
		if g.manager == nil {
			return 0
		}
		return g.manager.Frame()
	}))
	debug.SetDefault(g.debug)

	catalog, err := scene.LoadCatalog(cfg.Scenes)
	if err != nil {
		return nil, err
	}
	spec, err := gamemanager.LoadSpec(cfg.Machine)
	if err != nil {
		return nil, err
	}

	spawner := spawn.NewSpawner(g.debug)
	g.world = newWorld(spawner, g.debug)

	g.manager, err = gamemanager.New(gamemanager.Config{
		Spec:    spec,
		Catalog: catalog,
		Spawner: spawner,
		Sink:    g.debug,
		Physics: g.world.Step,
	})
	if err != nil {
		return nil, err
	}

	g.manager.LoadingFinished.Subscribe(func() {
		if err := g.world.Fill(g.manager.LoadedScene().Crates); err != nil {
			g.debug.Error(debug.GroupSpawning, spawner, err.Error())
		}
	})
	g.manager.EnterEnterState.Subscribe(func() { g.fade.In(g.manager.OnEnterFinished) })
	g.manager.EnterExitState.Subscribe(func() { g.fade.Out(g.manager.OnExitFinished) })

	g.pauseUI = NewPauseUI(g)

	if cfg.Watch {
		w, err := specs.NewWatcher(specs.Dir)
		if err != nil {
			g.debug.Warn(debug.GroupDebug, "Specs", fmt.Sprintf("Not watching %s: %v", specs.Dir, err))
		} else {
			g.watcher = w
		}
	}

	if err := g.manager.Start(); err != nil {
		return nil, err
	}
	if err := g.loadFirstScene(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) loadFirstScene() error {
	if g.cfg.Scene == "" {
		return g.manager.LoadMainMenu()
	}
	baked, err := g.manager.Catalog().BakedIDByName(g.cfg.Scene)
	if err != nil {
		return err
	}
	details, err := g.manager.Catalog().ByBakedID(baked)
	if err != nil {
		return err
	}
	return g.manager.OnLoadScene(details.Kind, details.Name)
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	_ = g.debug.Sync()
}

func (g *Game) Update() error {
	g.reloadSpecs()
	g.fade.Update()
	g.handleInput()

	if g.manager.State() == gamemanager.StatePause {
		g.pauseUI.Update()
	}

	g.manager.Advance(1 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) reloadSpecs() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			name := change.Name
			if change.Script || name != g.cfg.Debug {
				continue
			}
			if err := g.debug.Reload(name); err != nil {
				g.debug.Error(debug.GroupDebug, "Specs", fmt.Sprintf("Reloading %s failed: %v", name, err))
				continue
			}
			g.debug.Output(debug.GroupDebug, "Specs", "Reloaded "+name)
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.debug.Warn(debug.GroupDebug, "Specs", err.Error())
			}
		default:
			return
		}
	}
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		path, err := g.debug.SaveReport("")
		if err != nil {
			g.debug.Error(debug.GroupDebug, "BugReport", err.Error())
		} else {
			g.debug.Output(debug.GroupDebug, "BugReport", "Saved "+path)
		}
	}

	if !g.manager.Input().Enabled() {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		switch g.manager.State() {
		case gamemanager.StatePause:
			g.manager.OnResume()
		case gamemanager.StateRun:
			g.manager.OnPause()
		}
	}
	if g.manager.State() != gamemanager.StateRun {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if current, ok := g.manager.Catalog().Current(); ok && current.Kind == scene.KindMainMenu {
			if first, err := g.manager.Catalog().First(scene.KindLevel); err == nil {
				_ = g.manager.OnLoadScene(first.Kind, first.Name)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.manager.LoadNext()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.world.Draw(screen)

	state := g.manager.State()
	black := state == gamemanager.StateLoad || state == gamemanager.StateExit
	g.fade.Draw(screen, float64(g.cfg.Width), float64(g.cfg.Height), black)

	var b strings.Builder
	fmt.Fprintf(&b, "Frame: %d    FPS: %.2f    State: %s\n", g.manager.Frame(), ebiten.ActualFPS(), state)
	if current, ok := g.manager.Catalog().Current(); ok {
		fmt.Fprintf(&b, "Scene: %s (%s)\n", current.Name, current.Kind)
	}
	fmt.Fprintf(&b, "Input: %t    Time scale: %.2f\n", g.manager.Input().Enabled(), g.manager.TimeScale())
	ebitenutil.DebugPrint(screen, b.String())

	if state == gamemanager.StatePause {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return float64(g.cfg.Width), float64(g.cfg.Height)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
