package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/spawn"
)

const (
	cratePool  = "crates"
	crateSize  = 32.0
	crateMass  = 1.0
	groundY    = 660.0
	spaceWidth = 1280.0
)

// crate is a pooled box that lives in the physics space while active.
type crate struct {
	space  *cp.Space
	body   *cp.Body
	shape  *cp.Shape
	spawnX float64
	active bool
}

func newCrate(space *cp.Space, i int) *crate {
	body := cp.NewBody(crateMass, cp.MomentForBox(crateMass, crateSize, crateSize))
	shape := cp.NewBox(body, crateSize, crateSize, 0)
	shape.SetFriction(0.7)
	shape.SetElasticity(0.2)
	return &crate{
		space:  space,
		body:   body,
		shape:  shape,
		spawnX: 200 + float64(i%12)*(crateSize+40),
	}
}

func (c *crate) Active() bool { return c.active }

func (c *crate) Spawn() {
	c.body.SetPosition(cp.Vector{X: c.spawnX, Y: -crateSize})
	c.body.SetVelocity(0, 0)
	c.body.SetAngularVelocity(0)
	c.body.SetAngle(0)
	c.space.AddBody(c.body)
	c.space.AddShape(c.shape)
	c.active = true
}

func (c *crate) Deactivate() {
	if !c.active {
		return
	}
	c.space.RemoveShape(c.shape)
	c.space.RemoveBody(c.body)
	c.active = false
}

// world is the physics space the crates fall into. Its crate pool is
// cleared on every scene load and refilled from the loaded scene.
type world struct {
	space   *cp.Space
	spawner *spawn.Spawner
	sink    debug.Sink
}

func newWorld(spawner *spawn.Spawner, sink debug.Sink) *world {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: 900})

	ground := cp.NewSegment(space.StaticBody, cp.Vector{X: 0, Y: groundY}, cp.Vector{X: spaceWidth, Y: groundY}, 4)
	ground.SetFriction(0.8)
	space.AddShape(ground)

	return &world{space: space, spawner: spawner, sink: sink}
}

// Fill replaces the crate pool with count fresh crates and spawns them all.
func (w *world) Fill(count int) error {
	if count <= 0 {
		return nil
	}
	pool := spawn.NewPool(cratePool, count, func(i int) *crate { return newCrate(w.space, i) },
		spawn.ClearOnLoad(), spawn.WithSink(w.sink))
	if err := spawn.AddPool(w.spawner, pool); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if _, err := spawn.Spawn[*crate](w.spawner, cratePool); err != nil {
			return err
		}
	}
	w.sink.Output(debug.GroupSpawning, w.spawner, fmt.Sprintf("Spawned %d crates", count))
	return nil
}

func (w *world) Step(dt float64) {
	w.space.Step(dt)
}

func (w *world) Draw(screen *ebiten.Image) {
	vector.StrokeLine(screen, 0, groundY, spaceWidth, groundY, 4, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, false)

	pool, err := spawn.Lookup[*crate](w.spawner, cratePool)
	if err != nil {
		return
	}
	pool.Each(func(c *crate) {
		if !c.active {
			return
		}
		p := c.body.Position()
		vector.FillRect(screen, float32(p.X-crateSize/2), float32(p.Y-crateSize/2), crateSize, crateSize,
			color.RGBA{R: 0xb0, G: 0x7a, B: 0x3c, A: 0xff}, false)
	})
}
