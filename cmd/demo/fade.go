package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// fade darkens the screen over a number of frames and reports back once it
// has finished. Completion is only ever reported from Update, never from the
// call that started the fade.
type fade struct {
	total   int
	frame   int
	out     bool
	running bool
	done    func()
}

func newFade(frames int) *fade {
	return &fade{total: frames}
}

// In fades from black to the scene.
func (f *fade) In(done func()) { f.start(false, done) }

// Out fades from the scene to black.
func (f *fade) Out(done func()) { f.start(true, done) }

func (f *fade) start(out bool, done func()) {
	f.out = out
	f.frame = 0
	f.running = true
	f.done = done
}

func (f *fade) Running() bool { return f.running }

func (f *fade) Update() {
	if !f.running {
		return
	}
	if f.frame < f.total {
		f.frame++
		return
	}
	f.running = false
	if done := f.done; done != nil {
		f.done = nil
		done()
	}
}

func (f *fade) alpha() float64 {
	if f.total == 0 {
		if f.out {
			return 1
		}
		return 0
	}
	t := float64(f.frame) / float64(f.total)
	if f.out {
		return t
	}
	return 1 - t
}

func (f *fade) Draw(screen *ebiten.Image, width, height float64, black bool) {
	a := f.alpha()
	if !f.running {
		if !black {
			return
		}
		a = 1
	}
	vector.FillRect(screen, 0, 0, float32(width), float32(height), color.RGBA{A: uint8(a * 255)}, false)
}
