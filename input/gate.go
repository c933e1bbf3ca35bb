// Package input decides whether player input is currently accepted.
package input

import "github.com/milk9111/gamestate/debug"

// Gate is toggled by game states; input polling only happens while it is
// enabled. Subscribers are told about every change, not every call.
type Gate struct {
	enabled bool
	subs    []func(enabled bool)
	sink    debug.Sink
}

func NewGate(sink debug.Sink) *Gate {
	if sink == nil {
		sink = debug.Default()
	}
	return &Gate{enabled: true, sink: sink}
}

func (g *Gate) Enabled() bool { return g.enabled }

func (g *Gate) Enable() { g.set(true) }

// Disable also drops any held input; subscribers should reset their state.
func (g *Gate) Disable() { g.set(false) }

// OnChange registers fn to run whenever the gate flips.
func (g *Gate) OnChange(fn func(enabled bool)) {
	g.subs = append(g.subs, fn)
}

func (g *Gate) set(enabled bool) {
	if g.enabled == enabled {
		return
	}
	g.enabled = enabled
	if enabled {
		g.sink.Output(debug.GroupInput, g, "Inputs enabled")
	} else {
		g.sink.Output(debug.GroupInput, g, "Inputs disabled")
	}
	for _, fn := range g.subs {
		fn(enabled)
	}
}

func (g *Gate) String() string { return "InputManager" }
