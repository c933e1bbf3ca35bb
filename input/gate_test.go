package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/milk9111/gamestate/debug"
)

func TestGateNotifiesOnChangeOnly(t *testing.T) {
	g := NewGate(debug.Nop)
	assert.True(t, g.Enabled())

	var seen []bool
	g.OnChange(func(enabled bool) { seen = append(seen, enabled) })

	g.Enable()
	g.Disable()
	g.Disable()
	g.Enable()

	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, g.Enabled())
}

func TestGateDefaultSink(t *testing.T) {
	g := NewGate(nil)
	assert.NotPanics(t, func() {
		g.Disable()
		g.Enable()
	})
}
