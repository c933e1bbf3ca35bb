package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFadeReportsAfterFrames(t *testing.T) {
	f := newFade(2)
	calls := 0
	f.Out(func() { calls++ })

	assert.True(t, f.Running())
	assert.Equal(t, 0.0, f.alpha())

	f.Update()
	f.Update()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1.0, f.alpha())

	f.Update()
	assert.Equal(t, 1, calls)
	assert.False(t, f.Running())

	f.Update()
	assert.Equal(t, 1, calls)
}

func TestFadeWithoutFramesStillWaitsForUpdate(t *testing.T) {
	f := newFade(0)
	done := false
	f.In(func() { done = true })

	assert.False(t, done)
	assert.Equal(t, 0.0, f.alpha())
	f.Update()
	assert.True(t, done)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 60, cfg.TPS)
	assert.Equal(t, "game_manager.yaml", cfg.Machine)
	assert.Equal(t, "scenes.yaml", cfg.Scenes)
	assert.True(t, cfg.Watch)
}

func TestLoadConfigFromDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.env")
	require.NoError(t, os.WriteFile(path, []byte("GAMESTATE_TPS=30\nGAMESTATE_SCENE=meadow\n"), 0o644))
	t.Setenv("GAMESTATE_WIDTH", "640")
	t.Cleanup(func() {
		os.Unsetenv("GAMESTATE_TPS")
		os.Unsetenv("GAMESTATE_SCENE")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 30, cfg.TPS)
	assert.Equal(t, "meadow", cfg.Scene)
}
