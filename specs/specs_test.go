package specs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDir(t *testing.T, dir string) {
	t.Helper()
	old := Dir
	Dir = dir
	t.Cleanup(func() { Dir = old })
}

func TestCleanPaths(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		spec   string
		script string
	}{
		{"bare", "pause.tengo", "pause.tengo", "scripts/pause.tengo"},
		{"specs_prefix", "specs/debug.yaml", "debug.yaml", "scripts/debug.yaml"},
		{"scripts_prefix", "specs/scripts/pause.tengo", "scripts/pause.tengo", "scripts/pause.tengo"},
		{"nested", "scenes/meadow.yaml", "scenes/meadow.yaml", "scripts/scenes/meadow.yaml"},
		{"empty", "", "", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.spec, cleanSpecPath(c.in))
			assert.Equal(t, c.script, cleanScriptPath(c.in))
		})
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	withDir(t, t.TempDir())

	data, err := Load("game_manager.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "standard: run")

	script, err := LoadScript("pause.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(script), "hooks")

	_, ok := ModTime("game_manager.yaml")
	assert.False(t, ok)
}

func TestLoadPrefersDisk(t *testing.T) {
	dir := t.TempDir()
	withDir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.yaml"), []byte("enabled: false\n"), 0o644))
	data, err := Load("specs/debug.yaml")
	require.NoError(t, err)
	assert.Equal(t, "enabled: false\n", string(data))

	_, ok := ModTime("debug.yaml")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "debug.yaml"), DiskPath("debug.yaml"))
}

func TestLoadMachineSpec(t *testing.T) {
	spec, err := LoadSpec[MachineSpec[string]]("game_manager.yaml")
	require.NoError(t, err)

	assert.Equal(t, "run", spec.Standard)
	assert.Equal(t, "enter", spec.Start)
	assert.Equal(t, []string{"enter", "exit", "load", "run", "pause", "deny_input", "allow_input"}, spec.States)
	assert.Equal(t, map[string]string{"pause": "pause.tengo"}, spec.Scripts)
	assert.InDelta(t, 0.02, spec.FixedDelta, 1e-9)
}

func TestLoadSpecErrors(t *testing.T) {
	withDir(t, t.TempDir())

	_, err := LoadSpec[MachineSpec[string]]("nope.yaml")
	assert.ErrorContains(t, err, "specs: load nope.yaml")

	_, err = DecodeSpec[MachineSpec[string]]("bad.yaml", []byte("states: {"))
	assert.ErrorContains(t, err, "specs: unmarshal bad.yaml")
}

func TestWatcherReportsChangedSpecs(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.yaml"), []byte("enabled: true\n"), 0o644))

	select {
	case change := <-w.Events:
		assert.Equal(t, Change{Name: "debug.yaml"}, change)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a watch event")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		want   Change
		wanted bool
	}{
		{"yaml_write", fsnotify.Event{Name: "/x/specs/debug.yaml", Op: fsnotify.Write}, Change{Name: "debug.yaml"}, true},
		{"script_create", fsnotify.Event{Name: "/x/specs/scripts/pause.tengo", Op: fsnotify.Create}, Change{Name: "pause.tengo", Script: true}, true},
		{"remove_ignored", fsnotify.Event{Name: "/x/specs/debug.yaml", Op: fsnotify.Remove}, Change{}, false},
		{"chmod_ignored", fsnotify.Event{Name: "/x/specs/debug.yaml", Op: fsnotify.Chmod}, Change{}, false},
		{"other_file", fsnotify.Event{Name: "/x/specs/notes.txt", Op: fsnotify.Write}, Change{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(tt.event)
			assert.Equal(t, tt.wanted, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebouncerDropsRepeatsInsideWindow(t *testing.T) {
	d := debouncer{window: 100 * time.Millisecond, seen: map[string]time.Time{}}
	start := time.Now()

	assert.True(t, d.allow("a.yaml", start))
	assert.False(t, d.allow("a.yaml", start.Add(50*time.Millisecond)))
	assert.True(t, d.allow("b.yaml", start.Add(50*time.Millisecond)))
	assert.True(t, d.allow("a.yaml", start.Add(150*time.Millisecond)))
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, open := <-w.Events
	assert.False(t, open)
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
