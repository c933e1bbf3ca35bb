package specs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Change names a spec or script file that was written on disk. Name is the
// base name, ready to pass back to Load or LoadSpec.
type Change struct {
	Name   string
	Script bool
}

// Watcher turns fsnotify events on the spec directories into Changes.
// Removals are not reported; the embedded copy takes over for those.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce debouncer

	Events chan Change
	Errors chan error

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:       fw,
		debounce: debouncer{window: defaultDebounce, seen: map[string]time.Time{}},
		Events:   make(chan Change, 16),
		Errors:   make(chan error, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and closes Events and Errors. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.fs.Close()
		// loop is the only sender; wait for it before closing the channels.
		<-w.stopped
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.stop:
			return
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Errors holds the latest unread error only.
			select {
			case w.Errors <- err:
			default:
			}
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			change, ok := classify(event)
			if !ok || !w.debounce.allow(event.Name, time.Now()) {
				continue
			}
			select {
			case w.Events <- change:
			case <-w.stop:
				return
			}
		}
	}
}

func classify(event fsnotify.Event) (Change, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return Change{}, false
	}
	name := filepath.Base(event.Name)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return Change{Name: name}, true
	case ".tengo":
		return Change{Name: name, Script: true}, true
	}
	return Change{}, false
}

// debouncer drops repeat events for a path inside window; editors tend to
// write a file several times per save.
type debouncer struct {
	window time.Duration
	seen   map[string]time.Time
}

func (d debouncer) allow(path string, now time.Time) bool {
	if last, ok := d.seen[path]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[path] = now
	return true
}
