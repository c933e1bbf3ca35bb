// Package spawn hands out object ids and recycles pooled objects.
package spawn

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gopkg.in/eapache/queue.v1"

	"github.com/milk9111/gamestate/debug"
)

var idCounter atomic.Int64

// NextID returns a process-wide unique id, starting at 1.
func NextID() int { return int(idCounter.Add(1)) }

var (
	ErrEmptyPool     = errors.New("pool is empty")
	ErrDuplicatePool = errors.New("pool already exists")
	ErrNoPool        = errors.New("pool does not exist")
)

// Pooled is an object a Pool recycles.
type Pooled interface {
	Active() bool
	// Spawn activates the object.
	Spawn()
	Deactivate()
}

// Pool rotates through a fixed set of objects: Next takes the front object
// and puts it straight back at the end.
type Pool[O Pooled] struct {
	name        string
	clearOnLoad bool
	objects     *queue.Queue
	sink        debug.Sink
}

type PoolOption func(*poolOptions)

type poolOptions struct {
	clearOnLoad bool
	sink        debug.Sink
}

// ClearOnLoad marks the pool to be despawned and dropped when a scene
// starts loading.
func ClearOnLoad() PoolOption {
	return func(o *poolOptions) { o.clearOnLoad = true }
}

func WithSink(sink debug.Sink) PoolOption {
	return func(o *poolOptions) { o.sink = sink }
}

// NewPool builds size objects with newObject, deactivated.
func NewPool[O Pooled](name string, size int, newObject func(i int) O, opts ...PoolOption) *Pool[O] {
	var o poolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = debug.Default()
	}

	p := &Pool[O]{
		name:        name,
		clearOnLoad: o.clearOnLoad,
		objects:     queue.New(),
		sink:        o.sink,
	}
	for i := 0; i < size; i++ {
		obj := newObject(i)
		obj.Deactivate()
		p.objects.Add(obj)
	}
	return p
}

func (p *Pool[O]) Name() string { return p.name }

func (p *Pool[O]) ClearOnLoad() bool { return p.clearOnLoad }

func (p *Pool[O]) Len() int { return p.objects.Length() }

func (p *Pool[O]) Add(obj O) {
	p.objects.Add(obj)
}

func (p *Pool[O]) Peek() (O, bool) {
	var zero O
	if p.objects.Length() == 0 {
		return zero, false
	}
	return p.objects.Peek().(O), true
}

// Next rotates the pool and returns the object that was at the front.
func (p *Pool[O]) Next() (O, bool) {
	var zero O
	if p.objects.Length() == 0 {
		return zero, false
	}
	obj := p.objects.Remove().(O)
	p.objects.Add(obj)
	return obj, true
}

// Spawn activates the next object. An object that is still active is
// deactivated first, with a warning.
func (p *Pool[O]) Spawn() (O, error) {
	obj, ok := p.Next()
	if !ok {
		return obj, fmt.Errorf("spawn: pool %q: %w", p.name, ErrEmptyPool)
	}
	if obj.Active() {
		p.sink.Warn(debug.GroupSpawning, "ObjectSpawner", "Spawning pooled object which is still active!")
		obj.Deactivate()
	}
	obj.Spawn()
	return obj, nil
}

// Each calls fn for every pooled object, front first.
func (p *Pool[O]) Each(fn func(O)) {
	for i := 0; i < p.objects.Length(); i++ {
		fn(p.objects.Get(i).(O))
	}
}

// Despawn deactivates and drops every object.
func (p *Pool[O]) Despawn() {
	for p.objects.Length() > 0 {
		obj := p.objects.Remove().(O)
		if obj.Active() {
			obj.Deactivate()
		}
	}
}
