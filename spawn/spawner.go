package spawn

import (
	"fmt"
	"sort"

	"github.com/milk9111/gamestate/debug"
)

// pool is the type-erased view a Spawner needs.
type pool interface {
	Name() string
	ClearOnLoad() bool
	Despawn()
}

// Spawner owns named pools of any object type.
type Spawner struct {
	pools map[string]pool
	sink  debug.Sink
}

func NewSpawner(sink debug.Sink) *Spawner {
	if sink == nil {
		sink = debug.Default()
	}
	return &Spawner{pools: make(map[string]pool), sink: sink}
}

func AddPool[O Pooled](s *Spawner, p *Pool[O]) error {
	if _, ok := s.pools[p.Name()]; ok {
		err := fmt.Errorf("spawn: pool %q: %w", p.Name(), ErrDuplicatePool)
		s.sink.Error(debug.GroupSpawning, s, err.Error())
		return err
	}
	s.pools[p.Name()] = p
	return nil
}

// Lookup returns the pool registered under name as a *Pool[O].
func Lookup[O Pooled](s *Spawner, name string) (*Pool[O], error) {
	p, ok := s.pools[name]
	if !ok {
		return nil, fmt.Errorf("spawn: pool %q: %w", name, ErrNoPool)
	}
	typed, ok := p.(*Pool[O])
	if !ok {
		return nil, fmt.Errorf("spawn: pool %q holds %T", name, p)
	}
	return typed, nil
}

// Spawn activates the next object of the named pool.
func Spawn[O Pooled](s *Spawner, name string) (O, error) {
	p, err := Lookup[O](s, name)
	if err != nil {
		var zero O
		s.sink.Error(debug.GroupSpawning, s, "Trying to spawn object pooled but corresponding pool not present!")
		return zero, err
	}
	return p.Spawn()
}

// ClearOnLoad despawns and drops every pool flagged ClearOnLoad.
func (s *Spawner) ClearOnLoad() {
	for name, p := range s.pools {
		if !p.ClearOnLoad() {
			continue
		}
		p.Despawn()
		delete(s.pools, name)
	}
}

// Pools returns the registered pool names, sorted.
func (s *Spawner) Pools() []string {
	names := make([]string, 0, len(s.pools))
	for name := range s.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Spawner) String() string { return "ObjectSpawner" }
