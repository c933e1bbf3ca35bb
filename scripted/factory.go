package scripted

import (
	"errors"
	"fmt"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
	"github.com/milk9111/gamestate/specs"
)

var ErrNoTarget = errors.New("subject cannot be driven by scripts")

// Target is a state machine owner scripts can drive. The subject handed to
// a Factory must implement it when any state is scripted.
type Target[T comparable] interface {
	ChangeState(id T)
	EnqueueState(id T)
	Frame() int64
}

// Factory decorates the states another factory builds with the script
// configured for their identifier. States without a script pass through.
type Factory[T comparable] struct {
	Inner fsm.Factory[T]
	// Scripts holds script sources by identifier.
	Scripts map[T][]byte
	// Parse maps names used in scripts back to identifiers.
	Parse func(name string) (T, bool)
	Sink  debug.Sink
}

func (f *Factory[T]) CreateState(subject any, id T, group debug.Group, ownerID int) (*fsm.State[T], error) {
	s, err := f.Inner.CreateState(subject, id, group, ownerID)
	if err != nil || s == nil {
		return s, err
	}
	src, ok := f.Scripts[id]
	if !ok {
		return s, nil
	}

	target, ok := subject.(Target[T])
	if !ok {
		return nil, fmt.Errorf("scripted: state %v: %T: %w", id, subject, ErrNoTarget)
	}

	b, err := New(s.Behavior(), src, &controller[T]{target: target, parse: f.Parse},
		WithName(fmt.Sprint(id)),
		WithGroup(group),
		WithSink(f.Sink),
	)
	if err != nil {
		return nil, err
	}
	return s.Decorate(b), nil
}

// LoadScripts reads the scripts named in a machine spec, keyed by state
// name, and resolves the names with parse.
func LoadScripts[T comparable](names map[string]string, parse func(string) (T, bool)) (map[T][]byte, error) {
	out := make(map[T][]byte, len(names))
	for name, file := range names {
		id, ok := parse(name)
		if !ok {
			return nil, fmt.Errorf("scripted: script %s for unknown state %q", file, name)
		}
		src, err := specs.LoadScript(file)
		if err != nil {
			return nil, fmt.Errorf("scripted: load %s: %w", file, err)
		}
		out[id] = src
	}
	return out, nil
}

type controller[T comparable] struct {
	target Target[T]
	parse  func(string) (T, bool)
}

func (c *controller[T]) ChangeState(name string) bool {
	id, ok := c.resolve(name)
	if ok {
		c.target.ChangeState(id)
	}
	return ok
}

func (c *controller[T]) EnqueueState(name string) bool {
	id, ok := c.resolve(name)
	if ok {
		c.target.EnqueueState(id)
	}
	return ok
}

func (c *controller[T]) Frame() int64 { return c.target.Frame() }

func (c *controller[T]) resolve(name string) (T, bool) {
	if c.parse == nil {
		var zero T
		return zero, false
	}
	return c.parse(name)
}

// Unwrap returns the innermost non-script behavior.
func Unwrap(b fsm.Behavior) fsm.Behavior {
	for {
		s, ok := b.(*Behavior)
		if !ok {
			return b
		}
		b = s.inner
	}
}
