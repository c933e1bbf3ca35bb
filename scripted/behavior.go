// Package scripted lets tengo scripts hook into fsm states.
//
// A script declares a top-level hooks map whose optional enter, exit,
// update and fixed_update entries are functions of (engine, state):
//
//	hooks := {
//		enter: func(engine, state) { state.since = engine.frame() },
//		update: func(engine, state) {
//			if engine.frame() - state.since > 60 { engine.change_state("run") }
//		}
//	}
//
// state is a map that survives between calls. engine exposes
// change_state(name), enqueue_state(name), log(msg) and frame(). State
// changes requested by a hook are applied after the hook returns.
package scripted

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/gamestate/debug"
	"github.com/milk9111/gamestate/fsm"
)

const dispatchScript = `
if __phase != "" {
	__hook := hooks[__phase]
	if !is_undefined(__hook) {
		__hook(__engine, __state)
	}
}
`

// Controller is what scripts act on. Names are state identifiers in their
// YAML form.
type Controller interface {
	ChangeState(name string) bool
	EnqueueState(name string) bool
	Frame() int64
}

// Behavior runs the inner behavior's hooks, then the script's.
type Behavior struct {
	inner    fsm.Behavior
	name     string
	group    debug.Group
	sink     debug.Sink
	compiled *tengo.Compiled
	state    *tengo.Map
	engine   *tengo.ImmutableMap
	pending  []func()
}

type Option func(*Behavior)

// WithName labels the script in diagnostics.
func WithName(name string) Option {
	return func(b *Behavior) { b.name = name }
}

func WithGroup(group debug.Group) Option {
	return func(b *Behavior) { b.group = group }
}

func WithSink(sink debug.Sink) Option {
	return func(b *Behavior) { b.sink = sink }
}

// New compiles src and runs its top level once so that compile and
// runtime errors in the script body surface here.
func New(inner fsm.Behavior, src []byte, ctrl Controller, opts ...Option) (*Behavior, error) {
	if inner == nil {
		inner = fsm.Nop{}
	}
	b := &Behavior{
		inner: inner,
		name:  "script",
		group: debug.GroupScripting,
		state: &tengo.Map{Value: map[string]tengo.Object{}},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sink == nil {
		b.sink = debug.Default()
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + dispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := compile(script)
	if err != nil {
		return nil, fmt.Errorf("scripted: compile %s: %w", b.name, err)
	}
	b.compiled = compiled
	b.engine = b.buildEngine(ctrl)

	if err := b.run(""); err != nil {
		return nil, fmt.Errorf("scripted: run %s: %w", b.name, err)
	}
	return b, nil
}

// Inner is the behavior being decorated.
func (b *Behavior) Inner() fsm.Behavior { return b.inner }

// State exposes the script's persistent state map.
func (b *Behavior) State() map[string]any {
	out, _ := objectToAny(b.state).(map[string]any)
	return out
}

func (b *Behavior) Entering() {
	b.inner.Entering()
	b.hook("enter")
}

func (b *Behavior) Exiting() {
	b.inner.Exiting()
	b.hook("exit")
}

func (b *Behavior) LogicUpdate() {
	b.inner.LogicUpdate()
	b.hook("update")
}

func (b *Behavior) PhysicsUpdate() {
	b.inner.PhysicsUpdate()
	b.hook("fixed_update")
}

func (b *Behavior) String() string { return "Script(" + b.name + ")" }

func (b *Behavior) hook(phase string) {
	if err := b.run(phase); err != nil {
		b.sink.Error(b.group, b, fmt.Sprintf("script %s %s: %v", b.name, phase, err))
	}
	// A transition re-enters this behavior's hooks, which needs the
	// compiled script unlocked.
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		next()
	}
}

// run executes the dispatch script for phase. Go runtime errors raised
// inside the VM, such as integer division by zero, come back as errors.
func (b *Behavior) run(phase string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scripted: %s panicked: %v", phaseName(phase), r)
		}
	}()
	if err := b.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := b.compiled.Set("__engine", b.engine); err != nil {
		return err
	}
	if err := b.compiled.Set("__state", b.state); err != nil {
		return err
	}
	return b.compiled.Run()
}

func (b *Behavior) buildEngine(ctrl Controller) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["change_state"] = &tengo.UserFunction{Name: "change_state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ctrl == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		b.pending = append(b.pending, func() {
			if !ctrl.ChangeState(name) {
				b.sink.Warn(b.group, b, fmt.Sprintf("script %s: cannot change to state %q", b.name, name))
			}
		})
		return tengo.TrueValue, nil
	}}

	values["enqueue_state"] = &tengo.UserFunction{Name: "enqueue_state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ctrl == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		b.pending = append(b.pending, func() {
			if !ctrl.EnqueueState(name) {
				b.sink.Warn(b.group, b, fmt.Sprintf("script %s: cannot enqueue state %q", b.name, name))
			}
		})
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		b.sink.Output(b.group, b, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	values["frame"] = &tengo.UserFunction{Name: "frame", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ctrl == nil {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: ctrl.Frame()}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return v.Value
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}

func phaseName(phase string) string {
	if phase == "" {
		return "init"
	}
	return phase
}

// compile folds constant expressions, which can panic on inputs like 1 / 0.
func compile(script *tengo.Script) (c *tengo.Compiled, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return script.Compile()
}
