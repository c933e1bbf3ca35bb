package gamemanager

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// State identifies a phase of the game flow.
type State int

const (
	StateEnter State = iota
	StateExit
	StateLoad
	StateRun
	StatePause
	StateDenyInput
	StateAllowInput
)

var stateNames = map[State]string{
	StateEnter:      "enter",
	StateExit:       "exit",
	StateLoad:       "load",
	StateRun:        "run",
	StatePause:      "pause",
	StateDenyInput:  "deny_input",
	StateAllowInput: "allow_input",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func ParseState(name string) (State, error) {
	if s, ok := lookupState(name); ok {
		return s, nil
	}
	return 0, fmt.Errorf("gamemanager: unknown state %q", name)
}

func lookupState(name string) (State, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == want {
			return s, true
		}
	}
	return 0, false
}

func (s *State) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("gamemanager: state must be a string")
	}
	parsed, err := ParseState(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s State) MarshalYAML() (any, error) {
	return s.String(), nil
}
