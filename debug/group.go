package debug

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group tags diagnostic output with the subsystem it came from so the
// manager can filter on it.
type Group int

const (
	GroupGameManager Group = iota
	GroupPlayer
	GroupEnemyAI
	GroupAudio
	GroupPickups
	GroupSpawning
	GroupSaveSystem
	GroupScene
	GroupInput
	GroupUI
	GroupScripting
	GroupDebug
)

var groupNames = map[Group]string{
	GroupGameManager: "game_manager",
	GroupPlayer:      "player",
	GroupEnemyAI:     "enemy_ai",
	GroupAudio:       "audio",
	GroupPickups:     "pickups",
	GroupSpawning:    "spawning",
	GroupSaveSystem:  "save_system",
	GroupScene:       "scene",
	GroupInput:       "input",
	GroupUI:          "ui",
	GroupScripting:   "scripting",
	GroupDebug:       "debug",
}

func (g Group) String() string {
	if name, ok := groupNames[g]; ok {
		return name
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// ParseGroup accepts the snake_case names produced by String.
func ParseGroup(s string) (Group, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for g, name := range groupNames {
		if name == want {
			return g, nil
		}
	}
	return 0, fmt.Errorf("debug: unknown group %q", s)
}

func (g *Group) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("debug: group must be a string")
	}
	parsed, err := ParseGroup(value.Value)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Group) MarshalYAML() (any, error) {
	return g.String(), nil
}
