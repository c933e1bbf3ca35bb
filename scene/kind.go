package scene

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind groups scenes by what they are used for.
type Kind int

const (
	KindMainMenu Kind = iota
	KindLevel
	KindCredits
)

var kindNames = map[Kind]string{
	KindMainMenu: "main_menu",
	KindLevel:    "level",
	KindCredits:  "credits",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("scene: unknown kind %q", s)
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("scene: kind must be a string")
	}
	parsed, err := ParseKind(value.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}
