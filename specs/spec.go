package specs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("specs: load %s: %w", filename, err)
	}

	return DecodeSpec[T](filename, data)
}

func DecodeSpec[T any](filename string, data []byte) (T, error) {
	var zero T
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("specs: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

// MachineSpec declares the states one state machine handler supports. T is
// the identifier type and must unmarshal from a YAML scalar.
type MachineSpec[T any] struct {
	Standard T   `yaml:"standard"`
	Start    T   `yaml:"start"`
	States   []T `yaml:"states"`
	// Scripts maps state names to tengo scripts under scripts/.
	Scripts map[string]string `yaml:"scripts"`
	// FixedDelta is the physics timestep in seconds.
	FixedDelta float64 `yaml:"fixed_delta"`
}
