package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samwiegames/overheat/internal/engine"
)

// LoadTuning reads gameplay tuning from a YAML file. Keys missing from the
// file keep their default values; an empty path returns the defaults.
// Environment variables in the form ${VAR} are expanded before parsing.
func LoadTuning(path string) (engine.Tuning, error) {
	t := engine.DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file %s: %w", path, err)
	}
	return ParseTuning(data)
}

// ParseTuning overlays YAML data on the default tuning and validates it.
func ParseTuning(data []byte) (engine.Tuning, error) {
	t := engine.DefaultTuning()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &t); err != nil {
		return t, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
