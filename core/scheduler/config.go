package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PlannerConfig defines planning parameters loaded from configuration.
type PlannerConfig struct {
	MaxTripsPerDriver      int `json:"max_trips_per_driver" yaml:"max_trips_per_driver"`
	DefaultDurationMinutes int `json:"default_duration_minutes" yaml:"default_duration_minutes"`
	WindowMinutes          int `json:"window_minutes" yaml:"window_minutes"`
}

// PlanDefinition bundles planner parameters with the standing orders to
// expand. This is the on-disk format consumed by the plan command.
type PlanDefinition struct {
	Planner   PlannerConfig       `json:"planner" yaml:"planner"`
	Templates []RecurringTemplate `json:"templates" yaml:"templates"`
}

// LoadDefinition loads a PlanDefinition from a JSON or YAML file.
func LoadDefinition(path string) (PlanDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PlanDefinition{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var def PlanDefinition
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &def)
	case ".json":
		err = json.Unmarshal(b, &def)
	default:
		return PlanDefinition{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return def, err
}

// LoadConfig loads PlannerConfig from a JSON or YAML file.
func LoadConfig(path string) (PlannerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PlannerConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg PlannerConfig
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return PlannerConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

// DecodeConfig reads from r to decode a PlannerConfig.
func DecodeConfig(r io.Reader, format string) (PlannerConfig, error) {
	var cfg PlannerConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
