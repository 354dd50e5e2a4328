package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DominanceWeights mirrors features.Weights so the file can be parsed
// without importing the feature package.
type DominanceWeights struct {
	Skill   *float64 `yaml:"skill"`
	Recent  *float64 `yaml:"recent_form"`
	Season  *float64 `yaml:"season_form"`
	Defense *float64 `yaml:"defense"`
}

// SchemaOverrides tweaks a registered feature schema. Zero/nil fields keep
// the schema default.
type SchemaOverrides struct {
	Schema     string           `yaml:"schema"`
	FormWindow int              `yaml:"form_window"`
	Smoothing  float64          `yaml:"smoothing"`
	Scaler     string           `yaml:"scaler"`
	Weights    DominanceWeights `yaml:"dominance_weights"`
}

func LoadSchemaOverrides(path string) (SchemaOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchemaOverrides{}, fmt.Errorf("read schema file: %w", err)
	}

	var o SchemaOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return SchemaOverrides{}, fmt.Errorf("parse schema file: %w", err)
	}
	if o.Smoothing < 0 || o.Smoothing > 1 {
		return SchemaOverrides{}, fmt.Errorf("schema file: smoothing must be within [0,1], got %v", o.Smoothing)
	}
	if o.FormWindow < 0 {
		return SchemaOverrides{}, fmt.Errorf("schema file: form_window must not be negative")
	}
	return o, nil
}
