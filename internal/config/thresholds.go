package config

import (
	"fmt"
	"os"

	"cellsim/internal/report"

	"gopkg.in/yaml.v3"
)

// ThresholdsConfig mirrors report.Thresholds; zero fields keep the default.
type ThresholdsConfig struct {
	MaxTemperatureC     float64 `yaml:"max_temperature_c"`
	WarningTemperatureC float64 `yaml:"warning_temperature_c"`
	VoltageMarginV      float64 `yaml:"voltage_margin_v"`
	SoCLowPct           float64 `yaml:"soc_low_pct"`
	SoCHighPct          float64 `yaml:"soc_high_pct"`
	RatedCycles         float64 `yaml:"rated_cycles"`
}

// LoadThresholds reads a YAML file holding either a bare thresholds mapping
// or one nested under a top-level "thresholds" key.
func LoadThresholds(path string) (ThresholdsConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ThresholdsConfig{}, err
	}
	var wrapped struct {
		Thresholds *ThresholdsConfig `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal(b, &wrapped); err != nil {
		return ThresholdsConfig{}, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if wrapped.Thresholds != nil {
		return *wrapped.Thresholds, nil
	}
	var t ThresholdsConfig
	if err := yaml.Unmarshal(b, &t); err != nil {
		return ThresholdsConfig{}, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return t, nil
}

// Apply overlays the non-zero fields onto base.
func (t ThresholdsConfig) Apply(base report.Thresholds) report.Thresholds {
	if t.MaxTemperatureC != 0 {
		base.MaxTemperatureC = t.MaxTemperatureC
	}
	if t.WarningTemperatureC != 0 {
		base.WarningTemperatureC = t.WarningTemperatureC
	}
	if t.VoltageMarginV != 0 {
		base.VoltageMarginV = t.VoltageMarginV
	}
	if t.SoCLowPct != 0 {
		base.SoCLowPct = t.SoCLowPct
	}
	if t.SoCHighPct != 0 {
		base.SoCHighPct = t.SoCHighPct
	}
	if t.RatedCycles != 0 {
		base.RatedCycles = t.RatedCycles
	}
	return base
}
