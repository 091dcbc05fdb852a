package models

import "cellsim/internal/config"

// SimulateRequest represents the request body for running a simulation
type SimulateRequest struct {
	SimulationConfig
	Options SimulateOptions `json:"options,omitempty"`
}

// SimulationConfig describes the cell, the test and the step.
// CellID names a built-in preset or a file in the cell directory; Cell
// fields override it.
type SimulationConfig struct {
	CellID      string            `json:"cell_id,omitempty"`
	Cell        config.CellConfig `json:"cell,omitempty"`
	Test        TestConfig        `json:"test" binding:"required"`
	StepSeconds float64           `json:"step_seconds,omitempty" binding:"omitempty,gt=0"`
}

// TestConfig defines the charge/discharge test
type TestConfig struct {
	Mode            string     `json:"mode,omitempty"`             // "charge" | "discharge"; omitted for rest
	Control         string     `json:"control" binding:"required"` // "current" | "voltage" | "power" | "cc_cv" | "rest"
	Target          float64    `json:"target"`
	VoltageLimit    float64    `json:"voltage_limit,omitempty"` // CC_CV hold voltage
	Stop            StopConfig `json:"stop"`
	InitialSoC      float64    `json:"initial_soc" binding:"gte=0,lte=1"`
	AmbientC        *float64   `json:"ambient_c,omitempty"`
	MaxTemperatureC float64    `json:"max_temperature_c,omitempty"`
	MaxDuration     string     `json:"max_duration,omitempty"` // Go duration, e.g. "2h"
	MaxCapacityAh   float64    `json:"max_capacity_ah,omitempty"`
}

// StopConfig defines what ends the test
type StopConfig struct {
	Kind  string  `json:"kind"` // "time" | "voltage" | "soc" | "current"
	Value float64 `json:"value"`
}

// SimulateOptions contains optional output parameters
type SimulateOptions struct {
	IncludeSamples bool `json:"include_samples,omitempty"`
	MaxPoints      int  `json:"max_points,omitempty" binding:"gte=0"` // 0 = all samples
}

// CompareRequest runs several variations of a base configuration
type CompareRequest struct {
	BaseConfig SimulationConfig `json:"base_config" binding:"required"`
	Variations []Variation      `json:"variations" binding:"required,min=1,dive"`
}

// Variation defines a variation to test
type Variation struct {
	Name   string          `json:"name" binding:"required"`
	Config VariationConfig `json:"config"`
}

// VariationConfig overrides the base configuration; zero fields keep the base value.
type VariationConfig struct {
	CellID      string            `json:"cell_id,omitempty"`
	Cell        config.CellConfig `json:"cell,omitempty"`
	Test        TestOverride      `json:"test,omitempty"`
	StepSeconds float64           `json:"step_seconds,omitempty"`
}

// TestOverride carries the test fields a variation may change.
type TestOverride struct {
	Mode            string     `json:"mode,omitempty"`
	Control         string     `json:"control,omitempty"`
	Target          float64    `json:"target,omitempty"`
	VoltageLimit    float64    `json:"voltage_limit,omitempty"`
	Stop            StopConfig `json:"stop,omitempty"`
	InitialSoC      *float64   `json:"initial_soc,omitempty"`
	AmbientC        *float64   `json:"ambient_c,omitempty"`
	MaxTemperatureC float64    `json:"max_temperature_c,omitempty"`
	MaxDuration     string     `json:"max_duration,omitempty"`
	MaxCapacityAh   float64    `json:"max_capacity_ah,omitempty"`
}

// Apply overlays the non-zero fields of o onto t.
func (o TestOverride) Apply(t TestConfig) TestConfig {
	if o.Mode != "" {
		t.Mode = o.Mode
	}
	if o.Control != "" {
		t.Control = o.Control
	}
	if o.Target != 0 {
		t.Target = o.Target
	}
	if o.VoltageLimit != 0 {
		t.VoltageLimit = o.VoltageLimit
	}
	if o.Stop.Kind != "" {
		t.Stop = o.Stop
	}
	if o.InitialSoC != nil {
		t.InitialSoC = *o.InitialSoC
	}
	if o.AmbientC != nil {
		t.AmbientC = o.AmbientC
	}
	if o.MaxTemperatureC != 0 {
		t.MaxTemperatureC = o.MaxTemperatureC
	}
	if o.MaxDuration != "" {
		t.MaxDuration = o.MaxDuration
	}
	if o.MaxCapacityAh != 0 {
		t.MaxCapacityAh = o.MaxCapacityAh
	}
	return t
}

// ToConfig converts the request test block into the YAML-shaped config type.
func (t TestConfig) ToConfig() config.TestConfig {
	return config.TestConfig{
		Mode:            t.Mode,
		Control:         t.Control,
		Target:          t.Target,
		VoltageLimit:    t.VoltageLimit,
		Stop:            config.StopConfig{Kind: t.Stop.Kind, Value: t.Stop.Value},
		InitialSoC:      t.InitialSoC,
		AmbientC:        t.AmbientC,
		MaxTemperatureC: t.MaxTemperatureC,
		MaxDuration:     t.MaxDuration,
		MaxCapacityAh:   t.MaxCapacityAh,
	}
}
