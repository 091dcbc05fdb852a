package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cellsim/internal/model"
	"cellsim/internal/report"

	"gopkg.in/yaml.v3"
)

// DefaultStepSeconds is used when step_seconds is omitted.
const DefaultStepSeconds = 1.0

// Config is the on-disk run configuration (YAML).
type Config struct {
	// Cell parameters are layered: built-in Preset, then CellFile, then Cell.
	// Non-zero fields of a later layer override the earlier ones.
	Preset      string            `yaml:"preset"`
	CellFile    string            `yaml:"cell_file"`
	Cell        CellConfig        `yaml:"cell"`
	Test        TestConfig        `yaml:"test"`
	StepSeconds float64           `yaml:"step_seconds"`
	Thresholds  *ThresholdsConfig `yaml:"thresholds,omitempty"`
}

type CellConfig struct {
	Name                  string  `yaml:"name" json:"name,omitempty"`
	Chemistry             string  `yaml:"chemistry" json:"chemistry,omitempty"`
	CapacityAh            float64 `yaml:"capacity_ah" json:"capacity_ah,omitempty"`
	NominalVoltage        float64 `yaml:"nominal_voltage" json:"nominal_voltage,omitempty"`
	InternalResistanceOhm float64 `yaml:"internal_resistance_ohm" json:"internal_resistance_ohm,omitempty"`
	LowerCutoffV          float64 `yaml:"lower_cutoff_v" json:"lower_cutoff_v,omitempty"`
	UpperCutoffV          float64 `yaml:"upper_cutoff_v" json:"upper_cutoff_v,omitempty"`
	HeatCapacityJPerK     float64 `yaml:"heat_capacity_j_per_k" json:"heat_capacity_j_per_k,omitempty"`
	CycleCount            int     `yaml:"cycle_count" json:"cycle_count,omitempty"`
}

type StopConfig struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Value float64 `yaml:"value" json:"value"`
}

type TestConfig struct {
	Mode            string     `yaml:"mode" json:"mode"`
	Control         string     `yaml:"control" json:"control"`
	Target          float64    `yaml:"target" json:"target"`
	VoltageLimit    float64    `yaml:"voltage_limit" json:"voltage_limit,omitempty"`
	Stop            StopConfig `yaml:"stop" json:"stop"`
	InitialSoC      float64    `yaml:"initial_soc" json:"initial_soc"`
	AmbientC        *float64   `yaml:"ambient_c" json:"ambient_c,omitempty"`
	MaxTemperatureC float64    `yaml:"max_temperature_c" json:"max_temperature_c,omitempty"`
	MaxDuration     string     `yaml:"max_duration" json:"max_duration,omitempty"`
	MaxCapacityAh   float64    `yaml:"max_capacity_ah" json:"max_capacity_ah,omitempty"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.ResolveCell(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveCell folds Preset and CellFile into Cell. Relative cell files are
// tried against baseDir first, then the working directory.
func (c *Config) ResolveCell(baseDir string) error {
	base := CellConfig{}
	if c.Preset != "" {
		p, ok := Preset(c.Preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", c.Preset)
		}
		base = p
	}
	if c.CellFile != "" {
		cellPath := c.CellFile
		if !filepath.IsAbs(cellPath) && baseDir != "" {
			cand := filepath.Join(baseDir, cellPath)
			if _, err := os.Stat(cand); err == nil {
				cellPath = cand
			}
		}
		loaded, err := LoadCellFile(cellPath)
		if err != nil {
			return err
		}
		base = MergeCell(base, loaded)
	}
	c.Cell = MergeCell(base, c.Cell)
	c.Preset, c.CellFile = "", ""
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.StepSeconds == 0 {
		c.StepSeconds = DefaultStepSeconds
	}
	if c.Test.AmbientC == nil {
		amb := model.DefaultAmbientC
		c.Test.AmbientC = &amb
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.StepSeconds <= 0 {
		return model.Invalid("step_seconds", "must be > 0")
	}
	if err := c.Cell.ToModelProfile().Validate(); err != nil {
		return fmt.Errorf("cell config invalid: %w", err)
	}
	spec, err := c.Test.ToModelSpec()
	if err != nil {
		return fmt.Errorf("test config invalid: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("test config invalid: %w", err)
	}
	return nil
}

// Step returns StepSeconds as a duration.
func (c *Config) Step() time.Duration {
	return time.Duration(c.StepSeconds * float64(time.Second))
}

// ThresholdsOrDefault returns configured alert thresholds layered over the defaults.
func (c *Config) ThresholdsOrDefault() report.Thresholds {
	if c == nil || c.Thresholds == nil {
		return report.DefaultThresholds()
	}
	return c.Thresholds.Apply(report.DefaultThresholds())
}

func (b CellConfig) ToModelProfile() model.CellProfile {
	return model.CellProfile{
		Name:                  b.Name,
		Chemistry:             b.Chemistry,
		CapacityAh:            b.CapacityAh,
		NominalVoltage:        b.NominalVoltage,
		InternalResistanceOhm: b.InternalResistanceOhm,
		LowerCutoffV:          b.LowerCutoffV,
		UpperCutoffV:          b.UpperCutoffV,
		HeatCapacityJPerK:     b.HeatCapacityJPerK,
		CycleCount:            b.CycleCount,
	}
}

// ToModelSpec parses the string enums. Range checks are left to
// model.TestSpec.Validate. An empty mode is passed through for rests.
func (t TestConfig) ToModelSpec() (model.TestSpec, error) {
	ctl, err := model.ParseControl(t.Control)
	if err != nil {
		return model.TestSpec{}, model.Invalid("test.control", "%v", err)
	}
	var mode model.Mode
	if strings.TrimSpace(t.Mode) != "" || ctl != model.ControlRest {
		mode, err = model.ParseMode(t.Mode)
		if err != nil {
			return model.TestSpec{}, model.Invalid("test.mode", "%v", err)
		}
	}
	kind, err := model.ParseStopKind(t.Stop.Kind)
	if err != nil {
		return model.TestSpec{}, model.Invalid("test.stop.kind", "%v", err)
	}
	var maxDur time.Duration
	if s := strings.TrimSpace(t.MaxDuration); s != "" {
		maxDur, err = time.ParseDuration(s)
		if err != nil {
			return model.TestSpec{}, model.Invalid("test.max_duration", "%v", err)
		}
	}
	ambient := model.DefaultAmbientC
	if t.AmbientC != nil {
		ambient = *t.AmbientC
	}
	return model.TestSpec{
		Mode:         mode,
		Control:      ctl,
		Target:       t.Target,
		VoltageLimit: t.VoltageLimit,
		Stop:         model.StopCondition{Kind: kind, Value: t.Stop.Value},
		InitialSoC:   t.InitialSoC,
		AmbientC:     ambient,
		Limits: model.Limits{
			MaxTemperatureC: t.MaxTemperatureC,
			MaxDuration:     maxDur,
			MaxCapacityAh:   t.MaxCapacityAh,
		},
	}, nil
}

type cellFileWrapper struct {
	Cell CellConfig `yaml:"cell"`
}

// LoadCellFile reads a YAML file with a top-level `cell:` key.
func LoadCellFile(path string) (CellConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CellConfig{}, err
	}
	var w cellFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return CellConfig{}, fmt.Errorf("parse cell file %s: %w", path, err)
	}
	return w.Cell, nil
}

// MergeCell overlays non-zero fields from override onto base.
func MergeCell(base, override CellConfig) CellConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Chemistry != "" {
		out.Chemistry = override.Chemistry
	}
	if override.CapacityAh != 0 {
		out.CapacityAh = override.CapacityAh
	}
	if override.NominalVoltage != 0 {
		out.NominalVoltage = override.NominalVoltage
	}
	if override.InternalResistanceOhm != 0 {
		out.InternalResistanceOhm = override.InternalResistanceOhm
	}
	if override.LowerCutoffV != 0 {
		out.LowerCutoffV = override.LowerCutoffV
	}
	if override.UpperCutoffV != 0 {
		out.UpperCutoffV = override.UpperCutoffV
	}
	if override.HeatCapacityJPerK != 0 {
		out.HeatCapacityJPerK = override.HeatCapacityJPerK
	}
	if override.CycleCount != 0 {
		out.CycleCount = override.CycleCount
	}
	return out
}
