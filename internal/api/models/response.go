package models

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Cached  bool     `json:"cached"`
	Summary Summary  `json:"summary"`
	Health  Health   `json:"health"`
	Samples []Sample `json:"samples,omitempty"`
}

// Summary contains the scalar results of a run
type Summary struct {
	Mode             string  `json:"mode"`
	Control          string  `json:"control"`
	SampleCount      int     `json:"sample_count"`
	CapacityAh       float64 `json:"capacity_ah"`
	EnergyWh         float64 `json:"energy_wh"`
	MinVoltage       float64 `json:"min_voltage_v"`
	MaxVoltage       float64 `json:"max_voltage_v"`
	MeanVoltage      float64 `json:"mean_voltage_v"`
	PeakTemperatureC float64 `json:"peak_temperature_c"`
	InitialSoC       float64 `json:"initial_soc"`
	FinalSoC         float64 `json:"final_soc"`
	DurationS        float64 `json:"duration_s"`
	StopReason       string  `json:"stop_reason"`
}

// Sample represents one point of the series
type Sample struct {
	T            float64 `json:"t_s"`
	Voltage      float64 `json:"voltage_v"`
	Current      float64 `json:"current_a"`
	SoC          float64 `json:"soc"`
	TemperatureC float64 `json:"temperature_c"`
}

// SamplesResponse is returned by the run series endpoint
type SamplesResponse struct {
	ID         string   `json:"id"`
	TotalCount int      `json:"total_count"`
	Samples    []Sample `json:"samples"`
}

// Health contains the health monitor scores (0-100)
type Health struct {
	Status      string  `json:"status"`
	Overall     float64 `json:"overall"`
	Voltage     float64 `json:"voltage"`
	Temperature float64 `json:"temperature"`
	Cycles      float64 `json:"cycles"`
	SoC         float64 `json:"soc"`
	Alerts      []Alert `json:"alerts,omitempty"`
}

type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation; exactly one of
// Summary and Error is set
type ComparisonResult struct {
	Name    string       `json:"name"`
	ID      string       `json:"id,omitempty"`
	Summary *Summary     `json:"summary,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// CellInfo represents a cell preset
type CellInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Chemistry string    `json:"chemistry,omitempty"`
	BuiltIn   bool      `json:"built_in"`
	File      string    `json:"file,omitempty"`
	Specs     CellSpecs `json:"specs"`
}

// CellSpecs contains the cell parameters
type CellSpecs struct {
	CapacityAh            float64 `json:"capacity_ah"`
	NominalVoltage        float64 `json:"nominal_voltage"`
	InternalResistanceOhm float64 `json:"internal_resistance_ohm"`
	LowerCutoffV          float64 `json:"lower_cutoff_v"`
	UpperCutoffV          float64 `json:"upper_cutoff_v"`
}

// ControlInfo describes a control mode
type ControlInfo struct {
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
	StopKinds   []string        `json:"stop_kinds"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a test parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
