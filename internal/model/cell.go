package model

import "math"

// DefaultHeatCapacityJPerK is roughly a 45 g cylindrical cell.
const DefaultHeatCapacityJPerK = 40.0

// CellProfile defines the electrical and thermal parameters of one cell.
// Units:
// - CapacityAh: Ah
// - voltages: V
// - InternalResistanceOhm: ohm
// - HeatCapacityJPerK: J/K (0 = DefaultHeatCapacityJPerK)
type CellProfile struct {
	Name      string
	Chemistry string

	CapacityAh            float64
	NominalVoltage        float64
	InternalResistanceOhm float64
	LowerCutoffV          float64
	UpperCutoffV          float64

	HeatCapacityJPerK float64
	CycleCount        int
}

func (p CellProfile) Validate() error {
	if !(p.CapacityAh > 0) || math.IsInf(p.CapacityAh, 0) {
		return Invalid("capacity_ah", "must be > 0")
	}
	if !(p.InternalResistanceOhm > 0) || math.IsInf(p.InternalResistanceOhm, 0) {
		return Invalid("internal_resistance_ohm", "must be > 0")
	}
	if !(p.LowerCutoffV > 0) {
		return Invalid("lower_cutoff_v", "must be > 0")
	}
	if !(p.LowerCutoffV < p.NominalVoltage && p.NominalVoltage < p.UpperCutoffV) || math.IsInf(p.UpperCutoffV, 0) {
		return Invalid("nominal_voltage", "must satisfy lower_cutoff_v < nominal_voltage < upper_cutoff_v")
	}
	if p.HeatCapacityJPerK < 0 || math.IsNaN(p.HeatCapacityJPerK) {
		return Invalid("heat_capacity_j_per_k", "must be >= 0")
	}
	if p.CycleCount < 0 {
		return Invalid("cycle_count", "must be >= 0")
	}
	return nil
}

// HeatCapacity returns the effective thermal mass in J/K.
func (p CellProfile) HeatCapacity() float64 {
	if p.HeatCapacityJPerK > 0 {
		return p.HeatCapacityJPerK
	}
	return DefaultHeatCapacityJPerK
}

// CapacityCoulombs is CapacityAh expressed in A·s.
func (p CellProfile) CapacityCoulombs() float64 {
	return p.CapacityAh * 3600
}

// TerminalVoltage is OCV plus the ohmic term for a signed current (charge-positive).
func (p CellProfile) TerminalVoltage(soc, current float64) float64 {
	return p.OCV(soc) + current*p.InternalResistanceOhm
}
