package model

import (
	"fmt"
	"math"
	"time"
)

// DefaultAmbientC is the ambient temperature used by config loaders when none is given.
const DefaultAmbientC = 25.0

// StopCondition ends a run. Value units depend on Kind:
// TIME seconds, VOLTAGE volts, SOC fraction 0..1, CURRENT amps (magnitude).
type StopCondition struct {
	Kind  StopKind
	Value float64
}

func (s StopCondition) String() string {
	switch s.Kind {
	case StopTime:
		return fmt.Sprintf("time>=%gs", s.Value)
	case StopVoltage:
		return fmt.Sprintf("voltage=%gV", s.Value)
	case StopSoC:
		return fmt.Sprintf("soc=%g", s.Value)
	case StopCurrent:
		return fmt.Sprintf("|current|<=%gA", s.Value)
	}
	return string(s.Kind)
}

// Limits are optional safety bounds applied on top of the stop condition.
// Zero values disable them.
type Limits struct {
	MaxTemperatureC float64
	MaxDuration     time.Duration
	// MaxCapacityAh caps the charge moved in either direction.
	MaxCapacityAh float64
}

// TestSpec describes one charge or discharge test. Target is a magnitude in
// the unit of Control; the sign comes from Mode. VoltageLimit is the hold
// voltage of a CC_CV test and is ignored otherwise.
type TestSpec struct {
	Mode         Mode
	Control      Control
	Target       float64
	VoltageLimit float64
	Stop         StopCondition

	InitialSoC float64
	AmbientC   float64
	Limits     Limits
}

// Validate checks the spec on its own. Checks that depend on the cell
// (reachability, initial voltage) are done by the simulator.
func (s TestSpec) Validate() error {
	switch s.Mode {
	case ModeCharge, ModeDischarge:
	case "":
		if s.Control != ControlRest {
			return Invalid("mode", "required")
		}
	default:
		return Invalid("mode", "unknown mode %q", s.Mode)
	}
	switch s.Control {
	case ControlCurrent, ControlVoltage, ControlPower, ControlCCCV, ControlRest:
	default:
		return Invalid("control", "unknown control %q", s.Control)
	}
	if math.IsNaN(s.Target) || math.IsInf(s.Target, 0) {
		return Invalid("target", "must be finite")
	}
	if s.Control == ControlRest {
		if s.Target != 0 {
			return Invalid("target", "a rest carries no target")
		}
	} else {
		if s.Target == 0 {
			return Invalid("target", "zero %s target produces no state change", s.Control)
		}
		if s.Target < 0 {
			return Invalid("target", "must be a positive magnitude; direction comes from mode")
		}
	}
	if s.Control == ControlCCCV {
		if math.IsNaN(s.VoltageLimit) || math.IsInf(s.VoltageLimit, 0) || s.VoltageLimit <= 0 {
			return Invalid("voltage_limit", "a CC_CV test needs a positive hold voltage")
		}
	}
	if math.IsNaN(s.InitialSoC) || s.InitialSoC < 0 || s.InitialSoC > 1 {
		return Invalid("initial_soc", "must be within [0, 1]")
	}
	if math.IsNaN(s.AmbientC) || math.IsInf(s.AmbientC, 0) {
		return Invalid("ambient_c", "must be finite")
	}
	if s.Limits.MaxDuration < 0 {
		return Invalid("limits.max_duration", "must be >= 0")
	}
	if s.Limits.MaxTemperatureC != 0 && s.Limits.MaxTemperatureC <= s.AmbientC {
		return Invalid("limits.max_temperature_c", "must exceed ambient temperature")
	}
	if c := s.Limits.MaxCapacityAh; math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return Invalid("limits.max_capacity_ah", "must be a finite value >= 0")
	}

	v := s.Stop.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid("stop.value", "must be finite")
	}
	if s.Control == ControlRest && s.Stop.Kind != StopTime {
		return Invalid("stop.kind", "a rest only ends on elapsed time")
	}
	switch s.Stop.Kind {
	case StopTime:
		if v <= 0 {
			return Invalid("stop.value", "elapsed time must be > 0")
		}
	case StopVoltage:
		if v <= 0 {
			return Invalid("stop.value", "voltage must be > 0")
		}
		if s.Control == ControlVoltage || s.Control == ControlCCCV {
			return Invalid("stop.kind", "a voltage stop cannot be reached while voltage is held constant")
		}
	case StopSoC:
		if v < 0 || v > 1 {
			return Invalid("stop.value", "soc target must be within [0, 1]")
		}
	case StopCurrent:
		if !s.Control.HoldsVoltage() {
			return Invalid("stop.kind", "a current taper stop requires voltage control")
		}
		if v <= 0 {
			return Invalid("stop.value", "taper current must be > 0")
		}
	default:
		return Invalid("stop.kind", "unknown stop kind %q", s.Stop.Kind)
	}
	return nil
}
