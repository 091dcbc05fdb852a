package control

import (
	"fmt"

	"cellsim/internal/model"
)

// State is what a controller sees before each step.
type State struct {
	Step    int
	T       float64
	SoC     float64
	Profile model.CellProfile
}

// Controller decides the signed cell current (charge-positive) for the next step.
type Controller interface {
	Name() string
	Current(st State) (float64, error)
}

// Advance is the state change over one step. Charge and energy are magnitudes.
type Advance struct {
	SoC         float64
	ChargeAs    float64
	EnergyJ     float64
	DissipatedJ float64
}

// Integrator is implemented by controllers whose current tracks the SoC too
// closely for a fixed-current step. Integrate moves st across dt exactly.
type Integrator interface {
	Integrate(st State, dt float64) Advance
}

// New builds the controller for a validated spec.
func New(spec model.TestSpec) (Controller, error) {
	sign := spec.Mode.Sign()
	switch spec.Control {
	case model.ControlCurrent:
		return &ConstantCurrent{Amps: spec.Target, Sign: sign}, nil
	case model.ControlVoltage:
		return &ConstantVoltage{Volts: spec.Target, Sign: sign}, nil
	case model.ControlPower:
		return &ConstantPower{Watts: spec.Target, Sign: sign}, nil
	case model.ControlCCCV:
		return &ConstantCurrentVoltage{Amps: spec.Target, Volts: spec.VoltageLimit, Sign: sign}, nil
	case model.ControlRest:
		return Rest{}, nil
	default:
		return nil, model.Invalid("control", "unsupported control %q", spec.Control)
	}
}

// errDirection is returned when a controller's current points against the test mode.
func errDirection(name string, current, sign float64) error {
	return fmt.Errorf("%s: current %.6fA opposes %s direction", name, current, modeName(sign))
}

func modeName(sign float64) string {
	if sign < 0 {
		return "discharge"
	}
	return "charge"
}
