package model

import (
	"fmt"
	"strings"
)

// Mode is the direction of a test. Keep these values stable; they are
// intended for CSV output and API payloads.
type Mode string

const (
	ModeCharge    Mode = "CHARGE"
	ModeDischarge Mode = "DISCHARGE"
)

// Sign returns +1 for charge and -1 for discharge (charge-positive current convention).
func (m Mode) Sign() float64 {
	if m == ModeDischarge {
		return -1
	}
	return 1
}

// Control is the quantity held constant by the test.
type Control string

const (
	ControlCurrent Control = "CURRENT"
	ControlVoltage Control = "VOLTAGE"
	ControlPower   Control = "POWER"
	// ControlCCCV drives Target amps until the terminal voltage reaches
	// TestSpec.VoltageLimit, then holds that voltage.
	ControlCCCV Control = "CC_CV"
	// ControlRest carries no current. Only elapsed time ends it.
	ControlRest Control = "REST"
)

// Unit returns the unit of a Target expressed in this control mode.
func (c Control) Unit() string {
	switch c {
	case ControlCurrent, ControlCCCV:
		return "A"
	case ControlVoltage:
		return "V"
	case ControlPower:
		return "W"
	default:
		return ""
	}
}

// HoldsVoltage reports whether the control ends in a constant-voltage hold,
// where the terminal voltage never crosses the hold point.
func (c Control) HoldsVoltage() bool {
	return c == ControlVoltage || c == ControlCCCV
}

// StopKind selects what ends a test.
type StopKind string

const (
	StopTime    StopKind = "TIME"
	StopVoltage StopKind = "VOLTAGE"
	StopSoC     StopKind = "SOC"
	// StopCurrent is the taper cutoff of a constant-voltage step.
	StopCurrent StopKind = "CURRENT"
)

// StopReason records which boundary terminated a run.
type StopReason string

const (
	StopReasonNone             StopReason = ""
	StopReasonElapsed          StopReason = "ELAPSED_TIME"
	StopReasonVoltageCutoff    StopReason = "VOLTAGE_CUTOFF"
	StopReasonSoCTarget        StopReason = "SOC_TARGET"
	StopReasonCurrentTaper     StopReason = "CURRENT_TAPER"
	StopReasonTemperatureLimit StopReason = "TEMPERATURE_LIMIT"
	StopReasonCapacityLimit    StopReason = "CAPACITY_LIMIT"
)

// ParseMode accepts the canonical names plus the lower-case forms used in
// config files ("charge", "discharge").
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ModeCharge):
		return ModeCharge, nil
	case string(ModeDischarge):
		return ModeDischarge, nil
	}
	return "", fmt.Errorf("unknown mode %q (want charge|discharge)", s)
}

func ParseControl(s string) (Control, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ControlCurrent), "CC":
		return ControlCurrent, nil
	case string(ControlVoltage), "CV":
		return ControlVoltage, nil
	case string(ControlPower), "CP":
		return ControlPower, nil
	case string(ControlCCCV), "CCCV", "CC-CV":
		return ControlCCCV, nil
	case string(ControlRest), "IDLE":
		return ControlRest, nil
	}
	return "", fmt.Errorf("unknown control %q (want current|voltage|power|cc_cv|rest)", s)
}

func ParseStopKind(s string) (StopKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(StopTime), "ELAPSED":
		return StopTime, nil
	case string(StopVoltage):
		return StopVoltage, nil
	case string(StopSoC):
		return StopSoC, nil
	case string(StopCurrent), "TAPER":
		return StopCurrent, nil
	}
	return "", fmt.Errorf("unknown stop kind %q (want time|voltage|soc|current)", s)
}
