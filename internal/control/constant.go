package control

import (
	"fmt"
	"math"
)

// ConstantCurrent holds |I| = Amps.
type ConstantCurrent struct {
	Amps float64 // magnitude
	Sign float64 // +1 charge, -1 discharge
}

func (c *ConstantCurrent) Name() string { return "constant_current" }

func (c *ConstantCurrent) Current(State) (float64, error) {
	return c.Sign * math.Abs(c.Amps), nil
}

// ConstantVoltage holds the terminal voltage at Volts; the current is whatever
// the ohmic drop allows: I = (V - OCV) / R.
type ConstantVoltage struct {
	Volts float64
	Sign  float64
}

func (c *ConstantVoltage) Name() string { return "constant_voltage" }

func (c *ConstantVoltage) Current(st State) (float64, error) {
	return holdCurrent(c.Name(), c.Volts, c.Sign, st)
}

func (c *ConstantVoltage) Integrate(st State, dt float64) Advance {
	return hold(st.Profile, c.Volts, st.SoC, dt)
}

// ConstantPower holds |V*I| = Watts at the terminals.
//
// Charge:    R*I^2 + OCV*I - P = 0, positive root.
// Discharge: R*i^2 - OCV*i + P = 0 with i = -I, smaller root (the stable
// branch, terminal voltage above OCV/2).
type ConstantPower struct {
	Watts float64
	Sign  float64
}

func (c *ConstantPower) Name() string { return "constant_power" }

func (c *ConstantPower) Current(st State) (float64, error) {
	r := st.Profile.InternalResistanceOhm
	ocv := st.Profile.OCV(st.SoC)
	p := math.Abs(c.Watts)

	if c.Sign > 0 {
		disc := ocv*ocv + 4*r*p
		return (-ocv + math.Sqrt(disc)) / (2 * r), nil
	}
	disc := ocv*ocv - 4*r*p
	if disc < 0 {
		return 0, fmt.Errorf("%s: %.3fW exceeds the %.3fW the cell can deliver at ocv=%.4fV",
			c.Name(), p, MaxDischargePower(ocv, r), ocv)
	}
	i := (ocv - math.Sqrt(disc)) / (2 * r)
	return -i, nil
}

// MaxDischargePower is the maximum power transfer point OCV^2 / 4R.
func MaxDischargePower(ocv, r float64) float64 {
	return ocv * ocv / (4 * r)
}
