package control

import (
	"math"
	"testing"

	"cellsim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cell = model.CellProfile{
	CapacityAh:            2,
	NominalVoltage:        3.7,
	InternalResistanceOhm: 0.05,
	LowerCutoffV:          3.0,
	UpperCutoffV:          4.2,
}

func TestNew(t *testing.T) {
	for ctl, name := range map[model.Control]string{
		model.ControlCurrent: "constant_current",
		model.ControlVoltage: "constant_voltage",
		model.ControlPower:   "constant_power",
		model.ControlCCCV:    "cc_cv",
		model.ControlRest:    "rest",
	} {
		c, err := New(model.TestSpec{Mode: model.ModeCharge, Control: ctl, Target: 1, VoltageLimit: 4.1})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}

	_, err := New(model.TestSpec{Mode: model.ModeCharge, Control: "BOGUS", Target: 1})
	assert.ErrorIs(t, err, model.ErrInvalidSpec)
}

func TestConstantCurrentSign(t *testing.T) {
	c := &ConstantCurrent{Amps: 1.5, Sign: -1}
	i, err := c.Current(State{SoC: 0.5, Profile: cell})
	require.NoError(t, err)
	assert.Equal(t, -1.5, i)
}

func TestConstantVoltageHoldsTerminalVoltage(t *testing.T) {
	c := &ConstantVoltage{Volts: 4.1, Sign: 1}
	st := State{SoC: 0.5, Profile: cell}
	i, err := c.Current(st)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, i, 1e-9) // (4.1-3.7)/0.05
	assert.InDelta(t, 4.1, cell.TerminalVoltage(st.SoC, i), 1e-12)

	// above the held voltage a charge would have to reverse
	_, err = c.Current(State{SoC: 0.99, Profile: cell})
	assert.Error(t, err)
}

func TestConstantPowerHoldsPower(t *testing.T) {
	for _, sign := range []float64{1, -1} {
		c := &ConstantPower{Watts: 10, Sign: sign}
		st := State{SoC: 0.5, Profile: cell}
		i, err := c.Current(st)
		require.NoError(t, err)
		assert.Equal(t, sign, math.Copysign(1, i))
		v := cell.TerminalVoltage(st.SoC, i)
		assert.InDelta(t, 10, math.Abs(v*i), 1e-9, "sign=%v", sign)
		if sign < 0 {
			assert.Greater(t, v, cell.OCV(st.SoC)/2, "stable branch")
		}
	}
}

func TestConstantPowerDischargeLimit(t *testing.T) {
	ocv := cell.OCV(0.5)
	limit := MaxDischargePower(ocv, cell.InternalResistanceOhm)
	assert.InDelta(t, 3.7*3.7/0.2, limit, 1e-9)

	c := &ConstantPower{Watts: limit * 1.01, Sign: -1}
	_, err := c.Current(State{SoC: 0.5, Profile: cell})
	assert.Error(t, err)
}

func TestHoldCurrentSettled(t *testing.T) {
	c := &ConstantVoltage{Volts: 4.1, Sign: 1}
	settled := cell.InverseOCV(4.1)
	i, err := c.Current(State{SoC: math.Nextafter(settled, 1), Profile: cell})
	require.NoError(t, err)
	assert.InDelta(t, 0, i, residualAmps)
}

func TestHoldIntegratesExactly(t *testing.T) {
	small := cell
	small.CapacityAh = 0.1
	c := &ConstantVoltage{Volts: 4.1, Sign: 1}
	settle := small.InverseOCV(4.1)

	// one coarse step lands where many fine ones do
	coarse := c.Integrate(State{SoC: 0.05, Profile: small}, 600)
	fine := Advance{SoC: 0.05}
	for range 600 {
		a := c.Integrate(State{SoC: fine.SoC, Profile: small}, 1)
		fine.SoC = a.SoC
		fine.ChargeAs += a.ChargeAs
		fine.DissipatedJ += a.DissipatedJ
	}
	assert.InDelta(t, fine.SoC, coarse.SoC, 1e-9)
	assert.InDelta(t, fine.ChargeAs, coarse.ChargeAs, 1e-6)
	assert.InDelta(t, fine.DissipatedJ, coarse.DissipatedJ, 1e-6)
	assert.InDelta(t, (coarse.SoC-0.05)*small.CapacityCoulombs(), coarse.ChargeAs, 1e-9)
	assert.InDelta(t, 4.1*coarse.ChargeAs, coarse.EnergyJ, 1e-9)

	// the hold point is approached, never passed
	for _, dt := range []float64{10, 100, 1e4, 1e9} {
		a := c.Integrate(State{SoC: 0.05, Profile: small}, dt)
		assert.LessOrEqual(t, a.SoC, settle+1e-12, "dt=%v", dt)
		assert.Greater(t, a.SoC, 0.05, "dt=%v", dt)
	}
	a := c.Integrate(State{SoC: 0.05, Profile: small}, 1e9)
	assert.InDelta(t, settle, a.SoC, 1e-12)
}

func TestHoldDischarge(t *testing.T) {
	c := &ConstantVoltage{Volts: 3.2, Sign: -1}
	a := c.Integrate(State{SoC: 0.8, Profile: cell}, 1e7)
	assert.InDelta(t, cell.InverseOCV(3.2), a.SoC, 1e-12)
	assert.InDelta(t, (0.8-a.SoC)*cell.CapacityCoulombs(), a.ChargeAs, 1e-6)
}

func TestConstantCurrentVoltagePhases(t *testing.T) {
	c := &ConstantCurrentVoltage{Amps: 1, Volts: 4.1, Sign: 1}
	knee := cell.InverseOCV(4.1 - 1*cell.InternalResistanceOhm)

	i, err := c.Current(State{SoC: 0.2, Profile: cell})
	require.NoError(t, err)
	assert.Equal(t, 1.0, i)

	i, err = c.Current(State{SoC: 0.94, Profile: cell})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, i, 1e-9)
	assert.InDelta(t, 4.1, cell.TerminalVoltage(0.94, i), 1e-12)

	// a step that crosses the knee runs CC up to it, then holds
	toKnee := (knee - 0.9) * cell.CapacityCoulombs()
	a := c.Integrate(State{SoC: 0.9, Profile: cell}, toKnee+60)
	assert.Greater(t, a.SoC, knee)
	assert.Less(t, a.SoC, cell.InverseOCV(4.1))
	hold := (&ConstantVoltage{Volts: 4.1, Sign: 1}).Integrate(State{SoC: knee, Profile: cell}, 60)
	assert.InDelta(t, hold.SoC, a.SoC, 1e-9)
	assert.InDelta(t, toKnee+hold.ChargeAs, a.ChargeAs, 1e-6)

	// before the knee it is plain constant current
	a = c.Integrate(State{SoC: 0.2, Profile: cell}, 36)
	assert.InDelta(t, 0.2+36/cell.CapacityCoulombs(), a.SoC, 1e-12)
	assert.InDelta(t, 36*1*1*cell.InternalResistanceOhm, a.DissipatedJ, 1e-12)
}

func TestRest(t *testing.T) {
	i, err := Rest{}.Current(State{SoC: 0.4, Profile: cell})
	require.NoError(t, err)
	assert.Equal(t, 0.0, i)
}
