package control

import (
	"math"

	"cellsim/internal/model"
)

// residualAmps absorbs rounding once the SoC has settled on a hold point.
const residualAmps = 1e-9

// ConstantCurrentVoltage drives Amps until the terminal voltage meets Volts,
// then holds Volts while the current tapers.
type ConstantCurrentVoltage struct {
	Amps  float64
	Volts float64
	Sign  float64
}

func (c *ConstantCurrentVoltage) Name() string { return "cc_cv" }

func (c *ConstantCurrentVoltage) Current(st State) (float64, error) {
	i, err := holdCurrent(c.Name(), c.Volts, c.Sign, st)
	if err != nil {
		return 0, err
	}
	if math.Abs(i) > c.Amps {
		return c.Sign * c.Amps, nil
	}
	return i, nil
}

// Integrate runs the constant-current phase up to the knee, where the
// terminal voltage meets Volts, and hands the rest of dt to the hold.
func (c *ConstantCurrentVoltage) Integrate(st State, dt float64) Advance {
	p := st.Profile
	q := p.CapacityCoulombs()
	i := c.Sign * c.Amps
	knee := p.InverseOCV(c.Volts - i*p.InternalResistanceOhm)

	adv := Advance{SoC: st.SoC}
	if (knee-st.SoC)*c.Sign > 0 {
		span := math.Min(dt, (knee-st.SoC)*q/i)
		if span < dt {
			adv.SoC = knee
		} else {
			adv.SoC = st.SoC + i*span/q
		}
		mid := p.TerminalVoltage((st.SoC+adv.SoC)/2, i)
		adv.ChargeAs = c.Amps * span
		adv.EnergyJ = math.Abs(mid*i) * span
		adv.DissipatedJ = i * i * p.InternalResistanceOhm * span
		dt -= span
	}
	if dt <= 0 {
		return adv
	}
	h := hold(p, c.Volts, adv.SoC, dt)
	h.ChargeAs += adv.ChargeAs
	h.EnergyJ += adv.EnergyJ
	h.DissipatedJ += adv.DissipatedJ
	return h
}

// Rest carries no current.
type Rest struct{}

func (Rest) Name() string { return "rest" }

func (Rest) Current(State) (float64, error) { return 0, nil }

func holdCurrent(name string, volts, sign float64, st State) (float64, error) {
	i := (volts - st.Profile.OCV(st.SoC)) / st.Profile.InternalResistanceOhm
	if i*sign < 0 {
		if math.Abs(i) < residualAmps {
			return 0, nil
		}
		return 0, errDirection(name, i, sign)
	}
	return i, nil
}

// hold integrates a constant terminal voltage over dt. On each linear piece
// of the OCV curve the gap volts-OCV decays as exp(-t/tau) with
// tau = R*Q/slope, so the SoC approaches the hold point and never passes it
// however coarse dt is.
func hold(p model.CellProfile, volts, soc, dt float64) Advance {
	r := p.InternalResistanceOhm
	q := p.CapacityCoulombs()
	adv := Advance{SoC: soc}
	for dt > 0 {
		gap := volts - p.OCV(adv.SoC)
		if gap == 0 {
			break
		}
		dir := math.Copysign(1, gap)
		lo, hi, a, k := p.OCVSegment(adv.SoC, dir)
		edge := hi
		if dir < 0 {
			edge = lo
		}
		if adv.SoC == edge {
			break // end of the curve
		}
		settle := (volts - a) / k
		tau := r * q / k

		span := dt
		if (settle-edge)*dir > 0 {
			// the hold point lies past this piece
			if toEdge := tau * math.Log((adv.SoC-settle)/(edge-settle)); toEdge < dt {
				span = toEdge
			}
		}
		decay := math.Exp(-span / tau)
		next := settle + (adv.SoC-settle)*decay
		if span < dt {
			next = edge
		}

		i0 := gap / r
		moved := math.Abs(next-adv.SoC) * q
		adv.ChargeAs += moved
		adv.EnergyJ += math.Abs(volts) * moved
		adv.DissipatedJ += r * i0 * i0 * tau / 2 * (1 - decay*decay)
		adv.SoC = next
		dt -= span
	}
	return adv
}
