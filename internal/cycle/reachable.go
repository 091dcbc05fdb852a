package cycle

import (
	"math"

	"cellsim/internal/model"
)

// checkReachable rejects specs whose stop condition is already met at t=0 or
// can never be met before another boundary ends the run.
func (r *run) checkReachable() error {
	p, spec := r.profile, r.spec
	v0, soc0, i0 := r.cur.voltage, r.cur.soc, r.cur.current

	switch spec.Control {
	case model.ControlVoltage, model.ControlCCCV:
		field, hv := "target", spec.Target
		if spec.Control == model.ControlCCCV {
			field, hv = "voltage_limit", spec.VoltageLimit
		}
		if hv < p.LowerCutoffV || hv > p.UpperCutoffV {
			return model.Invalid(field, "hold voltage %.4fV outside cutoffs [%.4f, %.4f]",
				hv, p.LowerCutoffV, p.UpperCutoffV)
		}
	case model.ControlRest:
	default:
		if r.sign > 0 && v0 >= p.UpperCutoffV {
			return model.Invalid("target", "initial terminal voltage %.4fV is already at the upper cutoff %.4fV",
				v0, p.UpperCutoffV)
		}
		if r.sign < 0 && v0 <= p.LowerCutoffV {
			return model.Invalid("target", "initial terminal voltage %.4fV is already at the lower cutoff %.4fV",
				v0, p.LowerCutoffV)
		}
	}

	stop := spec.Stop
	switch stop.Kind {
	case model.StopVoltage:
		if r.sign > 0 {
			if stop.Value > p.UpperCutoffV {
				return model.Invalid("stop.value", "stop voltage %.4fV is above the upper cutoff %.4fV", stop.Value, p.UpperCutoffV)
			}
			if stop.Value <= v0 {
				return model.Invalid("stop.value", "stop voltage %.4fV already reached at t=0 (%.4fV)", stop.Value, v0)
			}
		} else {
			if stop.Value < p.LowerCutoffV {
				return model.Invalid("stop.value", "stop voltage %.4fV is below the lower cutoff %.4fV", stop.Value, p.LowerCutoffV)
			}
			if stop.Value >= v0 {
				return model.Invalid("stop.value", "stop voltage %.4fV already reached at t=0 (%.4fV)", stop.Value, v0)
			}
		}

	case model.StopSoC:
		limit := r.socLimit()
		if r.sign > 0 {
			if stop.Value <= soc0 {
				return model.Invalid("stop.value", "soc target %.4f already reached at t=0 (%.4f)", stop.Value, soc0)
			}
			if stop.Value > limit || (spec.Control.HoldsVoltage() && stop.Value >= limit) {
				return model.Invalid("stop.value", "soc target %.4f unreachable, run ends at soc %.4f", stop.Value, limit)
			}
		} else {
			if stop.Value >= soc0 {
				return model.Invalid("stop.value", "soc target %.4f already reached at t=0 (%.4f)", stop.Value, soc0)
			}
			if stop.Value < limit || (spec.Control.HoldsVoltage() && stop.Value <= limit) {
				return model.Invalid("stop.value", "soc target %.4f unreachable, run ends at soc %.4f", stop.Value, limit)
			}
		}

	case model.StopCurrent:
		if stop.Value >= math.Abs(i0) {
			return model.Invalid("stop.value", "taper current %.4fA already reached at t=0 (%.4fA)", stop.Value, math.Abs(i0))
		}
	}
	return nil
}

// socLimit is the state of charge at which the run would end on its own:
// the voltage cutoff for current and power control, the asymptote for a voltage hold.
func (r *run) socLimit() float64 {
	p, spec := r.profile, r.spec
	res := p.InternalResistanceOhm

	switch spec.Control {
	case model.ControlVoltage:
		return p.InverseOCV(spec.Target)
	case model.ControlCCCV:
		return p.InverseOCV(spec.VoltageLimit)
	case model.ControlPower:
		if r.sign > 0 {
			i := spec.Target / p.UpperCutoffV
			return p.InverseOCV(p.UpperCutoffV - i*res)
		}
		i := spec.Target / p.LowerCutoffV
		return p.InverseOCV(p.LowerCutoffV + i*res)
	default:
		if r.sign > 0 {
			return p.InverseOCV(p.UpperCutoffV - spec.Target*res)
		}
		return p.InverseOCV(p.LowerCutoffV + spec.Target*res)
	}
}
