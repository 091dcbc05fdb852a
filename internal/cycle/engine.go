package cycle

import (
	"context"
	"fmt"
	"iter"
	"math"
	"time"

	"cellsim/internal/control"
	"cellsim/internal/model"
)

// DefaultMaxSteps bounds the number of steps a single run may take.
const DefaultMaxSteps = 1_000_000

// bisectIterations is enough to shrink the final step below float64 resolution.
const bisectIterations = 64

type Engine struct {
	MaxSteps int
}

func New() *Engine { return &Engine{MaxSteps: DefaultMaxSteps} }

// Simulate runs a test to completion with the default engine.
func Simulate(profile model.CellProfile, spec model.TestSpec, step time.Duration) (*model.RunReport, error) {
	return New().Run(context.Background(), profile, spec, step)
}

// SimulateContext is Simulate with a cancellation check before every step.
func SimulateContext(ctx context.Context, profile model.CellProfile, spec model.TestSpec, step time.Duration) (*model.RunReport, error) {
	return New().Run(ctx, profile, spec, step)
}

// Samples returns the run as a lazy sequence with the default engine.
func Samples(profile model.CellProfile, spec model.TestSpec, step time.Duration) iter.Seq2[model.Sample, error] {
	return New().Samples(context.Background(), profile, spec, step)
}

// Run executes one test and materializes every sample into a RunReport.
func (e *Engine) Run(ctx context.Context, profile model.CellProfile, spec model.TestSpec, step time.Duration) (*model.RunReport, error) {
	r, err := e.prepare(profile, spec, step)
	if err != nil {
		return nil, err
	}

	samples := make([]model.Sample, 0, r.estimateSteps())
	for {
		s, ok, err := r.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		samples = append(samples, s)
	}

	return &model.RunReport{
		Profile:    profile,
		Spec:       spec,
		Step:       step,
		Samples:    samples,
		CapacityAh: r.cur.chargeAs / 3600,
		EnergyWh:   r.cur.energyJ / 3600,
		FinalSoC:   r.cur.soc,
		StopReason: r.reason,
		Elapsed:    secondsToDuration(r.cur.t),
	}, nil
}

// Samples yields the run one sample at a time. The sequence is finite and
// cannot be restarted: ranging over it a second time resumes where the first
// range stopped. A failure is yielded once as a non-nil error and ends the sequence.
func (e *Engine) Samples(ctx context.Context, profile model.CellProfile, spec model.TestSpec, step time.Duration) iter.Seq2[model.Sample, error] {
	r, err := e.prepare(profile, spec, step)
	return func(yield func(model.Sample, error) bool) {
		if err != nil {
			yield(model.Sample{}, err)
			err = nil
			r = nil
			return
		}
		if r == nil {
			return
		}
		for {
			s, ok, nerr := r.next(ctx)
			if nerr != nil {
				r.done = true
				yield(model.Sample{}, nerr)
				return
			}
			if !ok {
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (e *Engine) prepare(profile model.CellProfile, spec model.TestSpec, step time.Duration) (*run, error) {
	if step <= 0 {
		return nil, model.Invalid("step", "must be > 0, got %s", step)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("cell profile: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("test spec: %w", err)
	}
	ctrl, err := control.New(spec)
	if err != nil {
		return nil, err
	}

	maxSteps := e.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	r := &run{
		profile:  profile,
		spec:     spec,
		ctrl:     ctrl,
		dt:       step.Seconds(),
		maxSteps: maxSteps,
		sign:     spec.Mode.Sign(),
	}

	i0, err := ctrl.Current(control.State{SoC: spec.InitialSoC, Profile: profile})
	if err != nil {
		return nil, &model.SpecError{Field: "target", Reason: fmt.Sprintf("unreachable from initial state: %v", err)}
	}
	if i0 == 0 && spec.Control != model.ControlRest {
		return nil, model.Invalid("target", "no current flows at initial soc %.4f", spec.InitialSoC)
	}
	r.cur = state{
		soc:     spec.InitialSoC,
		current: i0,
		voltage: profile.TerminalVoltage(spec.InitialSoC, i0),
		tempC:   spec.AmbientC,
	}

	if err := r.checkReachable(); err != nil {
		return nil, err
	}
	return r, nil
}

// state carries the running totals alongside the sample so that a bisected
// final step sees the charge moved up to that point.
type state struct {
	t       float64
	soc     float64
	current float64
	voltage float64
	tempC   float64

	dissJ    float64
	chargeAs float64
	energyJ  float64
}

func (s state) sample() model.Sample {
	return model.Sample{
		T:            s.t,
		Voltage:      s.voltage,
		Current:      s.current,
		SoC:          s.soc,
		TemperatureC: s.tempC,
	}
}

type run struct {
	profile model.CellProfile
	spec    model.TestSpec
	ctrl    control.Controller

	dt       float64
	maxSteps int
	sign     float64

	idx     int
	cur     state
	started bool
	done    bool
	reason  model.StopReason
}

func (r *run) next(ctx context.Context) (model.Sample, bool, error) {
	if r.done {
		return model.Sample{}, false, nil
	}
	if !r.started {
		r.started = true
		return r.cur.sample(), true, nil
	}
	if err := ctx.Err(); err != nil {
		r.done = true
		return model.Sample{}, false, fmt.Errorf("simulation aborted at step %d: %w", r.idx, err)
	}
	if r.idx >= r.maxSteps {
		r.done = true
		return model.Sample{}, false, r.diverged(fmt.Sprintf("no stop condition reached within %d steps", r.maxSteps))
	}

	full, err := r.evaluate(1)
	if err == nil && r.reached(full) == model.StopReasonNone {
		r.commit(full)
		return r.cur.sample(), true, nil
	}

	final, reason, err := r.finalStep()
	if err != nil {
		r.done = true
		return model.Sample{}, false, err
	}
	r.commit(final)
	r.reason = reason
	r.done = true
	return r.cur.sample(), true, nil
}

// finalStep bisects the step fraction to find the earliest boundary crossing
// and snaps the crossing quantity onto the boundary.
func (r *run) finalStep() (state, model.StopReason, error) {
	lo, hi := 0.0, 1.0
	for i := 0; i < bisectIterations; i++ {
		mid := (lo + hi) / 2
		c, err := r.evaluate(mid)
		if err != nil || r.reached(c) != model.StopReasonNone {
			hi = mid
		} else {
			lo = mid
		}
	}

	c, err := r.evaluate(hi)
	if err != nil {
		return state{}, "", r.diverged(err.Error())
	}
	reason := r.reached(c)
	if reason == model.StopReasonNone {
		return state{}, "", r.diverged("boundary crossing could not be located")
	}

	switch reason {
	case model.StopReasonVoltageCutoff:
		c.voltage = r.voltageBoundary()
	case model.StopReasonSoCTarget:
		c.soc = r.spec.Stop.Value
	case model.StopReasonCurrentTaper:
		c.current = r.sign * r.spec.Stop.Value
	case model.StopReasonCapacityLimit:
		c.chargeAs = r.spec.Limits.MaxCapacityAh * 3600
	case model.StopReasonTemperatureLimit:
		c.tempC = r.spec.Limits.MaxTemperatureC
	case model.StopReasonElapsed:
		limit := r.timeLimit()
		exact, err := r.evaluate((limit - r.cur.t) / r.dt)
		if err != nil {
			return state{}, "", r.diverged(err.Error())
		}
		c = exact
		c.t = limit
	}

	if c.t <= r.cur.t {
		c.t = math.Nextafter(r.cur.t, math.Inf(1))
	}
	return c, reason, nil
}

// evaluate advances the current state by frac*dt without committing it.
// Controllers that integrate themselves move the SoC exactly; otherwise the
// current of the present sample is applied over the whole step.
func (r *run) evaluate(frac float64) (state, error) {
	dt := frac * r.dt
	p := r.profile
	next := state{t: r.cur.t + dt}

	if in, ok := r.ctrl.(control.Integrator); ok {
		adv := in.Integrate(control.State{Step: r.idx, T: r.cur.t, SoC: r.cur.soc, Profile: p}, dt)
		next.soc = adv.SoC
		next.dissJ = r.cur.dissJ + adv.DissipatedJ
		next.chargeAs = r.cur.chargeAs + adv.ChargeAs
		next.energyJ = r.cur.energyJ + adv.EnergyJ
	} else {
		i := r.cur.current
		next.soc = r.cur.soc + i*dt/p.CapacityCoulombs()
		v := p.TerminalVoltage((r.cur.soc+next.soc)/2, i)
		next.dissJ = r.cur.dissJ + i*i*p.InternalResistanceOhm*dt
		next.chargeAs = r.cur.chargeAs + math.Abs(i)*dt
		next.energyJ = r.cur.energyJ + math.Abs(v*i)*dt
	}
	if !finite(next.soc) || next.soc < 0 || next.soc > 1 {
		return state{}, fmt.Errorf("soc %.6f left [0, 1]", next.soc)
	}
	next.tempC = r.spec.AmbientC + next.dissJ/p.HeatCapacity()

	ni, err := r.ctrl.Current(control.State{Step: r.idx + 1, T: next.t, SoC: next.soc, Profile: p})
	if err != nil {
		return state{}, err
	}
	next.current = ni
	next.voltage = p.TerminalVoltage(next.soc, ni)
	if !finite(next.current) || !finite(next.voltage) || !finite(next.tempC) {
		return state{}, fmt.Errorf("non-finite state: current=%v voltage=%v temperature=%v", next.current, next.voltage, next.tempC)
	}
	return next, nil
}

func (r *run) commit(next state) {
	r.cur = next
	r.idx++
}

// reached reports the highest-precedence boundary met by s.
// Precedence: voltage cutoff, soc target, current taper, capacity, temperature,
// elapsed time. Held-voltage and rest runs never end on the voltage cutoff.
func (r *run) reached(s state) model.StopReason {
	if !r.spec.Control.HoldsVoltage() && r.spec.Control != model.ControlRest {
		vb := r.voltageBoundary()
		if (r.sign > 0 && s.voltage >= vb) || (r.sign < 0 && s.voltage <= vb) {
			return model.StopReasonVoltageCutoff
		}
	}
	if r.spec.Stop.Kind == model.StopSoC {
		target := r.spec.Stop.Value
		if (r.sign > 0 && s.soc >= target) || (r.sign < 0 && s.soc <= target) {
			return model.StopReasonSoCTarget
		}
	}
	if r.spec.Stop.Kind == model.StopCurrent && math.Abs(s.current) <= r.spec.Stop.Value {
		return model.StopReasonCurrentTaper
	}
	if lim := r.spec.Limits.MaxCapacityAh; lim != 0 && s.chargeAs >= lim*3600 {
		return model.StopReasonCapacityLimit
	}
	if lim := r.spec.Limits.MaxTemperatureC; lim != 0 && s.tempC >= lim {
		return model.StopReasonTemperatureLimit
	}
	if limit := r.timeLimit(); limit > 0 && s.t >= limit {
		return model.StopReasonElapsed
	}
	return model.StopReasonNone
}

// voltageBoundary is the voltage that ends a current- or power-controlled run:
// the spec's stop voltage when set, otherwise the cutoff in the direction of travel.
func (r *run) voltageBoundary() float64 {
	if r.spec.Stop.Kind == model.StopVoltage {
		return r.spec.Stop.Value
	}
	if r.sign > 0 {
		return r.profile.UpperCutoffV
	}
	return r.profile.LowerCutoffV
}

// timeLimit is the earliest of the elapsed-time stop and Limits.MaxDuration, in seconds (0 = none).
func (r *run) timeLimit() float64 {
	limit := 0.0
	if r.spec.Stop.Kind == model.StopTime {
		limit = r.spec.Stop.Value
	}
	if d := r.spec.Limits.MaxDuration; d > 0 {
		if s := d.Seconds(); limit == 0 || s < limit {
			limit = s
		}
	}
	return limit
}

func (r *run) estimateSteps() int {
	const maxPrealloc = 1 << 16
	// compared as floats: a huge limit over a small step overflows int
	n := r.profile.CapacityCoulombs()/(math.Abs(r.cur.current)*r.dt) + 2
	if limit := r.timeLimit(); limit > 0 {
		n = limit/r.dt + 2
	}
	if !(n < maxPrealloc) {
		return maxPrealloc
	}
	return int(n)
}

func (r *run) diverged(reason string) error {
	return &model.StateError{Step: r.idx + 1, T: r.cur.t, Reason: reason}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
