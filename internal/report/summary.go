package report

import (
	"math"

	"cellsim/internal/model"
)

// Summary is the scalar digest of a run, handed to the presentation layer
// alongside the series.
type Summary struct {
	Mode    model.Mode
	Control model.Control

	SampleCount int

	CapacityAh float64 // integral of |I| dt
	EnergyWh   float64 // integral of |V*I| dt

	MinVoltage  float64
	MaxVoltage  float64
	MeanVoltage float64 // time-weighted

	PeakTemperatureC float64
	InitialSoC       float64
	FinalSoC         float64

	// DurationS is the time to the terminal condition in seconds.
	DurationS  float64
	StopReason model.StopReason
}

// Summarize integrates a finished run with the trapezoidal rule. It is total:
// a nil or empty report yields the zero Summary.
func Summarize(r *model.RunReport) Summary {
	if r == nil || len(r.Samples) == 0 {
		return Summary{}
	}
	ss := r.Samples
	first, last := ss[0], ss[len(ss)-1]

	s := Summary{
		Mode:             r.Spec.Mode,
		Control:          r.Spec.Control,
		SampleCount:      len(ss),
		MinVoltage:       first.Voltage,
		MaxVoltage:       first.Voltage,
		PeakTemperatureC: first.TemperatureC,
		InitialSoC:       first.SoC,
		FinalSoC:         last.SoC,
		DurationS:        last.T - first.T,
		StopReason:       r.StopReason,
	}

	var chargeAs, energyJ, vDt float64
	for k := 1; k < len(ss); k++ {
		a, b := ss[k-1], ss[k]
		dt := b.T - a.T
		chargeAs += (math.Abs(a.Current) + math.Abs(b.Current)) / 2 * dt
		energyJ += (math.Abs(a.Power()) + math.Abs(b.Power())) / 2 * dt
		vDt += (a.Voltage + b.Voltage) / 2 * dt

		s.MinVoltage = math.Min(s.MinVoltage, b.Voltage)
		s.MaxVoltage = math.Max(s.MaxVoltage, b.Voltage)
		s.PeakTemperatureC = math.Max(s.PeakTemperatureC, b.TemperatureC)
	}

	s.CapacityAh = chargeAs / 3600
	s.EnergyWh = energyJ / 3600
	if s.DurationS > 0 {
		s.MeanVoltage = vDt / s.DurationS
	} else {
		s.MeanVoltage = first.Voltage
	}
	return s
}

// Downsample thins a series to at most n points for charting, evenly spaced by
// index and always keeping the first and last samples. n <= 0 returns a copy.
func Downsample(samples []model.Sample, n int) []model.Sample {
	if n <= 0 || len(samples) <= n {
		return append([]model.Sample(nil), samples...)
	}
	if n < 2 {
		n = 2
	}
	out := make([]model.Sample, n)
	last := len(samples) - 1
	for i := 0; i < n; i++ {
		out[i] = samples[i*last/(n-1)]
	}
	return out
}
