package model

import "time"

// Sample is one point of a run. T is the offset in seconds from the start.
// Current is signed: positive = charge.
type Sample struct {
	T            float64
	Voltage      float64
	Current      float64
	SoC          float64
	TemperatureC float64
}

// Power returns the signed terminal power in W.
func (s Sample) Power() float64 {
	return s.Voltage * s.Current
}

// RunReport is the materialized output of one simulation.
// Samples are in strictly increasing T order and are never mutated.
type RunReport struct {
	Profile CellProfile
	Spec    TestSpec
	Step    time.Duration

	Samples []Sample

	CapacityAh float64 // charge moved, integrated step by step
	EnergyWh   float64 // |V*I| integrated step by step
	FinalSoC   float64
	StopReason StopReason
	Elapsed    time.Duration
}

// Last returns the terminal sample, or false for an empty report.
func (r *RunReport) Last() (Sample, bool) {
	if r == nil || len(r.Samples) == 0 {
		return Sample{}, false
	}
	return r.Samples[len(r.Samples)-1], true
}
