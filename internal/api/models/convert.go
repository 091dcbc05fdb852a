package models

import (
	"cellsim/internal/model"
	"cellsim/internal/report"
)

// NewSummary converts a report summary into its JSON shape.
func NewSummary(s report.Summary) Summary {
	return Summary{
		Mode:             string(s.Mode),
		Control:          string(s.Control),
		SampleCount:      s.SampleCount,
		CapacityAh:       s.CapacityAh,
		EnergyWh:         s.EnergyWh,
		MinVoltage:       s.MinVoltage,
		MaxVoltage:       s.MaxVoltage,
		MeanVoltage:      s.MeanVoltage,
		PeakTemperatureC: s.PeakTemperatureC,
		InitialSoC:       s.InitialSoC,
		FinalSoC:         s.FinalSoC,
		DurationS:        s.DurationS,
		StopReason:       string(s.StopReason),
	}
}

func NewHealth(h report.Health) Health {
	out := Health{
		Status:      string(h.Status),
		Overall:     h.Overall,
		Voltage:     h.Voltage,
		Temperature: h.Temperature,
		Cycles:      h.Cycles,
		SoC:         h.SoC,
	}
	for _, a := range h.Alerts {
		out.Alerts = append(out.Alerts, Alert{Level: string(a.Level), Message: a.Message})
	}
	return out
}

// NewSamples converts a sample series into its JSON shape.
func NewSamples(samples []model.Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		out[i] = Sample{
			T:            s.T,
			Voltage:      s.Voltage,
			Current:      s.Current,
			SoC:          s.SoC,
			TemperatureC: s.TemperatureC,
		}
	}
	return out
}
