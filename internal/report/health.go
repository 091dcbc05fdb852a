package report

import (
	"fmt"
	"math"

	"cellsim/internal/model"
)

// Status is the traffic-light classification shown next to a cell.
type Status string

const (
	StatusGood     Status = "Good"
	StatusWarning  Status = "Warning"
	StatusCritical Status = "Critical"
)

// Thresholds are the alert limits used by Classify and Assess.
type Thresholds struct {
	MaxTemperatureC     float64 // critical above
	WarningTemperatureC float64 // warning above
	VoltageMarginV      float64 // warning when within this of the lower cutoff
	SoCLowPct           float64 // soc score is full inside [SoCLowPct, SoCHighPct]
	SoCHighPct          float64
	RatedCycles         float64 // cycle score reaches 0 here
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxTemperatureC:     45,
		WarningTemperatureC: 35,
		VoltageMarginV:      0.1,
		SoCLowPct:           20,
		SoCHighPct:          80,
		RatedCycles:         1000,
	}
}

// Classify rates one sample against the cell's window.
func Classify(p model.CellProfile, s model.Sample, th Thresholds) Status {
	if s.Voltage < p.LowerCutoffV || s.Voltage > p.UpperCutoffV || s.TemperatureC > th.MaxTemperatureC {
		return StatusCritical
	}
	if s.TemperatureC > th.WarningTemperatureC || s.Voltage < p.LowerCutoffV+th.VoltageMarginV {
		return StatusWarning
	}
	return StatusGood
}

type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertWarning  AlertLevel = "WARNING"
)

type Alert struct {
	Level   AlertLevel
	Message string
}

// Health holds 0..100 sub-scores; Overall is their mean.
type Health struct {
	Overall     float64
	Voltage     float64
	Temperature float64
	Cycles      float64
	SoC         float64
	Status      Status
	Alerts      []Alert
}

// Assess scores a run's outcome for the health monitor.
func Assess(p model.CellProfile, s Summary, last model.Sample, th Thresholds) Health {
	h := Health{
		Voltage:     voltageScore(p, s),
		Temperature: temperatureScore(s.PeakTemperatureC, th),
		Cycles:      cycleScore(p.CycleCount, th),
		SoC:         socScore(s.FinalSoC*100, th),
		Status:      Classify(p, last, th),
	}
	h.Overall = (h.Voltage + h.Temperature + h.Cycles + h.SoC) / 4

	name := p.Name
	if name == "" {
		name = "cell"
	}
	switch {
	case h.Overall < 70:
		h.Alerts = append(h.Alerts, Alert{AlertCritical, fmt.Sprintf("%s: overall health %.1f%% below 70%%, schedule maintenance", name, h.Overall)})
	case h.Overall < 85:
		h.Alerts = append(h.Alerts, Alert{AlertWarning, fmt.Sprintf("%s: overall health %.1f%% below 85%%, monitor closely", name, h.Overall)})
	}
	if h.Cycles < 50 {
		h.Alerts = append(h.Alerts, Alert{AlertWarning, fmt.Sprintf("%s: high cycle count (%d), consider replacement", name, p.CycleCount)})
	}
	if h.Temperature < 80 {
		h.Alerts = append(h.Alerts, Alert{AlertWarning, fmt.Sprintf("%s: peak temperature %.1f°C, check cooling", name, s.PeakTemperatureC)})
	}
	return h
}

func voltageScore(p model.CellProfile, s Summary) float64 {
	if s.SampleCount == 0 {
		return 100
	}
	excursion := math.Max(0, math.Max(p.LowerCutoffV-s.MinVoltage, s.MaxVoltage-p.UpperCutoffV))
	return math.Max(0, 100-excursion*50)
}

func temperatureScore(peak float64, th Thresholds) float64 {
	if peak <= th.WarningTemperatureC {
		return 100
	}
	return math.Max(0, 100-(peak-th.WarningTemperatureC)*5)
}

func cycleScore(cycles int, th Thresholds) float64 {
	if th.RatedCycles <= 0 {
		return 100
	}
	return math.Max(0, 100-float64(cycles)/th.RatedCycles*100)
}

func socScore(pct float64, th Thresholds) float64 {
	if pct >= th.SoCLowPct && pct <= th.SoCHighPct {
		return 100
	}
	mid := (th.SoCLowPct + th.SoCHighPct) / 2
	return math.Max(0, 100-math.Abs(pct-mid)*2)
}
