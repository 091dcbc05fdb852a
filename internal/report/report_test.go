package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cellsim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cell = model.CellProfile{
	Name:                  "ref",
	CapacityAh:            2,
	NominalVoltage:        3.7,
	InternalResistanceOhm: 0.05,
	LowerCutoffV:          3.0,
	UpperCutoffV:          4.2,
}

func rampReport() *model.RunReport {
	return &model.RunReport{
		Spec: model.TestSpec{Mode: model.ModeCharge, Control: model.ControlCurrent},
		Samples: []model.Sample{
			{T: 0, Voltage: 3.0, Current: 1, SoC: 0.0, TemperatureC: 25},
			{T: 10, Voltage: 3.2, Current: 1, SoC: 0.1, TemperatureC: 26},
			{T: 30, Voltage: 3.6, Current: 3, SoC: 0.3, TemperatureC: 28},
		},
		StopReason: model.StopReasonVoltageCutoff,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize(&model.RunReport{}))
}

func TestSummarizeTrapezoid(t *testing.T) {
	s := Summarize(rampReport())

	assert.Equal(t, model.ModeCharge, s.Mode)
	assert.Equal(t, 3, s.SampleCount)
	// (1+1)/2*10 + (1+3)/2*20 = 50 A·s
	assert.InDelta(t, 50.0/3600, s.CapacityAh, 1e-12)
	// (3.0+3.2)/2*10 + (3.2+10.8)/2*20 = 31 + 140 = 171 J
	assert.InDelta(t, 171.0/3600, s.EnergyWh, 1e-12)
	assert.Equal(t, 3.0, s.MinVoltage)
	assert.Equal(t, 3.6, s.MaxVoltage)
	// (3.1*10 + 3.4*20) / 30
	assert.InDelta(t, 3.3, s.MeanVoltage, 1e-12)
	assert.Equal(t, 28.0, s.PeakTemperatureC)
	assert.Equal(t, 0.0, s.InitialSoC)
	assert.Equal(t, 0.3, s.FinalSoC)
	assert.Equal(t, 30.0, s.DurationS)
	assert.Equal(t, model.StopReasonVoltageCutoff, s.StopReason)
}

func TestSummarizeSingleSample(t *testing.T) {
	r := &model.RunReport{Samples: []model.Sample{{Voltage: 3.3, TemperatureC: 25, SoC: 0.4}}}
	s := Summarize(r)
	assert.Equal(t, 1, s.SampleCount)
	assert.Equal(t, 3.3, s.MeanVoltage)
	assert.Zero(t, s.CapacityAh)
	assert.Zero(t, s.DurationS)
}

func TestDownsample(t *testing.T) {
	samples := make([]model.Sample, 101)
	for i := range samples {
		samples[i].T = float64(i)
	}

	out := Downsample(samples, 11)
	require.Len(t, out, 11)
	assert.Equal(t, 0.0, out[0].T)
	assert.Equal(t, 100.0, out[10].T)
	assert.Equal(t, 50.0, out[5].T)

	all := Downsample(samples, 0)
	assert.Equal(t, samples, all)
	all[0].T = -1
	assert.Equal(t, 0.0, samples[0].T, "Downsample must copy")

	assert.Len(t, Downsample(samples, 500), 101)
	assert.Empty(t, Downsample(nil, 10))

	two := Downsample(samples, 1)
	require.Len(t, two, 2)
	assert.Equal(t, 100.0, two[1].T)
}

func TestWriteSamplesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSamplesCSV(&buf, rampReport().Samples))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, sampleHeader, rows[0])
	assert.Equal(t, []string{"2", "30.000000", "3.600000", "3.000000", "0.300000", "28.000000", "10.800000"}, rows[3])
}

func TestWriteSummaryCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.csv")
	require.NoError(t, WriteSummaryCSVFile(path, Summarize(rampReport())))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(summaryHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "CHARGE,CURRENT,3,"))
	assert.True(t, strings.HasSuffix(lines[1], ",VOLTAGE_CUTOFF"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"samples": 3}))
	assert.Equal(t, "{\n  \"samples\": 3\n}\n", buf.String())
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		s    model.Sample
		want Status
	}{
		{"nominal", model.Sample{Voltage: 3.7, TemperatureC: 25}, StatusGood},
		{"warm", model.Sample{Voltage: 3.7, TemperatureC: 40}, StatusWarning},
		{"near lower cutoff", model.Sample{Voltage: 3.05, TemperatureC: 25}, StatusWarning},
		{"hot", model.Sample{Voltage: 3.7, TemperatureC: 50}, StatusCritical},
		{"over voltage", model.Sample{Voltage: 4.3, TemperatureC: 25}, StatusCritical},
		{"under voltage", model.Sample{Voltage: 2.9, TemperatureC: 25}, StatusCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(cell, tc.s, th))
		})
	}
}

func TestAssessHealthyRun(t *testing.T) {
	s := Summary{SampleCount: 10, MinVoltage: 3.2, MaxVoltage: 4.0, PeakTemperatureC: 30, FinalSoC: 0.5}
	h := Assess(cell, s, model.Sample{Voltage: 3.8, TemperatureC: 30}, DefaultThresholds())

	assert.Equal(t, 100.0, h.Voltage)
	assert.Equal(t, 100.0, h.Temperature)
	assert.Equal(t, 100.0, h.Cycles)
	assert.Equal(t, 100.0, h.SoC)
	assert.Equal(t, 100.0, h.Overall)
	assert.Equal(t, StatusGood, h.Status)
	assert.Empty(t, h.Alerts)
}

func TestAssessRaisesAlerts(t *testing.T) {
	p := cell
	p.CycleCount = 800
	s := Summary{SampleCount: 10, MinVoltage: 3.0, MaxVoltage: 4.2, PeakTemperatureC: 42, FinalSoC: 0.975}
	h := Assess(p, s, model.Sample{Voltage: 4.2, TemperatureC: 42}, DefaultThresholds())

	assert.InDelta(t, 20, h.Cycles, 1e-9)
	assert.InDelta(t, 65, h.Temperature, 1e-9)
	assert.InDelta(t, 5, h.SoC, 1e-9)
	assert.InDelta(t, 47.5, h.Overall, 1e-9)
	assert.Equal(t, StatusWarning, h.Status)

	require.Len(t, h.Alerts, 3)
	assert.Equal(t, AlertCritical, h.Alerts[0].Level)
	assert.Contains(t, h.Alerts[1].Message, "cycle count (800)")
	assert.Contains(t, h.Alerts[2].Message, "42.0°C")
}
