package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"cellsim/internal/model"
)

var sampleHeader = []string{
	"index",
	"t_s",
	"voltage_v",
	"current_a",
	"soc",
	"temperature_c",
	"power_w",
}

var summaryHeader = []string{
	"mode",
	"control",
	"samples",
	"capacity_ah",
	"energy_wh",
	"min_voltage_v",
	"max_voltage_v",
	"mean_voltage_v",
	"peak_temperature_c",
	"initial_soc",
	"final_soc",
	"duration_s",
	"stop_reason",
}

// WriteSamplesCSV writes one row per sample.
func WriteSamplesCSV(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}
	for i, s := range samples {
		row := []string{
			strconv.Itoa(i),
			fmtFloat(s.T),
			fmtFloat(s.Voltage),
			fmtFloat(s.Current),
			fmtFloat(s.SoC),
			fmtFloat(s.TemperatureC),
			fmtFloat(s.Power()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes a header and a single summary row.
func WriteSummaryCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	row := []string{
		string(s.Mode),
		string(s.Control),
		strconv.Itoa(s.SampleCount),
		fmtFloat(s.CapacityAh),
		fmtFloat(s.EnergyWh),
		fmtFloat(s.MinVoltage),
		fmtFloat(s.MaxVoltage),
		fmtFloat(s.MeanVoltage),
		fmtFloat(s.PeakTemperatureC),
		fmtFloat(s.InitialSoC),
		fmtFloat(s.FinalSoC),
		fmtFloat(s.DurationS),
		string(s.StopReason),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamplesCSVFile creates path (and its directory) and writes the series to it.
func WriteSamplesCSVFile(path string, samples []model.Sample) error {
	return writeFile(path, func(w io.Writer) error { return WriteSamplesCSV(w, samples) })
}

func WriteSummaryCSVFile(path string, s Summary) error {
	return writeFile(path, func(w io.Writer) error { return WriteSummaryCSV(w, s) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
