package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cellsim/internal/cycle"
	"cellsim/internal/model"
	"cellsim/internal/report"
)

// Demo:
// - Build a 2 Ah cell with 50 mΩ internal resistance and a 3.0-4.2 V window
// - Charge it from empty at 1 A until the upper cutoff
// - Print every Nth sample and the summary to show how the pieces fit together
func main() {
	every := flag.Int("every", 600, "Print every Nth sample")
	step := flag.Duration("step", time.Second, "Integration step")
	outCSV := flag.String("out", "", "Optional path to write samples CSV (e.g. results/demo.csv)")
	flag.Parse()

	profile := model.CellProfile{
		Name:                  "demo 2Ah",
		Chemistry:             "custom",
		CapacityAh:            2.0,
		NominalVoltage:        3.7,
		InternalResistanceOhm: 0.05,
		LowerCutoffV:          3.0,
		UpperCutoffV:          4.2,
	}
	spec := model.TestSpec{
		Mode:       model.ModeCharge,
		Control:    model.ControlCurrent,
		Target:     1.0,
		Stop:       model.StopCondition{Kind: model.StopVoltage, Value: 4.2},
		InitialSoC: 0,
		AmbientC:   model.DefaultAmbientC,
	}

	fmt.Printf("%-10s %-10s %-10s %-8s %-8s\n", "t_s", "voltage", "current", "soc", "temp_c")
	var samples []model.Sample
	for s, err := range cycle.Samples(profile, spec, *step) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
			os.Exit(1)
		}
		if *every > 0 && len(samples)%*every == 0 {
			fmt.Printf("%-10.1f %-10.4f %-10.4f %-8.4f %-8.3f\n", s.T, s.Voltage, s.Current, s.SoC, s.TemperatureC)
		}
		samples = append(samples, s)
	}

	rep, err := cycle.Simulate(profile, spec, *step)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}
	last, _ := rep.Last()
	fmt.Printf("%-10.1f %-10.4f %-10.4f %-8.4f %-8.3f\n", last.T, last.Voltage, last.Current, last.SoC, last.TemperatureC)

	sum := report.Summarize(rep)
	fmt.Println()
	fmt.Printf("Stop=%s after %.0fs (%d samples, iterator yielded %d)\n", sum.StopReason, sum.DurationS, sum.SampleCount, len(samples))
	fmt.Printf("Capacity=%.4fAh Energy=%.4fWh FinalSoC=%.4f PeakTemp=%.2f°C\n", sum.CapacityAh, sum.EnergyWh, sum.FinalSoC, sum.PeakTemperatureC)

	if *outCSV != "" {
		if err := report.WriteSamplesCSVFile(*outCSV, rep.Samples); err != nil {
			fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d samples to %s\n", len(rep.Samples), *outCSV)
	}
}
