package cmd

import (
	"fmt"
	"io"

	"cellsim/internal/api/models"
	"cellsim/internal/config"
	"cellsim/internal/cycle"
	"cellsim/internal/logging"
	"cellsim/internal/model"
	"cellsim/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	simConfigPath string
	simOutPath    string
	simSummaryOut string
	simJSON       bool
	simMaxPoints  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a charge/discharge test",
	Long: `Run the test described by a YAML run config and write the sample
series as CSV. The summary and health assessment are printed to stdout.`,
	Example: "  cellsim simulate --config examples/run.yaml --out results/samples.csv",
	RunE:    runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "path to YAML run config (required)")
	simulateCmd.Flags().StringVar(&simOutPath, "out", "results/samples.csv", "output CSV path for samples")
	simulateCmd.Flags().StringVar(&simSummaryOut, "summary-out", "", "optional CSV path for the summary row")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print summary and health as JSON")
	simulateCmd.Flags().IntVar(&simMaxPoints, "max-points", 0, "thin the written series to at most N samples (0=all)")
	_ = simulateCmd.MarkFlagRequired("config")
}

// simulationResult is the --json output shape.
type simulationResult struct {
	Summary models.Summary `json:"summary"`
	Health  models.Health  `json:"health"`
	Output  string         `json:"output"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(simConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	profile := cfg.Cell.ToModelProfile()
	spec, err := cfg.Test.ToModelSpec()
	if err != nil {
		return err
	}

	logging.Logger.Debug("simulating",
		"cell", profile.Name,
		"mode", spec.Mode,
		"control", spec.Control,
		"target", spec.Target,
		"stop", spec.Stop.String(),
		"step", cfg.Step(),
	)

	rep, err := cycle.SimulateContext(cmd.Context(), profile, spec, cfg.Step())
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	summary := report.Summarize(rep)
	last, _ := rep.Last()
	health := report.Assess(profile, summary, last, cfg.ThresholdsOrDefault())

	written := report.Downsample(rep.Samples, simMaxPoints)
	if err := report.WriteSamplesCSVFile(simOutPath, written); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if simSummaryOut != "" {
		if err := report.WriteSummaryCSVFile(simSummaryOut, summary); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if simJSON {
		return report.WriteJSON(cmd.OutOrStdout(), simulationResult{
			Summary: models.NewSummary(summary),
			Health:  models.NewHealth(health),
			Output:  simOutPath,
		})
	}
	printSummary(cmd.OutOrStdout(), profile, summary, health, len(written))
	return nil
}

// printSummary reports n, the number of samples actually written.
func printSummary(w io.Writer, p model.CellProfile, s report.Summary, h report.Health, n int) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "Wrote %d samples to %s\n", n, simOutPath)
	fmt.Fprintf(w, "%s %s %s (%s)\n", bold("Test:"), s.Mode, s.Control, p.Name)
	fmt.Fprintf(w, "  stop reason   %s after %.1f s\n", s.StopReason, s.DurationS)
	fmt.Fprintf(w, "  capacity      %.4f Ah\n", s.CapacityAh)
	fmt.Fprintf(w, "  energy        %.4f Wh\n", s.EnergyWh)
	fmt.Fprintf(w, "  voltage       %.3f .. %.3f V (mean %.3f V)\n", s.MinVoltage, s.MaxVoltage, s.MeanVoltage)
	fmt.Fprintf(w, "  soc           %.3f -> %.3f\n", s.InitialSoC, s.FinalSoC)
	fmt.Fprintf(w, "  peak temp     %.2f °C\n", s.PeakTemperatureC)
	fmt.Fprintf(w, "%s %s (overall %.1f)\n", bold("Status:"), statusColor(h.Status).Sprint(h.Status), h.Overall)
	for _, a := range h.Alerts {
		c := color.New(color.FgYellow)
		if a.Level == report.AlertCritical {
			c = color.New(color.FgRed, color.Bold)
		}
		fmt.Fprintf(w, "  %s %s\n", c.Sprint(a.Level), a.Message)
	}
}

func statusColor(s report.Status) *color.Color {
	switch s {
	case report.StatusCritical:
		return color.New(color.FgRed, color.Bold)
	case report.StatusWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
