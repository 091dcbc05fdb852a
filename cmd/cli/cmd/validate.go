package cmd

import (
	"fmt"

	"cellsim/internal/config"
	"cellsim/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a run config without simulating",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "path to YAML run config (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(validateConfigPath)
	if err != nil {
		color.Red("✗ %s", validateConfigPath)
		return err
	}
	spec, err := cfg.Test.ToModelSpec()
	if err != nil {
		return err
	}
	color.Green("✓ %s", validateConfigPath)
	fmt.Printf("  cell  %s (%s, %.2f Ah)\n", cfg.Cell.Name, cfg.Cell.Chemistry, cfg.Cell.CapacityAh)
	fmt.Printf("  test  %s %s %g %s, stop %s\n", spec.Mode, spec.Control, spec.Target, spec.Control.Unit(), spec.Stop)
	if spec.Control == model.ControlCCCV {
		fmt.Printf("  hold  %g V\n", spec.VoltageLimit)
	}
	fmt.Printf("  step  %s\n", cfg.Step())
	return nil
}
