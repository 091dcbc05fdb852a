package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"cellsim/internal/config"

	"github.com/spf13/cobra"
)

var presetsCellDir string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List cell presets",
	Long:  `List the built-in chemistry presets and, with --cell-dir, the cell files found there`,
	RunE:  listPresets,
}

func init() {
	presetsCmd.Flags().StringVar(&presetsCellDir, "cell-dir", "", "also list *.yaml cell files in this directory")
}

func listPresets(cmd *cobra.Command, args []string) error {
	entries := config.BuiltInCells()
	if presetsCellDir != "" {
		loaded, skipped, err := config.LoadCellDir(presetsCellDir)
		if err != nil {
			return fmt.Errorf("failed to read cell directory: %w", err)
		}
		for file, serr := range skipped {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", file, serr)
		}
		entries = append(entries, loaded...)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCHEMISTRY\tCAPACITY\tNOMINAL\tR\tWINDOW\tSOURCE")
	_, _ = fmt.Fprintln(w, "--\t---------\t--------\t-------\t-\t------\t------")
	for _, e := range entries {
		source := "built-in"
		if !e.BuiltIn {
			source = e.File
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f Ah\t%.2f V\t%.1f mΩ\t%.2f-%.2f V\t%s\n",
			e.ID,
			e.Cell.Chemistry,
			e.Cell.CapacityAh,
			e.Cell.NominalVoltage,
			e.Cell.InternalResistanceOhm*1000,
			e.Cell.LowerCutoffV,
			e.Cell.UpperCutoffV,
			source,
		)
	}
	return w.Flush()
}
