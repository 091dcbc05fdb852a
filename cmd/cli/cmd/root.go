package cmd

import (
	"os"

	"cellsim/internal/logging"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "cellsim",
	Short: "Single-cell charge/discharge simulator",
	Long: `cellsim runs constant-current, constant-voltage and constant-power
charge/discharge tests against a single-cell model and writes the
resulting time series and summary as CSV or JSON.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(validateCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig lets LOG_LEVEL from the environment stand in for the flag.
func initConfig() {
	viper.AutomaticEnv()
	logging.Configure(os.Stderr, viper.GetString("log_level"))
	if noColor {
		color.NoColor = true
	}
}
