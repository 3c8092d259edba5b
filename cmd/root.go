// =============================================================================
// Tariff Import Pipeline - Root Command
// =============================================================================
//
// Defines the root command for the Cobra CLI. All other commands are attached
// to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tariff-import)
//   ├── importCmd  (tariff-import import)
//   ├── historyCmd (tariff-import history)
//   └── versionCmd (tariff-import version)
//
// The root command owns the global flags (--config, --verbose) and the shared
// logger construction used by every subcommand.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solardesk/tariff-import/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true, overriding the configured
// log level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "tariff-import",

	Short: "Tariff Import Pipeline - Load utility tariff exports into the dashboard store",

	Long: `Tariff Import Pipeline is a CLI tool that ingests tariff export files
(CSV or XLSX) published by the national regulator, matches the utility names
against the provider registry, validates and normalizes the values, and
commits them as a versioned import batch.

Key Features:
  - Accepts both the consolidated and the per-component export layouts
  - Tolerant column recognition across header naming variants
  - Tiered provider matching with a confidence-scored fallback
  - Idempotent, chunked commits with a version record per run
  - Summary, unmatched, column-quality and value-sanity reports

Example Usage:
  tariff-import import --file tarifas.csv          # Full pipeline with gates
  tariff-import import --file tarifas.xlsx --dry-run
  tariff-import history                            # Recent import versions`,

	// Run prints the help message when no subcommand is provided.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug output",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration file named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds the application logger from the configured level.
// The --verbose flag forces debug regardless of configuration.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
