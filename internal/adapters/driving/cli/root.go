// Package cli provides the command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/poeticinspiired/llm-data-pipeline/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ldp",
	Short: "Curate raw text into a training corpus",
	Long: `ldp collects raw documents, runs them through a configurable
processing pipeline (cleaning, tokenization, quality scoring, filtering,
deduplication) and persists the surviving records.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
