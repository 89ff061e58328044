package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poeticinspiired/llm-data-pipeline/internal/adapters/driven/storage/memory"
	"github.com/poeticinspiired/llm-data-pipeline/internal/adapters/driven/storage/sqlite"
	"github.com/poeticinspiired/llm-data-pipeline/internal/config"
	"github.com/poeticinspiired/llm-data-pipeline/internal/connectors"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/ports/driven"
	"github.com/poeticinspiired/llm-data-pipeline/internal/core/services"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages"
)

var (
	processConfigPath string
	processLimit      int
	processDryRun     bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run a curation pipeline from a config file",
	Long: `Collects documents from the configured source, runs them
through the configured stage chain and stores the results.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processConfigPath, "config", "c", "", "pipeline config file (TOML)")
	processCmd.Flags().IntVarP(&processLimit, "limit", "n", 0, "cap collected documents (overrides config)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "process without persisting records")
	_ = processCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(processConfigPath)
	if err != nil {
		return err
	}

	collectorRegistry := connectors.NewRegistry()
	connectors.RegisterDefaults(collectorRegistry)
	collector, err := collectorRegistry.Build(cfg.Collector.Name, cfg.Collector.Options)
	if err != nil {
		return fmt.Errorf("collector: %w", err)
	}

	stageRegistry := stages.NewRegistry()
	stages.RegisterDefaults(stageRegistry)
	pipe, err := stages.FromConfig(stageRegistry, cfg)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	var store driven.RecordStore
	if !processDryRun {
		switch cfg.Storage.Backend {
		case "sqlite":
			s, err := sqlite.NewStore(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			defer s.Close()
			store = s
		default:
			store = memory.NewRecordStore()
		}
	}

	limit := cfg.Limit
	if processLimit > 0 {
		limit = processLimit
	}

	svc := services.NewCurationService(collector, pipe, store)
	stats, err := svc.Run(cmd.Context(), limit)
	if err != nil {
		return err
	}

	cmd.Printf("Run %s finished.\n", stats.RunID)
	cmd.Printf("  collected:  %d\n", stats.Collected)
	cmd.Printf("  processed:  %d\n", stats.Processed)
	cmd.Printf("  kept:       %d\n", stats.Kept)
	cmd.Printf("  filtered:   %d\n", stats.Filtered)
	cmd.Printf("  duplicates: %d\n", stats.Duplicates)
	cmd.Printf("  failed:     %d\n", stats.Failed)
	cmd.Printf("  stored:     %d\n", stats.Stored)
	return nil
}
