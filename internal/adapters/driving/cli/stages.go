package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/poeticinspiired/llm-data-pipeline/internal/connectors"
	"github.com/poeticinspiired/llm-data-pipeline/internal/stages"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List available pipeline stages and collectors",
	Run: func(cmd *cobra.Command, _ []string) {
		stageRegistry := stages.NewRegistry()
		stages.RegisterDefaults(stageRegistry)
		collectorRegistry := connectors.NewRegistry()
		connectors.RegisterDefaults(collectorRegistry)

		cmd.Println("Stages:")
		for _, name := range sorted(stageRegistry.Names()) {
			cmd.Printf("  %s\n", name)
		}
		cmd.Println("Collectors:")
		for _, name := range sorted(collectorRegistry.Names()) {
			cmd.Printf("  %s\n", name)
		}
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}

func sorted(names []string) []string {
	sort.Strings(names)
	return names
}
