package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"copilotmcp/internal/copilot"
	"copilotmcp/internal/output"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model identifiers discovered from the Copilot CLI",
	Long: `List model identifiers parsed out of the Copilot CLI help output.

The list is advisory: names are scraped with a text heuristic and are not
validated against the CLI. When discovery fails, a static fallback list
is shown instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := catalog.Discover(context.Background())

		if result.Source == copilot.SourceFallback {
			ui.Warning("help discovery yielded nothing, showing fallback list")
		}

		table := ui.Table([]string{"Model", "Source"})
		for _, m := range result.Models {
			table.Append([]string{output.Cyan(m), result.Source})
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
