package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"copilotmcp/internal/output"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List conversation sessions",
	Long: `List conversation sessions known to this process.

Sessions exist only for the lifetime of a 'serve' or 'mcp' process, so a
standalone invocation will usually show an empty list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries := sessions.List()
		if len(summaries) == 0 {
			ui.Info("No sessions")
			return nil
		}

		current := sessions.Current()
		table := ui.Table([]string{"ID", "Started", "Last Activity", "Messages", ""})
		for _, s := range summaries {
			marker := ""
			if s.ID == current {
				marker = output.Green("current")
			}
			table.Append([]string{
				output.Cyan(s.ID),
				s.StartedAt.Format(time.RFC3339),
				s.LastActivity.Format(time.RFC3339),
				fmt.Sprintf("%d", s.MessageCount),
				marker,
			})
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
