package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the GitHub Copilot CLI is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if !runner.Installed(ctx) {
			ui.Error("Copilot CLI not found (binary: %s)", settings.Binary)
			ui.Info("Install it with: npm install -g @github/copilot")
			return nil
		}

		version, _ := runner.Version(ctx)
		ui.Success("Copilot CLI installed: %s", version)
		ui.VerboseLog("binary: %s", settings.Binary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
