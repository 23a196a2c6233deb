package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"copilotmcp/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients drive the GitHub Copilot CLI remotely. Configure in
a client with:

  {
    "mcpServers": {
      "copilot": { "command": "copilot-mcp", "args": ["mcp"] }
    }
  }

Available tools: copilot_execute, copilot_list_models,
copilot_create_session, copilot_list_sessions, copilot_session_history,
copilot_status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcp.NewServer(runner, catalog, runner, sessions, logger)
		logger.Info("starting MCP stdio server", "version", buildVersion)
		return srv.ServeStdio(context.Background(), buildVersion)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
