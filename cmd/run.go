package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"copilotmcp/internal/copilot"
)

var (
	runModel         string
	runAllowAllTools bool
	runResume        string
	runContextFile   string
	runTimeout       time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a single prompt through the Copilot CLI",
	Long: `Run a single prompt through the GitHub Copilot CLI and print the response.

The prompt is taken from the arguments, or read from stdin when no
arguments are given:

  copilot-mcp run "explain this error: ..."
  git diff | copilot-mcp run "review this diff"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		if prompt == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read prompt from stdin: %w", err)
			}
			prompt = strings.TrimSpace(string(data))
		}
		if prompt == "" {
			return fmt.Errorf("no prompt given")
		}

		req := copilot.Request{
			Prompt:    prompt,
			Model:     runModel,
			SessionID: runResume,
		}
		if cmd.Flags().Changed("allow-all-tools") {
			req.AllowAllTools = &runAllowAllTools
		}
		if runContextFile != "" {
			data, err := os.ReadFile(runContextFile)
			if err != nil {
				return fmt.Errorf("read context file: %w", err)
			}
			req.Context = string(data)
		}

		if runTimeout > 0 {
			runner.Timeout = runTimeout
		}

		result, err := runner.Execute(context.Background(), req)
		if err != nil {
			return err
		}

		if result.Outcome == copilot.OutcomePartial {
			ui.Warning("command timed out, showing partial output")
		}
		fmt.Fprintln(ui.Out, result.Text)
		ui.VerboseLog("exit_code=%d duration=%s", result.ExitCode, result.Duration)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model identifier (default from config)")
	runCmd.Flags().BoolVar(&runAllowAllTools, "allow-all-tools", false, "Pass --allow-all-tools to the CLI")
	runCmd.Flags().StringVar(&runResume, "resume", "", "Session id to resume")
	runCmd.Flags().StringVar(&runContextFile, "context-file", "", "File whose contents are appended to the prompt as context")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Override the execution timeout, e.g. 90s (default from config)")
	rootCmd.AddCommand(runCmd)
}
