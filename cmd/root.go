package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"copilotmcp/internal/config"
	"copilotmcp/internal/copilot"
	"copilotmcp/internal/logging"
	"copilotmcp/internal/output"
	"copilotmcp/internal/session"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui       *output.UI
	settings config.Settings
	logger   *slog.Logger
	runner   *copilot.Runner
	sessions *session.Store
	catalog  *copilot.Catalog

	verbose bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "copilot-mcp",
	Short: "Bridge the GitHub Copilot CLI to MCP clients",
	Long: `copilot-mcp wraps the GitHub Copilot CLI and exposes it as a set of
remotely invokable operations: an MCP stdio server for editor and agent
integrations, a small REST API, and one-shot terminal commands.

Prompts are delivered to the CLI over stdin, executions are bounded by a
timeout with partial-output salvage, and exchanges are recorded into
in-process conversation sessions.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/copilot-mcp/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "copilot-mcp")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("COPILOT_MCP")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	viper.SetDefault("copilot.binary", "copilot")
	viper.SetDefault("copilot.model", "")
	viper.SetDefault("copilot.allow_all_tools", false)
	viper.SetDefault("copilot.timeout_ms", 60000)
	viper.SetDefault("copilot.max_prompt_bytes", 24000)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("debug", false)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	settings = config.Load()
	logger = logging.New(settings)
	sessions = session.NewStore()

	runner = copilot.NewRunner(settings.Binary, logger)
	runner.DefaultModel = settings.Model
	runner.DefaultAllowAll = settings.AllowAllTools
	runner.Timeout = settings.Timeout
	runner.MaxPromptBytes = settings.MaxPromptBytes
	runner.Recorder = sessions

	catalog = copilot.NewCatalog(runner, logger)
}
