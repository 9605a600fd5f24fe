// Package main provides the ResumeForge command line: the HTTP API server, the MCP
// server and one-shot resume workflows.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/config"
	"github.com/jonathan/resume-forge/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "2.0.0"

var (
	configPath string
	debug      bool
	jsonLogs   bool

	appConfig *config.Config
	appLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "resumeforge",
	Short:         "ResumeForge AI resume optimizer",
	Long:          "ResumeForge rewrites resumes for applicant tracking systems through a chain of LLM stages: sanitize, optimize, enhance and evaluate. It also offers career guidance and quality scoring, as an HTTP API, an MCP server or one-shot commands.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("json-logs") {
			cfg.Log.JSON = jsonLogs
		}
		if debug {
			cfg.Log.Level = "debug"
		}

		l, err := logger.NewFromLevel(cfg.Log.JSON, cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		appConfig = cfg
		appLogger = l
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: resumeforge.yaml in . or $HOME/.resumeforge)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging, including prompt previews")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
