// Package cli implements the codeagent command-line interface. Commands
// write styled output to stdout; diagnostics go to stderr so the serve
// command can keep stdout clean for the MCP protocol.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/config"
)

// Version is the CLI version string.
const Version = "1.0.0"

var (
	flagStorePath string
	flagProvider  string
)

var rootCmd = &cobra.Command{
	Use:          "codeagent",
	Short:        "AI-powered code intelligence for your codebase",
	Long:         "Analyze, search, and understand a codebase with a vector index and an AI agent.",
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStorePath, "db", "", "path to the vector index database")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "embedding provider (openai, ollama, local)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() error {
	return rootCmd.Execute()
}

// resolveConfig loads configuration with flag > environment > default
// precedence.
func resolveConfig() *config.Config {
	cfg := config.Load()
	if flagStorePath != "" {
		cfg.StorePath = flagStorePath
	}
	if flagProvider != "" {
		cfg.EmbeddingProvider = flagProvider
	}
	cfg.Normalize()
	return cfg
}
