// Package main provides the CLI entry point for ragserver, the
// retrieval-augmented chat service behind the Book My Darshan assistant.
//
// # Basic Usage
//
// Start the API server:
//
//	ragserver serve --config ragserver.yaml
//
// Apply database migrations:
//
//	ragserver migrate --config ragserver.yaml
//
// Chunk and embed a stored document:
//
//	ragserver process <document-id> --config ragserver.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// This is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ragserver",
		Short:        "ragserver - retrieval-augmented chat over a pgvector knowledge base",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ragserver.yaml", "Path to configuration file")

	rootCmd.AddCommand(
		buildServeCmd(),
		buildMigrateCmd(),
		buildProcessCmd(),
	)

	return rootCmd
}
