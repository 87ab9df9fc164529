// Package cmd provides CLI commands for strictqa.
//
// Commands:
//   - chat: Interactive terminal chat with Bubble Tea TUI (default)
//   - ask: One-shot question on the command line
//   - serve: HTTP server with JSON API and browser front end
//   - mcp: Model Context Protocol server on stdio
//   - transcripts: Inspect persisted transcripts
//
// Signal handling and graceful shutdown are implemented for all
// long-running commands via context cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/strictqa/strictqa/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "strictqa",
	Short: "Dataset-grounded Q&A chatbot that never paraphrases",
	Long: `strictqa answers questions strictly from a pgvector-indexed dataset.
Answers are returned verbatim from stored passages; when nothing
matches, the bot replies with a fixed refusal instead of guessing.

Running strictqa without a subcommand starts interactive chat mode.`,
	SilenceUsage: true,
	RunE:         runChat,
}

// Execute is the main entry point for the strictqa CLI.
func Execute() error {
	initLogger()
	return rootCmd.Execute()
}

// initLogger sets the process-wide default logger.
// DEBUG in the environment enables debug level.
// Logs go to stderr for MCP compatibility (stdout carries JSON-RPC).
func initLogger() {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	slog.SetDefault(log.New(cfg))
}
