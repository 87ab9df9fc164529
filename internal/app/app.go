// Package app wires the application together: configuration, logging,
// tracing, database pool, Genkit, and the answering pipeline.
//
// Setup builds an App with embedded cleanup. Every entry point (TUI,
// one-shot ask, HTTP server, MCP server) goes through the same path.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strictqa/strictqa/internal/answer"
	"github.com/strictqa/strictqa/internal/config"
	"github.com/strictqa/strictqa/internal/passage"
	"github.com/strictqa/strictqa/internal/pipeline"
	"github.com/strictqa/strictqa/internal/retrieval"
	"github.com/strictqa/strictqa/internal/transcript"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	// Domain components
	Passages    *passage.Store
	Transcripts *transcript.Store
	Retriever   *retrieval.Retriever
	Generator   *answer.Generator
	Pipeline    *pipeline.Pipeline

	// Lifecycle management
	otelCleanup func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.logger().Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.logger().Info("database pool closed")
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
