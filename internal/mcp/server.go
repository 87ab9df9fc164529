// Package mcp exposes the question-answering pipeline over the Model
// Context Protocol, so other agents can ask the dataset directly.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/strictqa/strictqa/internal/passage"
)

// Retriever fetches candidate passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []passage.Result
}

// Generator produces an answer constrained to the given passages.
type Generator interface {
	Answer(ctx context.Context, query string, passages []passage.Result) (string, error)
}

// Server wraps the MCP SDK server around the answering pipeline.
type Server struct {
	mcpServer *mcp.Server
	retriever Retriever
	generator Generator
	logger    *slog.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Retriever Retriever
	Generator Generator
	Logger    *slog.Logger
}

// NewServer creates an MCP server exposing the ask tool.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Retriever == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("retriever and generator are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		logger:    logger,
	}

	if err := s.registerAsk(); err != nil {
		return nil, fmt.Errorf("registering ask tool: %w", err)
	}

	return s, nil
}

// Run serves MCP on the given transport. Blocks until ctx is done or
// the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// AskInput defines the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"The question to answer from the dataset"`
}

func (s *Server) registerAsk() error {
	inputSchema, err := jsonschema.For[AskInput](nil)
	if err != nil {
		return fmt.Errorf("creating input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name: "ask",
		Description: "Answer a question strictly from the stored dataset. " +
			"Returns passages verbatim; replies with a fixed refusal when nothing matches.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
		passages := s.retriever.Retrieve(ctx, in.Query)
		answer, err := s.generator.Answer(ctx, in.Query, passages)
		if err != nil {
			return nil, nil, fmt.Errorf("answering query: %w", err)
		}

		s.logger.Debug("ask tool served", "passages", len(passages))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: answer}},
		}, nil, nil
	})

	return nil
}
