// Package answer turns retrieved passages into a verbatim answer.
//
// The model is instructed to echo stored content only, never to
// paraphrase or invent. With no passages the fixed refusal is returned
// without touching the model at all.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/strictqa/strictqa/internal/passage"
)

// NoMatchAnswer is the fixed refusal returned when no passages were
// retrieved. The byte sequence is part of the product contract; clients
// match on it.
const NoMatchAnswer = "No matching answer found in the dataset."

// systemPrompt pins the model to verbatim dataset content.
const systemPrompt = "You are a strict Q&A bot. You must only respond with answers that are " +
	"exactly as stored in the dataset. Do not paraphrase, summarize, or generate new content. " +
	"If no matching answer is found, say 'No matching answer found in the dataset.'"

// passageSeparator joins passage contents inside the prompt context block.
const passageSeparator = "\n\n"

// Generator produces answers constrained to retrieved passages.
type Generator struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// New creates a Generator targeting the given provider-qualified model.
func New(g *genkit.Genkit, modelName string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		g:         g,
		modelName: modelName,
		logger:    logger,
	}
}

// Answer produces the answer for query given the retrieved passages.
// An empty passage set short-circuits to NoMatchAnswer; the model is
// not invoked. Model failure is fatal for the turn and propagates.
func (gen *Generator) Answer(ctx context.Context, query string, passages []passage.Result) (string, error) {
	if len(passages) == 0 {
		gen.logger.Debug("no passages retrieved, returning fixed refusal")
		return NoMatchAnswer, nil
	}

	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Passage.Content)
	}
	contextBlock := strings.Join(contents, passageSeparator)

	prompt := fmt.Sprintf("Query: %s\n\nRelevant Data:\n%s", query, contextBlock)

	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(prompt),
		// Temperature zero keeps output pinned to the stored text.
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	gen.logger.Debug("answer generated",
		"passages", len(passages), "answer_length", len(text))
	return text, nil
}
