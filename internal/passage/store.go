package passage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
)

// Querier defines the database operations the store needs.
// The interface lives with the consumer so tests can supply mocks.
type Querier interface {
	SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]SearchPassagesRow, error)
	UpsertPassage(ctx context.Context, arg UpsertPassageParams) error
	CountPassages(ctx context.Context) (int64, error)
}

// Store embeds text and runs vector search over the passage corpus.
// Safe for concurrent use.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// searchTimeout bounds a single vector search query.
const searchTimeout = 10 * time.Second

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Search embeds query and returns up to limit passages ordered by
// descending cosine similarity.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.queries.SearchPassages(queryCtx, SearchPassagesParams{
		QueryEmbedding: embedding,
		ResultLimit:    int32(limit), //nolint:gosec // limit is validated config, never user input
	})
	if err != nil {
		return nil, fmt.Errorf("searching passages: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var createdAt time.Time
		if row.CreatedAt.Valid {
			createdAt = row.CreatedAt.Time
		}
		results = append(results, Result{
			Passage: Passage{
				ID:        row.ID,
				Content:   row.Content,
				CreatedAt: createdAt,
			},
			Similarity: row.Similarity,
		})
	}

	s.logger.Debug("passage search completed", "query_length", len(query), "results", len(results))
	return results, nil
}

// Add embeds content and upserts one passage into the corpus.
func (s *Store) Add(ctx context.Context, id, content string) error {
	embedding, err := s.embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", id, err)
	}

	if err := s.queries.UpsertPassage(ctx, UpsertPassageParams{
		ID:        id,
		Content:   content,
		Embedding: embedding,
	}); err != nil {
		return fmt.Errorf("upserting passage %q: %w", id, err)
	}

	s.logger.Debug("passage added", "id", id, "content_length", len(content))
	return nil
}

// Count reports the corpus size.
func (s *Store) Count(ctx context.Context) (int64, error) {
	count, err := s.queries.CountPassages(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return count, nil
}

func (s *Store) embed(ctx context.Context, text string) (*pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedder returned empty embedding")
	}

	v := pgvector.NewVector(resp.Embeddings[0].Embedding)
	return &v, nil
}
