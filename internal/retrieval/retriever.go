// Package retrieval selects the passages a turn may answer from.
//
// Retrieval failures never fail a turn. When the embedder or the index
// is unreachable the retriever logs a warning and returns no passages,
// which downstream turns into the fixed refusal answer.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/strictqa/strictqa/internal/passage"
)

// Searcher is the slice of the passage store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]passage.Result, error)
}

// Retriever fetches the top-K passages for a query.
type Retriever struct {
	searcher Searcher
	topK     int
	logger   *slog.Logger
}

// New creates a Retriever returning at most topK passages per query.
func New(searcher Searcher, topK int, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		searcher: searcher,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns up to topK passages ordered by descending similarity.
// On search failure it returns an empty slice and nil error; callers
// cannot distinguish an unavailable index from an empty one.
func (r *Retriever) Retrieve(ctx context.Context, query string) []passage.Result {
	results, err := r.searcher.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Warn("retrieval failed, continuing with no passages",
			"error", err, "query_length", len(query))
		return nil
	}
	return results
}
