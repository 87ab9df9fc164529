package retrieval

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/log"
	"github.com/strictqa/strictqa/internal/passage"
)

type mockSearcher struct {
	results []passage.Result
	err     error

	calls     int
	lastQuery string
	lastLimit int
}

func (m *mockSearcher) Search(_ context.Context, query string, limit int) ([]passage.Result, error) {
	m.calls++
	m.lastQuery = query
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func TestRetrieve(t *testing.T) {
	t.Run("passes query and limit through", func(t *testing.T) {
		searcher := &mockSearcher{
			results: []passage.Result{
				{Passage: passage.Passage{ID: "p1", Content: "a"}, Similarity: 0.9},
			},
		}
		r := New(searcher, 10, log.NewNop())

		results := r.Retrieve(context.Background(), "what is a?")

		require.Len(t, results, 1)
		assert.Equal(t, "p1", results[0].Passage.ID)
		assert.Equal(t, "what is a?", searcher.lastQuery)
		assert.Equal(t, 10, searcher.lastLimit)
	})

	t.Run("empty index yields empty result", func(t *testing.T) {
		r := New(&mockSearcher{}, 10, log.NewNop())

		results := r.Retrieve(context.Background(), "anything")
		assert.Empty(t, results)
	})

	t.Run("search failure degrades to empty with warning", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.NewWithWriter(&buf, log.Config{Level: slog.LevelWarn})
		searcher := &mockSearcher{err: errors.New("index unreachable")}
		r := New(searcher, 10, logger)

		results := r.Retrieve(context.Background(), "anything")

		assert.Empty(t, results)
		assert.Contains(t, buf.String(), "retrieval failed")
		assert.Contains(t, buf.String(), "index unreachable")
	})
}
