package passage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/log"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr    error
	returnEmpty bool
	embeddings  []float32

	callCount     int
	lastInputText string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInputText = req.Input[0].Content[0].Text
	}

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}

	embeddings := m.embeddings
	if embeddings == nil {
		embeddings = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: embeddings}}}, nil
}

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	searchErr error
	upsertErr error
	countErr  error

	searchResults []SearchPassagesRow
	countResult   int64

	searchCalls int
	upsertCalls int
	lastSearch  SearchPassagesParams
	lastUpsert  UpsertPassageParams
}

func (m *mockQuerier) SearchPassages(_ context.Context, arg SearchPassagesParams) ([]SearchPassagesRow, error) {
	m.searchCalls++
	m.lastSearch = arg
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

func (m *mockQuerier) UpsertPassage(_ context.Context, arg UpsertPassageParams) error {
	m.upsertCalls++
	m.lastUpsert = arg
	return m.upsertErr
}

func (m *mockQuerier) CountPassages(context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.countResult, nil
}

func TestStoreSearch(t *testing.T) {
	t.Run("returns results in query order", func(t *testing.T) {
		querier := &mockQuerier{
			searchResults: []SearchPassagesRow{
				{ID: "p1", Content: "first", Similarity: 0.95,
					CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true}},
				{ID: "p2", Content: "second", Similarity: 0.80},
			},
		}
		embedder := &mockEmbedder{}
		store := NewStore(querier, embedder, log.NewNop())

		results, err := store.Search(context.Background(), "what is first?", 10)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "p1", results[0].Passage.ID)
		assert.Equal(t, "first", results[0].Passage.Content)
		assert.InDelta(t, 0.95, results[0].Similarity, 0.001)
		assert.Equal(t, "p2", results[1].Passage.ID)

		assert.Equal(t, 1, embedder.callCount)
		assert.Equal(t, "what is first?", embedder.lastInputText)
		assert.Equal(t, int32(10), querier.lastSearch.ResultLimit)
	})

	t.Run("empty corpus returns empty slice", func(t *testing.T) {
		store := NewStore(&mockQuerier{}, &mockEmbedder{}, log.NewNop())

		results, err := store.Search(context.Background(), "anything", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("embedder failure propagates", func(t *testing.T) {
		embedErr := errors.New("embedder unavailable")
		querier := &mockQuerier{}
		store := NewStore(querier, &mockEmbedder{embedErr: embedErr}, log.NewNop())

		_, err := store.Search(context.Background(), "q", 10)
		assert.ErrorIs(t, err, embedErr)
		assert.Zero(t, querier.searchCalls, "search must not run without an embedding")
	})

	t.Run("empty embedding is an error", func(t *testing.T) {
		store := NewStore(&mockQuerier{}, &mockEmbedder{returnEmpty: true}, log.NewNop())

		_, err := store.Search(context.Background(), "q", 10)
		assert.ErrorContains(t, err, "empty embedding")
	})

	t.Run("query failure propagates", func(t *testing.T) {
		searchErr := errors.New("connection refused")
		store := NewStore(&mockQuerier{searchErr: searchErr}, &mockEmbedder{}, log.NewNop())

		_, err := store.Search(context.Background(), "q", 10)
		assert.ErrorIs(t, err, searchErr)
	})
}

func TestStoreAdd(t *testing.T) {
	t.Run("embeds content and upserts", func(t *testing.T) {
		querier := &mockQuerier{}
		embedder := &mockEmbedder{embeddings: []float32{1, 2, 3}}
		store := NewStore(querier, embedder, log.NewNop())

		err := store.Add(context.Background(), "p1", "some passage text")
		require.NoError(t, err)

		assert.Equal(t, 1, querier.upsertCalls)
		assert.Equal(t, "p1", querier.lastUpsert.ID)
		assert.Equal(t, "some passage text", querier.lastUpsert.Content)
		require.NotNil(t, querier.lastUpsert.Embedding)
		assert.Equal(t, "some passage text", embedder.lastInputText)
	})

	t.Run("upsert failure propagates", func(t *testing.T) {
		upsertErr := errors.New("disk full")
		store := NewStore(&mockQuerier{upsertErr: upsertErr}, &mockEmbedder{}, log.NewNop())

		err := store.Add(context.Background(), "p1", "text")
		assert.ErrorIs(t, err, upsertErr)
	})
}

func TestStoreCount(t *testing.T) {
	store := NewStore(&mockQuerier{countResult: 42}, &mockEmbedder{}, log.NewNop())

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
