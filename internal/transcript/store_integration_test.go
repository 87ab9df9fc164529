package transcript_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strictqa/strictqa/internal/log"
	"github.com/strictqa/strictqa/internal/session"
	"github.com/strictqa/strictqa/internal/testutil"
	"github.com/strictqa/strictqa/internal/transcript"
)

// TestStorePostgres verifies transcript persistence round trips and
// upsert idempotence against a real database. Requires Docker.
func TestStorePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := transcript.NewStore(transcript.NewQueries(db.Pool), log.NewNop())

	sess := session.Session{
		ID: uuid.New(),
		Turns: []session.Turn{
			{Query: "q1", Answer: "a1", CreatedAt: time.Now().UTC()},
			{Query: "quit", Answer: "Thank you for using the chatbot. Session ended.", CreatedAt: time.Now().UTC()},
		},
	}

	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "q1", got.Turns[0].Query)
	assert.Equal(t, "a1", got.Turns[0].Answer)

	// Saving again converges on the same single row.
	require.NoError(t, store.Save(ctx, sess))
	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, transcript.ErrNotFound)
}
