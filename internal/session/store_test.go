package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndSnapshot(t *testing.T) {
	store := NewStore()

	id := store.Create()
	snap, err := store.Snapshot(id)
	require.NoError(t, err)

	assert.Equal(t, id, snap.ID)
	assert.False(t, snap.Closed)
	assert.Empty(t, snap.Turns)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestStoreSnapshotUnknownID(t *testing.T) {
	store := NewStore()

	_, err := store.Snapshot(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreAppendKeepsOrder(t *testing.T) {
	store := NewStore()
	id := store.Create()

	for i := range 5 {
		err := store.Append(id, Turn{
			Query:  fmt.Sprintf("question %d", i),
			Answer: fmt.Sprintf("answer %d", i),
		})
		require.NoError(t, err)
	}

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	require.Len(t, snap.Turns, 5)
	for i, turn := range snap.Turns {
		assert.Equal(t, fmt.Sprintf("question %d", i), turn.Query)
		assert.Equal(t, fmt.Sprintf("answer %d", i), turn.Answer)
		assert.False(t, turn.CreatedAt.IsZero())
	}
}

func TestStoreAppendToRetiredSession(t *testing.T) {
	store := NewStore()
	id := store.Create()

	require.NoError(t, store.Retire(id))
	err := store.Append(id, Turn{Query: "too late", Answer: "nope"})
	assert.ErrorIs(t, err, ErrClosed)

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Empty(t, snap.Turns, "closed session must not grow")
}

func TestStoreRetireTwice(t *testing.T) {
	store := NewStore()
	id := store.Create()

	require.NoError(t, store.Retire(id))
	assert.ErrorIs(t, store.Retire(id), ErrClosed)
}

func TestStoreEnsureCreatesOnDemand(t *testing.T) {
	store := NewStore()
	id := uuid.New()

	snap := store.Ensure(id)
	assert.Equal(t, id, snap.ID)
	assert.False(t, snap.Closed)
	assert.Equal(t, 1, store.Len())

	// A second Ensure returns the same session, not a replacement.
	require.NoError(t, store.Append(id, Turn{Query: "q", Answer: "a"}))
	again := store.Ensure(id)
	assert.Len(t, again.Turns, 1)
	assert.Equal(t, 1, store.Len())
}

func TestStoreEnsureKeepsClosedMarker(t *testing.T) {
	store := NewStore()
	id := store.Create()
	require.NoError(t, store.Retire(id))

	snap := store.Ensure(id)
	assert.True(t, snap.Closed, "retired session must not reopen")
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	id := store.Create()
	require.NoError(t, store.Append(id, Turn{Query: "q", Answer: "a"}))

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	snap.Turns[0].Answer = "mutated"

	fresh, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "a", fresh.Turns[0].Answer)
}

func TestStoreRetireDropsTurnHistory(t *testing.T) {
	store := NewStore()
	id := store.Create()
	require.NoError(t, store.Append(id, Turn{Query: "q", Answer: "a"}))

	require.NoError(t, store.Retire(id))

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.True(t, snap.Closed)
	assert.Empty(t, snap.Turns)
}

func TestStoreConcurrentAppends(t *testing.T) {
	store := NewStore()
	id := store.Create()

	const goroutines = 16
	const perGoroutine = 25

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGoroutine {
				_ = store.Append(id, Turn{
					Query:  fmt.Sprintf("g%d-q%d", g, i),
					Answer: "a",
				})
			}
		}()
	}
	wg.Wait()

	snap, err := store.Snapshot(id)
	require.NoError(t, err)
	assert.Len(t, snap.Turns, goroutines*perGoroutine)
}
