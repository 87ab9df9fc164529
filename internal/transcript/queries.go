// Package transcript persists finished conversations.
//
// A transcript row is written exactly once per session, at close, with
// an idempotent upsert so a retried close never duplicates rows.
package transcript

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the pgx implementation of the transcript query layer.
type Queries struct {
	db DBTX
}

// NewQueries wraps a database handle.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// UpsertTranscriptParams holds one transcript write.
type UpsertTranscriptParams struct {
	SessionID uuid.UUID
	Turns     []byte // JSON array of turns
	TurnCount int32
}

const upsertTranscriptSQL = `
INSERT INTO transcripts (session_id, turns, turn_count)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE
SET turns = EXCLUDED.turns,
    turn_count = EXCLUDED.turn_count,
    updated_at = now()`

// UpsertTranscript writes a transcript row keyed by session ID.
// Re-running with the same payload leaves exactly one row.
func (q *Queries) UpsertTranscript(ctx context.Context, arg UpsertTranscriptParams) error {
	_, err := q.db.Exec(ctx, upsertTranscriptSQL, arg.SessionID, arg.Turns, arg.TurnCount)
	return err
}

// TranscriptRow is one persisted transcript.
type TranscriptRow struct {
	SessionID uuid.UUID
	Turns     []byte
	TurnCount int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

const getTranscriptSQL = `
SELECT session_id, turns, turn_count, created_at, updated_at
FROM transcripts
WHERE session_id = $1`

// GetTranscript fetches one transcript by session ID.
// Returns pgx.ErrNoRows when absent.
func (q *Queries) GetTranscript(ctx context.Context, sessionID uuid.UUID) (TranscriptRow, error) {
	var r TranscriptRow
	err := q.db.QueryRow(ctx, getTranscriptSQL, sessionID).
		Scan(&r.SessionID, &r.Turns, &r.TurnCount, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const listTranscriptsSQL = `
SELECT session_id, turns, turn_count, created_at, updated_at
FROM transcripts
ORDER BY updated_at DESC
LIMIT $1`

// ListTranscripts returns the most recently updated transcripts.
func (q *Queries) ListTranscripts(ctx context.Context, limit int32) ([]TranscriptRow, error) {
	rows, err := q.db.Query(ctx, listTranscriptsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TranscriptRow
	for rows.Next() {
		var r TranscriptRow
		if err := rows.Scan(&r.SessionID, &r.Turns, &r.TurnCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
