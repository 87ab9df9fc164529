package passage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the pgx implementation of the passage query layer.
type Queries struct {
	db DBTX
}

// NewQueries wraps a database handle.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// SearchPassagesParams holds vector search parameters.
type SearchPassagesParams struct {
	QueryEmbedding *pgvector.Vector
	ResultLimit    int32
}

// SearchPassagesRow is one row of a vector search.
type SearchPassagesRow struct {
	ID         string
	Content    string
	CreatedAt  pgtype.Timestamptz
	Similarity float32
}

const searchPassagesSQL = `
SELECT id, content, created_at,
       1 - (embedding <=> $1) AS similarity
FROM passages
ORDER BY embedding <=> $1
LIMIT $2`

// SearchPassages returns the nearest passages by cosine distance,
// most similar first. Postgres ORDER BY gives a stable order for ties.
func (q *Queries) SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]SearchPassagesRow, error) {
	rows, err := q.db.Query(ctx, searchPassagesSQL, arg.QueryEmbedding, arg.ResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SearchPassagesRow
	for rows.Next() {
		var r SearchPassagesRow
		if err := rows.Scan(&r.ID, &r.Content, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// UpsertPassageParams holds passage upsert parameters.
type UpsertPassageParams struct {
	ID        string
	Content   string
	Embedding *pgvector.Vector
}

const upsertPassageSQL = `
INSERT INTO passages (id, content, embedding)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET content = EXCLUDED.content,
    embedding = EXCLUDED.embedding`

// UpsertPassage inserts or replaces one passage.
func (q *Queries) UpsertPassage(ctx context.Context, arg UpsertPassageParams) error {
	_, err := q.db.Exec(ctx, upsertPassageSQL, arg.ID, arg.Content, arg.Embedding)
	return err
}

const countPassagesSQL = `SELECT count(*) FROM passages`

// CountPassages returns the corpus size.
func (q *Queries) CountPassages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countPassagesSQL).Scan(&count)
	return count, err
}
