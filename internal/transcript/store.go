package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/strictqa/strictqa/internal/session"
)

// ErrNotFound indicates no transcript exists for the session ID.
var ErrNotFound = errors.New("transcript not found")

// Querier defines the database operations the store needs.
type Querier interface {
	UpsertTranscript(ctx context.Context, arg UpsertTranscriptParams) error
	GetTranscript(ctx context.Context, sessionID uuid.UUID) (TranscriptRow, error)
	ListTranscripts(ctx context.Context, limit int32) ([]TranscriptRow, error)
}

// Transcript is a persisted conversation.
type Transcript struct {
	SessionID uuid.UUID      `json:"session_id"`
	Turns     []session.Turn `json:"turns"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Store writes and reads transcripts.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: querier, logger: logger}
}

// Save persists the session's full turn sequence. Safe to retry: the
// upsert is keyed by session ID and converges on one row.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	turns := sess.Turns
	if turns == nil {
		turns = []session.Turn{}
	}
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshaling turns: %w", err)
	}

	if err := s.queries.UpsertTranscript(ctx, UpsertTranscriptParams{
		SessionID: sess.ID,
		Turns:     payload,
		TurnCount: int32(len(turns)), //nolint:gosec // turn counts stay far below int32
	}); err != nil {
		return fmt.Errorf("upserting transcript %s: %w", sess.ID, err)
	}

	s.logger.Info("transcript persisted", "session_id", sess.ID, "turns", len(turns))
	return nil
}

// Get fetches one transcript by session ID.
func (s *Store) Get(ctx context.Context, sessionID uuid.UUID) (Transcript, error) {
	row, err := s.queries.GetTranscript(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transcript{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return Transcript{}, fmt.Errorf("getting transcript %s: %w", sessionID, err)
	}
	return rowToTranscript(row)
}

// List returns up to limit transcripts, most recently updated first.
func (s *Store) List(ctx context.Context, limit int32) ([]Transcript, error) {
	rows, err := s.queries.ListTranscripts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}

	out := make([]Transcript, 0, len(rows))
	for _, row := range rows {
		tr, err := rowToTranscript(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func rowToTranscript(row TranscriptRow) (Transcript, error) {
	var turns []session.Turn
	if err := json.Unmarshal(row.Turns, &turns); err != nil {
		return Transcript{}, fmt.Errorf("unmarshaling turns for %s: %w", row.SessionID, err)
	}
	return Transcript{
		SessionID: row.SessionID,
		Turns:     turns,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
