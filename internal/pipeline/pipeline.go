// Package pipeline orchestrates a conversation turn end to end:
// retrieval, answer generation, session accumulation, and transcript
// persistence at close.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strictqa/strictqa/internal/passage"
	"github.com/strictqa/strictqa/internal/session"
)

// ClosingAck is the fixed farewell appended as the final turn of a
// keyword-terminated session.
const ClosingAck = "Thank you for using the chatbot. Session ended."

// terminationKeywords close the session when a trimmed input matches
// one case-insensitively.
var terminationKeywords = map[string]struct{}{
	"exit": {},
	"quit": {},
	"end":  {},
	"bye":  {},
}

// IsTerminationKeyword reports whether input, trimmed and lowercased,
// is a session-ending keyword.
func IsTerminationKeyword(input string) bool {
	_, ok := terminationKeywords[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

// Retriever fetches candidate passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []passage.Result
}

// Generator produces an answer constrained to the given passages.
type Generator interface {
	Answer(ctx context.Context, query string, passages []passage.Result) (string, error)
}

// TranscriptWriter persists a finished session.
type TranscriptWriter interface {
	Save(ctx context.Context, sess session.Session) error
}

// Result is the outcome of one handled input.
type Result struct {
	// Answer is the text to show the user. Empty when Skipped.
	Answer string
	// Closed reports that this input ended the session.
	Closed bool
	// Skipped reports that the input was blank and ignored.
	Skipped bool
}

// Config holds pipeline tunables.
type Config struct {
	// TurnTimeout bounds retrieval plus generation for one turn.
	TurnTimeout time.Duration
}

func (c Config) validate() error {
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive, got %s", c.TurnTimeout)
	}
	return nil
}

// Pipeline coordinates sessions, retrieval, generation, and persistence.
// Turns within one session are serialized; distinct sessions proceed
// concurrently.
type Pipeline struct {
	sessions    *session.Store
	retriever   Retriever
	generator   Generator
	transcripts TranscriptWriter
	cfg         Config
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(sessions *session.Store, retriever Retriever, generator Generator,
	transcripts TranscriptWriter, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sessions:    sessions,
		retriever:   retriever,
		generator:   generator,
		transcripts: transcripts,
		cfg:         cfg,
		logger:      logger,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// StartSession opens a new conversation and returns its ID.
func (p *Pipeline) StartSession() uuid.UUID {
	id := p.sessions.Create()
	p.logger.Info("session started", "session_id", id)
	return id
}

// Snapshot returns a copy of the session state.
func (p *Pipeline) Snapshot(id uuid.UUID) (session.Session, error) {
	return p.sessions.Snapshot(id)
}

// HandleTurn processes one user input for the session. An unknown
// session ID lazily opens a session under that ID; a previously closed
// ID fails with session.ErrClosed.
//
// Blank input is ignored. A termination keyword appends the closing
// acknowledgment, persists the transcript, and closes the session.
// Anything else is answered from retrieved passages; the fixed refusal
// is returned when nothing was retrieved. Generation failure leaves
// the session unchanged and propagates.
func (p *Pipeline) HandleTurn(ctx context.Context, id uuid.UUID, input string) (Result, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Result{Skipped: true}, nil
	}

	lock := p.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	snap := p.sessions.Ensure(id)
	if snap.Closed {
		return Result{}, session.ErrClosed
	}

	if IsTerminationKeyword(trimmed) {
		if err := p.closeLocked(ctx, snap, trimmed); err != nil {
			return Result{}, err
		}
		return Result{Answer: ClosingAck, Closed: true}, nil
	}

	turnCtx, cancel := context.WithTimeout(ctx, p.cfg.TurnTimeout)
	defer cancel()

	passages := p.retriever.Retrieve(turnCtx, trimmed)

	answerText, err := p.generator.Answer(turnCtx, trimmed, passages)
	if err != nil {
		// The turn is not recorded; the session stays usable.
		return Result{}, fmt.Errorf("turn failed for session %s: %w", id, err)
	}

	if err := p.sessions.Append(id, session.Turn{Query: trimmed, Answer: answerText}); err != nil {
		return Result{}, err
	}

	p.logger.Debug("turn completed",
		"session_id", id, "passages", len(passages), "turn", snap.TurnCount()+1)
	return Result{Answer: answerText}, nil
}

// CloseSession persists and closes the session without a farewell turn.
// Used when a shell shuts down with the conversation still open.
// Safe to retry after a persistence failure.
func (p *Pipeline) CloseSession(ctx context.Context, id uuid.UUID) error {
	lock := p.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	snap, err := p.sessions.Snapshot(id)
	if err != nil {
		return err
	}
	if snap.Closed {
		return session.ErrClosed
	}
	return p.closeLocked(ctx, snap, "")
}

// closeLocked persists the transcript and retires the session. The
// farewell turn is added to the persisted snapshot before the write, so
// a failed write leaves the in-memory session untouched and the whole
// close retryable.
func (p *Pipeline) closeLocked(ctx context.Context, snap session.Session, closingQuery string) error {
	if closingQuery != "" {
		snap.Turns = append(snap.Turns, session.Turn{
			Query:     closingQuery,
			Answer:    ClosingAck,
			CreatedAt: time.Now().UTC(),
		})
	}

	// The persistence write is bounded like any other external call; a
	// stalled store fails the close instead of holding the session lock.
	saveCtx, cancel := context.WithTimeout(ctx, p.cfg.TurnTimeout)
	defer cancel()
	if err := p.transcripts.Save(saveCtx, snap); err != nil {
		return fmt.Errorf("persisting transcript for session %s: %w", snap.ID, err)
	}

	if err := p.sessions.Retire(snap.ID); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.locks, snap.ID)
	p.mu.Unlock()

	p.logger.Info("session closed", "session_id", snap.ID, "turns", len(snap.Turns))
	return nil
}

func (p *Pipeline) sessionLock(id uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}
