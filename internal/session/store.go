package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory, keyed by session ID.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Create registers a new open session and returns its ID.
func (s *Store) Create() uuid.UUID {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.ID
}

// Ensure returns a snapshot of the session, creating an open one under
// the given ID when none exists. Closed sessions are returned as-is so
// callers can reject the submission instead of silently reopening.
func (s *Store) Ensure(id uuid.UUID) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		now := time.Now().UTC()
		sess = &Session{ID: id, CreatedAt: now, UpdatedAt: now}
		s.sessions[id] = sess
	}

	cp := *sess
	cp.Turns = make([]Turn, len(sess.Turns))
	copy(cp.Turns, sess.Turns)
	return cp
}

// Snapshot returns a copy of the session, including a copied turn slice,
// so callers can read it without holding the store lock.
func (s *Store) Snapshot(id uuid.UUID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	cp := *sess
	cp.Turns = make([]Turn, len(sess.Turns))
	copy(cp.Turns, sess.Turns)
	return cp, nil
}

// Append adds one turn to an open session. Turns are append-only and
// keep arrival order.
func (s *Store) Append(id uuid.UUID, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Closed {
		return ErrClosed
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	sess.Turns = append(sess.Turns, turn)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// Retire closes the session and releases its turn history. The closed
// marker stays in memory so a later submission under the same ID fails
// with ErrClosed instead of reopening. Call after the transcript has
// been persisted. Retiring twice returns ErrClosed.
func (s *Store) Retire(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Closed {
		return ErrClosed
	}

	sess.Closed = true
	sess.Turns = nil
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
