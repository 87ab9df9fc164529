// Package session holds in-memory conversation state.
//
// A session accumulates (query, answer) turns in order until it is closed.
// Turns are append-only: nothing ever rewrites or removes an earlier turn.
// Persistence of the finished transcript is the caller's concern.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one completed question/answer exchange.
type Turn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a single conversation. Fields are managed by Store; callers
// receive copies and must not share a *Session across goroutines.
type Session struct {
	ID        uuid.UUID
	Turns     []Turn
	Closed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnCount returns the number of accumulated turns.
func (s *Session) TurnCount() int {
	return len(s.Turns)
}
