package session

import "errors"

var (
	// ErrNotFound indicates the session ID is unknown to the store.
	ErrNotFound = errors.New("session not found")

	// ErrClosed indicates the session has already been closed and
	// accepts no further turns.
	ErrClosed = errors.New("session is closed")
)
