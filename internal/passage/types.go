// Package passage provides the vector-indexed passage corpus.
//
// Passages are the only material an answer may draw from. The store
// embeds text with the configured embedder and searches PostgreSQL with
// pgvector cosine distance.
package passage

import "time"

// Passage is one entry of the corpus.
type Passage struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// Result is a single search hit with its similarity score.
type Result struct {
	Passage    Passage
	Similarity float32 // cosine similarity (1 - distance)
}
