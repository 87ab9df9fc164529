// Package api exposes the question-answering pipeline over a JSON HTTP
// interface: session creation, turn submission, and transcript reads.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Conversations Conversations    // Required
	Transcripts   TranscriptReader // Optional: nil disables transcript routes
	Pool          *pgxpool.Pool    // Optional: nil disables pool stats in /ready
	CORSOrigins   []string
	TrustProxy    bool // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst     int  // Rate limiter burst per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Conversations == nil {
		return nil, errors.New("conversations are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &conversationHandler{conversations: cfg.Conversations, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sessions", ch.createSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/turns", ch.postTurn)

	if cfg.Transcripts != nil {
		th := &transcriptHandler{transcripts: cfg.Transcripts, logger: logger}
		mux.HandleFunc("GET /api/v1/transcripts", th.listTranscripts)
		mux.HandleFunc("GET /api/v1/transcripts/{id}", th.getTranscript)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID precedes Logging so request_id shows in log attributes.
	// CORS precedes RateLimit so preflight OPTIONS gets CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
