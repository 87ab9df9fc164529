package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/strictqa/strictqa/internal/pipeline"
	"github.com/strictqa/strictqa/internal/session"
	"github.com/strictqa/strictqa/internal/transcript"
)

// maxInputBytes caps a single turn's input body.
const maxInputBytes = 64 * 1024

// Conversations is the slice of the pipeline the API exposes.
type Conversations interface {
	StartSession() uuid.UUID
	HandleTurn(ctx context.Context, id uuid.UUID, input string) (pipeline.Result, error)
}

// TranscriptReader reads persisted transcripts.
type TranscriptReader interface {
	Get(ctx context.Context, sessionID uuid.UUID) (transcript.Transcript, error)
	List(ctx context.Context, limit int32) ([]transcript.Transcript, error)
}

type conversationHandler struct {
	conversations Conversations
	logger        *slog.Logger
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// createSession handles POST /api/v1/sessions.
func (h *conversationHandler) createSession(w http.ResponseWriter, r *http.Request) {
	id := h.conversations.StartSession()
	WriteJSON(w, http.StatusCreated, createSessionResponse{SessionID: id.String()})
}

type turnRequest struct {
	Input string `json:"input"`
}

type turnResponse struct {
	Answer  string `json:"answer"`
	Closed  bool   `json:"closed"`
	Skipped bool   `json:"skipped"`
}

// postTurn handles POST /api/v1/sessions/{id}/turns.
func (h *conversationHandler) postTurn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_session_id", "session ID must be a UUID", h.logger)
		return
	}

	var req turnRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxInputBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with an input field", h.logger)
		return
	}

	res, err := h.conversations.HandleTurn(r.Context(), id, req.Input)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			WriteError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		case errors.Is(err, session.ErrClosed):
			WriteError(w, http.StatusConflict, "session_closed", "session is closed", h.logger)
		default:
			h.logger.Error("turn failed", "session_id", id, "error", err)
			WriteError(w, http.StatusBadGateway, "turn_failed", "could not complete the turn", h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, turnResponse{
		Answer:  res.Answer,
		Closed:  res.Closed,
		Skipped: res.Skipped,
	})
}

type transcriptHandler struct {
	transcripts TranscriptReader
	logger      *slog.Logger
}

type transcriptTurn struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type transcriptResponse struct {
	SessionID string           `json:"session_id"`
	Turns     []transcriptTurn `json:"turns"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func toTranscriptResponse(tr transcript.Transcript) transcriptResponse {
	turns := make([]transcriptTurn, 0, len(tr.Turns))
	for _, t := range tr.Turns {
		turns = append(turns, transcriptTurn{
			Query:     t.Query,
			Answer:    t.Answer,
			CreatedAt: t.CreatedAt,
		})
	}
	return transcriptResponse{
		SessionID: tr.SessionID.String(),
		Turns:     turns,
		CreatedAt: tr.CreatedAt,
		UpdatedAt: tr.UpdatedAt,
	}
}

// listTranscripts handles GET /api/v1/transcripts.
func (h *transcriptHandler) listTranscripts(w http.ResponseWriter, r *http.Request) {
	limit := int32(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 || n > 500 {
			WriteError(w, http.StatusBadRequest, "invalid_limit", "limit must be 1..500", h.logger)
			return
		}
		limit = int32(n)
	}

	transcripts, err := h.transcripts.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing transcripts", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "could not list transcripts", h.logger)
		return
	}

	out := make([]transcriptResponse, 0, len(transcripts))
	for _, tr := range transcripts {
		out = append(out, toTranscriptResponse(tr))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"transcripts": out})
}

// getTranscript handles GET /api/v1/transcripts/{id}.
func (h *transcriptHandler) getTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_session_id", "session ID must be a UUID", h.logger)
		return
	}

	tr, err := h.transcripts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "transcript_not_found", "no transcript for that session", h.logger)
			return
		}
		h.logger.Error("getting transcript", "session_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "get_failed", "could not load transcript", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, toTranscriptResponse(tr))
}
