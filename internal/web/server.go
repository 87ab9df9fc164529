// Package web serves a minimal browser front end: one form, one
// conversation per browser via an sid cookie, full page reloads.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/strictqa/strictqa/internal/pipeline"
	"github.com/strictqa/strictqa/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionCookie = "sid"

// Conversations is the slice of the pipeline the web UI needs.
type Conversations interface {
	StartSession() uuid.UUID
	HandleTurn(ctx context.Context, id uuid.UUID, input string) (pipeline.Result, error)
	Snapshot(id uuid.UUID) (session.Session, error)
}

// Server renders the chat form and relays turns to the pipeline.
type Server struct {
	conversations Conversations
	tmpl          *template.Template
	logger        *slog.Logger
	mux           *http.ServeMux
}

// NewServer creates the web server.
func NewServer(conversations Conversations, logger *slog.Logger) (*Server, error) {
	if conversations == nil {
		return nil, errors.New("conversations are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		conversations: conversations,
		tmpl:          tmpl,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.index)
	s.mux.HandleFunc("POST /chat", s.chat)
	return s, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type turnView struct {
	Query  string
	Answer string
}

type pageView struct {
	Turns  []turnView
	Closed bool
	Error  string
}

// index renders the conversation bound to the sid cookie, creating a
// fresh session on first visit.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	id, fresh := s.sessionID(w, r)

	view := pageView{Closed: r.URL.Query().Get("closed") == "1"}
	if !fresh {
		snap, err := s.conversations.Snapshot(id)
		switch {
		case errors.Is(err, session.ErrNotFound):
			// Session closed or expired; start over.
			id = s.newSession(w)
		case err != nil:
			s.logger.Error("loading session", "session_id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		case snap.Closed:
			// Closed elsewhere (another tab); start over.
			id = s.newSession(w)
		default:
			for _, t := range snap.Turns {
				view.Turns = append(view.Turns, turnView{Query: t.Query, Answer: t.Answer})
			}
		}
	}
	if r.URL.Query().Get("error") == "1" {
		view.Error = "The question could not be answered. Please try again."
	}

	s.render(w, view)
}

// chat handles one form submission, then redirects back to the form so
// a refresh never resubmits the question.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	id, _ := s.sessionID(w, r)

	input := r.FormValue("input")
	res, err := s.conversations.HandleTurn(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrClosed) {
			s.clearCookie(w)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.logger.Error("turn failed", "session_id", id, "error", err)
		http.Redirect(w, r, "/?error=1", http.StatusSeeOther)
		return
	}

	if res.Closed {
		s.clearCookie(w)
		http.Redirect(w, r, "/?closed=1", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", view); err != nil {
		s.logger.Error("rendering template", "error", err)
	}
}

// sessionID returns the session bound to the sid cookie, creating one
// when missing or malformed. fresh reports a newly created session.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id, false
		}
	}
	return s.newSession(w), true
}

func (s *Server) newSession(w http.ResponseWriter) uuid.UUID {
	id := s.conversations.StartSession()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
