package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/comigor/ideavault/internal/logger"
)

type pageData struct {
	PageTitle   string
	Heading     string
	About       template.HTML
	Banner      string
	Placeholder string
	Welcome     bool
	Messages    []messageView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	data := pageData{
		PageTitle:   pageTitle,
		Heading:     heading,
		About:       s.about,
		Banner:      banner,
		Placeholder: placeholder,
		Welcome:     sess.Fresh(),
		Messages:    s.views(sess.Visible()),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		logger.L.Error("failed to render page", "session_id", sess.ID, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	JSON(w, http.StatusOK, s.views(sess.Visible()))
}

// handleSubmissions returns what the store holds for the caller's session.
func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	subs, err := s.agent.Submissions(r.Context(), sess.ID)
	if err != nil {
		logger.L.Warn("failed to read submissions", "session_id", sess.ID, "error", err)
		Error(w, http.StatusServiceUnavailable, "submissions store unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "submissions": subs})
}
