// Package server is the browser-facing surface: the chat page, the streaming
// chat endpoints and the embedded assets.
package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/comigor/ideavault/internal/agent"
	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/session"
	"github.com/comigor/ideavault/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Server struct {
	sessions   *session.Registry
	agent      *agent.Agent
	cookieName string
	debug      bool

	page     *template.Template
	markdown goldmark.Markdown
	about    template.HTML
}

func New(cfg *config.Config, sessions *session.Registry, a *agent.Agent) (*Server, error) {
	page, err := template.ParseFS(web.Templates(), "index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	s := &Server{
		sessions:   sessions,
		agent:      a,
		cookieName: cfg.Session.CookieName,
		debug:      cfg.Server.Debug,
		page:       page,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	s.about = s.render(about)
	return s, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	assets := web.Assets()
	r.Handle("/static/*", assets)
	r.Handle("/icons/*", assets)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Get("/api/messages", s.handleMessages)
		r.Post("/api/chat", s.handleChat)
		r.Get("/ws/chat", s.handleWebSocket)

		if s.debug {
			r.Get("/api/debug/submissions", s.handleSubmissions)
		}
	})

	return r
}

// render turns message markdown into HTML. Raw HTML in the input is dropped
// by goldmark, so the result is safe to embed.
func (s *Server) render(markdown string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(markdown))
	}
	return template.HTML(buf.String())
}
