package server

import (
	"context"
	"net/http"
	"time"

	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/session"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey int

const sessionKey contextKey = iota

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// withSession attaches the caller's session to the request context. A missing
// or expired cookie starts a new session; the cookie has no expiry so it lives
// as long as the browser tab does.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if c, err := r.Cookie(s.cookieName); err == nil {
			sess, _ = s.sessions.Get(c.Value)
		}
		if sess == nil {
			sess = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			logger.L.Info("session started", "session_id", sess.ID, "ip", r.RemoteAddr)
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.L.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
