package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/comigor/ideavault/internal/agent"
	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/session"
)

const maxMessageBytes = 64 << 10

type chatRequest struct {
	Content string `json:"content"`
}

type fragmentEvent struct {
	Text string `json:"text"`
}

// sseStream writes Server-Sent Events. Headers go out with the first event,
// so errors found before streaming starts can still get a status code.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseStream) Fragment(text string) error {
	return s.send("fragment", fragmentEvent{Text: text})
}

// handleChat runs one submission and streams the reply as it arrives.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	stream := &sseStream{w: w, flusher: flusher}

	turn, err := s.agent.Submit(r.Context(), sess, req.Content, stream)
	if err != nil {
		if stream.started {
			logger.L.Error("submission failed mid-stream", "session_id", sess.ID, "error", err)
			return
		}
		status, message := submitErrorStatus(err)
		Error(w, status, message)
		return
	}
	if turn.Interrupted {
		return
	}

	if err := stream.send("done", s.done(turn)); err != nil {
		logger.L.Warn("failed to write done event", "session_id", sess.ID, "error", err)
	}
}

func submitErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "a reply is still streaming"
	default:
		return http.StatusInternalServerError, "failed to submit message"
	}
}
