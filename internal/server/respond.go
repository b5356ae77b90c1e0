package server

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/comigor/ideavault/internal/agent"
	"github.com/comigor/ideavault/internal/session"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// messageView is a message as the page shows it.
type messageView struct {
	Role    session.Role  `json:"role"`
	Content string        `json:"content"`
	HTML    template.HTML `json:"html"`
	Avatar  string        `json:"avatar"`
}

func (s *Server) view(m session.Message) messageView {
	return messageView{
		Role:    m.Role,
		Content: m.Content,
		HTML:    s.render(m.Content),
		Avatar:  Avatar(m.Role, m.Content),
	}
}

func (s *Server) views(msgs []session.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.view(m))
	}
	return out
}

// doneEvent closes a streamed turn with the rendered messages.
type doneEvent struct {
	User      messageView   `json:"user"`
	Reply     *messageView  `json:"reply,omitempty"`
	FollowUps []messageView `json:"follow_ups"`
	Failed    bool          `json:"failed"`
	Kind      string        `json:"kind,omitempty"`
	Notice    string        `json:"notice,omitempty"`
}

func (s *Server) done(turn *agent.Turn) doneEvent {
	ev := doneEvent{
		User:      s.view(turn.User),
		FollowUps: s.views(turn.FollowUps),
		Failed:    turn.Failed,
		Kind:      string(turn.Kind),
	}
	if turn.Reply.Role != "" {
		reply := s.view(turn.Reply)
		ev.Reply = &reply
	}
	if turn.Failed {
		ev.Notice = failureNotice
	}
	return ev
}
