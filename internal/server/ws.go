package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/comigor/ideavault/internal/agent"
	"github.com/comigor/ideavault/internal/logger"
)

// wsFrame is every server to client message on /ws/chat.
type wsFrame struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Error string     `json:"error,omitempty"`
	Done  *doneEvent `json:"done,omitempty"`
}

// handleWebSocket serves the chat over a websocket. Each {"content"} frame
// from the client is one submission; the connection carries any number of
// them in sequence.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.L.Error("failed to accept websocket", "session_id", sess.ID, "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "bye"); closeErr != nil {
			logger.L.Debug("failed to close websocket", "session_id", sess.ID, "error", closeErr)
		}
	}()

	ctx := r.Context()
	for {
		var req chatRequest
		if err := wsjson.Read(ctx, ws, &req); err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.L.Debug("websocket closed by client", "session_id", sess.ID)
			} else {
				logger.L.Warn("websocket read error", "session_id", sess.ID, "error", err)
			}
			return
		}

		emit := agent.EmitterFunc(func(text string) error {
			return wsjson.Write(ctx, ws, wsFrame{Type: "fragment", Text: text})
		})

		turn, err := s.agent.Submit(ctx, sess, req.Content, emit)
		if err != nil {
			_, message := submitErrorStatus(err)
			if !s.writeFrame(ctx, ws, wsFrame{Type: "error", Error: message}) {
				return
			}
			continue
		}
		if turn.Interrupted {
			return
		}

		done := s.done(turn)
		if !s.writeFrame(ctx, ws, wsFrame{Type: "done", Done: &done}) {
			return
		}
	}
}

func (s *Server) writeFrame(ctx context.Context, ws *websocket.Conn, frame wsFrame) bool {
	if err := wsjson.Write(ctx, ws, frame); err != nil {
		logger.L.Warn("websocket write error", "type", frame.Type, "error", err)
		return false
	}
	return true
}
