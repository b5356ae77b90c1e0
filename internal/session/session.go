// Package session holds the in-memory state of one browser visit: its
// identifier and the ordered conversation that is sent to the model.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
)

// Role tags a message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn states and triggers. A session accepts one submission at a time.
const (
	StateIdle      = "Idle"
	StateStreaming = "Streaming"

	triggerSubmit = "Submit"
	triggerFinish = "Finish"
)

// ErrBusy is returned by Begin while a previous submission is still streaming.
var ErrBusy = errors.New("session is busy with another submission")

type Session struct {
	ID string

	mu       sync.Mutex
	messages []Message
	lastSeen time.Time
	turn     *stateless.StateMachine
}

// New creates a session with a fresh UUID whose history starts with the
// system prompt.
func New(systemPrompt string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		messages: []Message{{Role: RoleSystem, Content: systemPrompt}},
		lastSeen: time.Now(),
	}

	turn := stateless.NewStateMachine(StateIdle)
	turn.Configure(StateIdle).
		Permit(triggerSubmit, StateStreaming)
	turn.Configure(StateStreaming).
		Permit(triggerFinish, StateIdle)
	s.turn = turn

	return s
}

// Append adds a message to the end of the history.
func (s *Session) Append(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content})
	s.lastSeen = time.Now()
}

// Messages returns a copy of the full history, system prompt included.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Visible returns the history without system messages.
func (s *Session) Visible() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Fresh reports whether nothing but the system prompt has been said yet.
func (s *Session) Fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) == 1
}

// Begin moves the session into the streaming state. It fails with ErrBusy if
// a submission is already in flight.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.turn.CanFireCtx(ctx, triggerSubmit)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBusy
	}
	s.lastSeen = time.Now()
	return s.turn.FireCtx(ctx, triggerSubmit)
}

// End returns the session to idle once a submission has been finalized.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.turn.FireCtx(ctx, triggerFinish)
}

// State reports the current turn state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, _ := s.turn.MustState().(string)
	return state
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// activity returns when the session was last used and whether a turn is in
// flight.
func (s *Session) activity() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, _ := s.turn.MustState().(string)
	return s.lastSeen, state == StateStreaming
}
