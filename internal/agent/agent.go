package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/history"
	"github.com/comigor/ideavault/internal/llm"
	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/session"
)

// Completer streams a model reply for a conversation. llm.Completer is the
// production implementation.
type Completer interface {
	Complete(ctx context.Context, model string, messages []session.Message) iter.Seq2[string, error]
}

// Emitter receives reply fragments while they stream. A non-nil error means
// the reader is gone and streaming should stop.
type Emitter interface {
	Fragment(text string) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(text string) error

func (f EmitterFunc) Fragment(text string) error { return f(text) }

var ErrEmptyMessage = errors.New("message is empty")

var _ Completer = (*llm.Completer)(nil)

type Agent struct {
	completer Completer
	sink      history.Sink
	model     string
}

func New(completer Completer, sink history.Sink, cfg config.LLMConfig) *Agent {
	return &Agent{
		completer: completer,
		sink:      sink,
		model:     cfg.Model,
	}
}

// Turn is the outcome of one submission.
type Turn struct {
	User session.Message
	// Reply is the zero Message when the completion failed before any text
	// arrived.
	Reply     session.Message
	FollowUps []session.Message
	// Failed is set when the completion ended in an error; Kind and Err say
	// why. Text received before the failure is still in Reply.
	Failed bool
	Kind   llm.Kind
	Err    error
	// Interrupted is set when the emitter stopped accepting fragments.
	Interrupted bool
}

// Submit runs one submission cycle on sess: append and record the user
// message, stream the completion for the whole history through emit, then
// append and record the reply and, for structured ideas, the follow-up
// notice. Recording failures are logged and never fail the turn.
//
// Submit returns session.ErrBusy if sess is already handling a submission
// and ErrEmptyMessage for blank input; every other failure is reported in
// the Turn.
func (a *Agent) Submit(ctx context.Context, sess *session.Session, content string, emit Emitter) (*Turn, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	if err := sess.Begin(ctx); err != nil {
		return nil, err
	}
	// persistence and bookkeeping must finish even if the browser went away
	bg := context.WithoutCancel(ctx)
	defer func() {
		if err := sess.End(bg); err != nil {
			logger.L.Error("failed to end turn", "session_id", sess.ID, "error", err)
		}
	}()

	turn := &Turn{User: session.Message{Role: session.RoleUser, Content: content}}
	sess.Append(session.RoleUser, content)
	a.record(bg, sess.ID, turn.User)

	var reply strings.Builder
	for fragment, err := range a.completer.Complete(ctx, a.model, sess.Messages()) {
		if err != nil {
			turn.Failed = true
			turn.Kind = llm.Classify(err)
			turn.Err = err
			logger.L.Error(turn.Kind.Describe(), "session_id", sess.ID, "kind", string(turn.Kind), "error", err)
			break
		}
		reply.WriteString(fragment)
		if emit == nil || fragment == "" {
			continue
		}
		if err := emit.Fragment(fragment); err != nil {
			turn.Interrupted = true
			logger.L.Warn("stopped streaming reply", "session_id", sess.ID, "error", err)
			break
		}
	}

	if reply.Len() == 0 && turn.Failed {
		return turn, nil
	}

	turn.Reply = session.Message{Role: session.RoleAssistant, Content: reply.String()}
	sess.Append(turn.Reply.Role, turn.Reply.Content)
	a.record(bg, sess.ID, turn.Reply)

	if NeedsFollowUp(turn.Reply.Content) {
		followUp := session.Message{Role: session.RoleAssistant, Content: FollowUpMessage}
		sess.Append(followUp.Role, followUp.Content)
		a.record(bg, sess.ID, followUp)
		turn.FollowUps = append(turn.FollowUps, followUp)
	}

	logger.L.Debug("turn finished",
		"session_id", sess.ID,
		"reply_length", len(turn.Reply.Content),
		"follow_ups", len(turn.FollowUps),
		"failed", turn.Failed,
	)
	return turn, nil
}

func (a *Agent) record(ctx context.Context, sessionID string, msg session.Message) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(ctx, sessionID, msg.Role, msg.Content); err != nil {
		logger.L.Warn("failed to record message", "session_id", sessionID, "role", string(msg.Role), "error", err)
	}
}

// Submissions reads back what the sink holds for a session.
func (a *Agent) Submissions(ctx context.Context, sessionID string) ([]history.Submission, error) {
	if a.sink == nil {
		return nil, nil
	}
	subs, err := a.sink.Submissions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	return subs, nil
}
