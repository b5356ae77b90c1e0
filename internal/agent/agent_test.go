package agent

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/comigor/ideavault/internal/config"
	"github.com/comigor/ideavault/internal/history"
	"github.com/comigor/ideavault/internal/llm"
	"github.com/comigor/ideavault/internal/logger"
	"github.com/comigor/ideavault/internal/session"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// mockCompleter yields the configured fragments, then err if set.
type mockCompleter struct {
	fragments []string
	err       error

	mu   sync.Mutex
	seen [][]session.Message
}

func (m *mockCompleter) Complete(_ context.Context, model string, messages []session.Message) iter.Seq2[string, error] {
	m.mu.Lock()
	m.seen = append(m.seen, messages)
	m.mu.Unlock()
	return func(yield func(string, error) bool) {
		for _, f := range m.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if m.err != nil {
			yield("", m.err)
		}
	}
}

// failingSink is a store that is always down.
type failingSink struct{ calls int }

func (f *failingSink) EnsureSchema(context.Context) error { return errors.New("connection refused") }
func (f *failingSink) Record(context.Context, string, session.Role, string) error {
	f.calls++
	return errors.New("connection refused")
}
func (f *failingSink) Submissions(context.Context, string) ([]history.Submission, error) {
	return nil, errors.New("connection refused")
}
func (f *failingSink) Close() error { return nil }

func newAgent(c Completer, sink history.Sink) *Agent {
	return New(c, sink, config.LLMConfig{Model: "gpt-4"})
}

func collect(out *[]string) Emitter {
	return EmitterFunc(func(text string) error {
		*out = append(*out, text)
		return nil
	})
}

func TestSubmit_GreetingWithoutFollowUp(t *testing.T) {
	sink := history.NewMemoryStore()
	completer := &mockCompleter{fragments: []string{"Hi! ", "What idea do you have?"}}
	a := newAgent(completer, sink)
	sess := session.New(SystemPrompt)

	var streamed []string
	turn, err := a.Submit(context.Background(), sess, "Hello there", collect(&streamed))
	require.NoError(t, err)

	require.Equal(t, []string{"Hi! ", "What idea do you have?"}, streamed)
	require.Equal(t, "Hi! What idea do you have?", turn.Reply.Content)
	require.Empty(t, turn.FollowUps)
	require.False(t, turn.Failed)

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, session.RoleSystem, msgs[0].Role)
	require.Equal(t, session.Message{Role: session.RoleUser, Content: "Hello there"}, msgs[1])
	require.Equal(t, session.RoleAssistant, msgs[2].Role)
	require.Equal(t, session.StateIdle, sess.State())

	subs, err := a.Submissions(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
}

func TestSubmit_SendsWholeHistory(t *testing.T) {
	completer := &mockCompleter{fragments: []string{"ok"}}
	a := newAgent(completer, nil)
	sess := session.New(SystemPrompt)

	_, err := a.Submit(context.Background(), sess, "first", nil)
	require.NoError(t, err)
	_, err = a.Submit(context.Background(), sess, "second", nil)
	require.NoError(t, err)

	require.Len(t, completer.seen, 2)
	last := completer.seen[1]
	require.Len(t, last, 4)
	require.Equal(t, SystemPrompt, last[0].Content)
	require.Equal(t, "second", last[3].Content)
}

func TestSubmit_StructuredIdeaAppendsOneFollowUp(t *testing.T) {
	sink := history.NewMemoryStore()
	completer := &mockCompleter{fragments: []string{"Title: X\n\n", "Topics: Y\n\n", "Elaboration: Z"}}
	a := newAgent(completer, sink)
	sess := session.New(SystemPrompt)

	turn, err := a.Submit(context.Background(), sess, "Use AI to map flood risk for renters", nil)
	require.NoError(t, err)
	require.Equal(t, "Title: X\n\nTopics: Y\n\nElaboration: Z", turn.Reply.Content)
	require.Len(t, turn.FollowUps, 1)

	msgs := sess.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, turn.Reply, msgs[2])
	require.Equal(t, session.Message{Role: session.RoleAssistant, Content: FollowUpMessage}, msgs[3])

	subs, err := sink.Submissions(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	require.Equal(t, FollowUpMessage, subs[2].Content)
}

func TestSubmit_StoreDownKeepsConversation(t *testing.T) {
	sink := &failingSink{}
	a := newAgent(&mockCompleter{fragments: []string{"Title: A ", "Topics: B ", "Elaboration: C"}}, sink)
	sess := session.New(SystemPrompt)

	turn, err := a.Submit(context.Background(), sess, "Hello there", nil)
	require.NoError(t, err)
	require.False(t, turn.Failed)
	require.Equal(t, 3, sink.calls)

	visible := sess.Visible()
	require.Len(t, visible, 3)
	require.Equal(t, session.RoleUser, visible[0].Role)
	require.Equal(t, "Title: A Topics: B Elaboration: C", visible[1].Content)
	require.Equal(t, FollowUpMessage, visible[2].Content)
}

func TestSubmit_CompletionFailureAppendsNoReply(t *testing.T) {
	sink := history.NewMemoryStore()
	apiErr := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	a := newAgent(&mockCompleter{err: apiErr}, sink)
	sess := session.New(SystemPrompt)

	turn, err := a.Submit(context.Background(), sess, "an idea", nil)
	require.NoError(t, err)
	require.True(t, turn.Failed)
	require.Equal(t, llm.KindRateLimit, turn.Kind)
	require.ErrorIs(t, turn.Err, apiErr)
	require.Equal(t, session.Message{}, turn.Reply)

	msgs := sess.Messages()
	require.Len(t, msgs, 2, "only the system prompt and the user message")
	subs, err := sink.Submissions(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, session.StateIdle, sess.State())
}

func TestSubmit_PartialReplyKeptOnFailure(t *testing.T) {
	a := newAgent(&mockCompleter{fragments: []string{"Title: half"}, err: context.DeadlineExceeded}, nil)
	sess := session.New(SystemPrompt)

	turn, err := a.Submit(context.Background(), sess, "an idea", nil)
	require.NoError(t, err)
	require.True(t, turn.Failed)
	require.Equal(t, llm.KindTimeout, turn.Kind)
	require.Equal(t, "Title: half", turn.Reply.Content)
	require.Len(t, sess.Messages(), 3)
}

func TestSubmit_EmitterGoneStopsStreaming(t *testing.T) {
	a := newAgent(&mockCompleter{fragments: []string{"one ", "two ", "three"}}, nil)
	sess := session.New(SystemPrompt)

	calls := 0
	emit := EmitterFunc(func(string) error {
		calls++
		if calls == 2 {
			return errors.New("broken pipe")
		}
		return nil
	})

	turn, err := a.Submit(context.Background(), sess, "idea", emit)
	require.NoError(t, err)
	require.True(t, turn.Interrupted)
	require.Equal(t, "one two ", turn.Reply.Content)
}

func TestSubmit_RejectsEmptyAndBusy(t *testing.T) {
	a := newAgent(&mockCompleter{}, nil)
	sess := session.New(SystemPrompt)

	_, err := a.Submit(context.Background(), sess, "   ", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	require.NoError(t, sess.Begin(context.Background()))
	_, err = a.Submit(context.Background(), sess, "idea", nil)
	require.ErrorIs(t, err, session.ErrBusy)
	require.Len(t, sess.Messages(), 1)
}

func TestNeedsFollowUp(t *testing.T) {
	cases := []struct {
		response string
		want     bool
	}{
		{"Title: X\n\nTopics: Y\n\nElaboration: Z", true},
		{"Elaboration: Z Topics: Y Title: X", true},
		{"prefix Title: a, Topics: b, Elaboration: c suffix", true},
		{"Title: X\n\nTopics: Y", false},
		{"Title:X Topics:Y Elaboration:Z", false},
		{"title: x topics: y elaboration: z", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NeedsFollowUp(tc.response), "response %q", tc.response)
	}
}
