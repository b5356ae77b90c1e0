package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/comigor/ideavault/internal/session"
	"github.com/sashabaranov/go-openai"
)

// Completer turns a conversation into a stream of text fragments.
type Completer struct {
	client Client
}

func NewCompleter(client Client) *Completer {
	return &Completer{client: client}
}

// Complete sends the whole history to the model and yields the response as it
// arrives. The sequence ends when the service closes the stream; joining the
// fragments gives the full reply. A failure is yielded once as a non-nil
// error and ends the sequence. Breaking out of the loop or cancelling ctx
// closes the HTTP stream. The sequence can be ranged over only once.
func (c *Completer) Complete(ctx context.Context, model string, messages []session.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: toOpenAI(messages),
			Stream:   true,
		})
		if err != nil {
			yield("", fmt.Errorf("open completion stream: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read completion stream: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func toOpenAI(messages []session.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
