// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"net/http"

	"github.com/comigor/ideavault/internal/config"
	"github.com/sashabaranov/go-openai"
)

// Client is the part of *openai.Client that Completer uses. Tests point a
// real client at an httptest server instead of mocking it.
type Client interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

var _ Client = (*openai.Client)(nil)

// NewClient builds a go-openai client. BaseURL switches to any compatible
// server; Timeout bounds a whole streamed reply, not just the first byte.
func NewClient(cfg config.LLMConfig) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(oc)
}
