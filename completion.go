package popquiz

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Completer sends a prompt to a text-completion model and returns the raw
// reply. Failures wrap ErrUpstreamUnavailable. Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAICompleter talks to any OpenAI-compatible chat endpoint, including
// Ollama's /v1 API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a completer. An empty baseURL uses api.openai.com.
func NewOpenAICompleter(cfg LLMConfig) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Complete issues a single non-streaming completion. The deadline comes
// from ctx.
func (oc *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := oc.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: oc.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Stream: false,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response from %s", ErrUpstreamUnavailable, oc.model)
	}

	return resp.Choices[0].Message.Content, nil
}
