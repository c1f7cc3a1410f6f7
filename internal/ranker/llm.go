package ranker

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LLMCompleter implements Completer against an OpenAI-compatible chat
// completion API.
type LLMCompleter struct {
	client llms.Model
}

// NewLLMCompleter creates a completer for the given endpoint and model.
// A blank token fails with ErrNotConfigured so callers can tell a missing
// credential apart from a broken service.
func NewLLMCompleter(baseURL, model, token string) (*LLMCompleter, error) {
	if token == "" {
		return nil, ErrNotConfigured
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return &LLMCompleter{client: client}, nil
}

// Complete sends the instruction block as a single user message and returns
// the model's text verbatim. Temperature is pinned to zero; ranking should be
// as deterministic as the service allows.
func (c *LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	resp, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in model response")
	}
	return resp.Choices[0].Content, nil
}
