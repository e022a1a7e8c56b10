// Package anthropic implements the generation backend on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/provider"
)

// Name identifies the provider in logs and errors.
const Name = "anthropic"

const defaultModel = "claude-haiku-4-5"

// Client sends prompts to Claude.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// NewClient creates a Client. An empty baseURL uses the public endpoint.
func NewClient(logger *slog.Logger, apiKey, baseURL, model string, maxTokens int) (*Client, error) {
	if apiKey == "" {
		return nil, domain.NewGenerationError(Name, domain.ErrConfiguration, fmt.Errorf("api key is not set"))
	}
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		log:       logger.With("adapter", Name),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Complete sends the prompt and returns the JSON object found in the reply.
func (c *Client) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	c.log.DebugContext(ctx, "anthropic request", slog.String("word", prompt.Word), slog.String("model", c.model))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User + "\n\nOutput ONLY the JSON, no markdown, no explanations.")),
		},
	})
	if err != nil {
		c.log.ErrorContext(ctx, "anthropic request failed", slog.String("word", prompt.Word), slog.String("error", err.Error()))
		return "", domain.NewGenerationError(Name, domain.ErrTransport, fmt.Errorf("llm api call for %q: %w", prompt.Word, err))
	}

	if len(msg.Content) == 0 {
		return "", domain.NewGenerationError(Name, domain.ErrMalformedResponse, fmt.Errorf("empty response for %q", prompt.Word))
	}

	jsonStr, err := provider.ExtractJSON(msg.Content[0].Text)
	if err != nil {
		return "", domain.NewGenerationError(Name, domain.ErrMalformedResponse, fmt.Errorf("extract json from response for %q: %w", prompt.Word, err))
	}
	return jsonStr, nil
}
