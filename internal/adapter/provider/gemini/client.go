// Package gemini implements the generation backend on the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/provider"
)

// Name identifies the provider in logs and errors.
const Name = "gemini"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client sends prompts to Gemini with a response schema attached.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int32
	opts      provider.Options
	log       *slog.Logger
}

// Option configures the client.
type Option func(*clientSettings)

type clientSettings struct {
	baseURL   string
	model     string
	maxTokens int32
	opts      provider.Options
}

// WithModel sets the model to use.
func WithModel(model string) Option {
	return func(s *clientSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *clientSettings) { s.baseURL = baseURL }
}

// WithMaxTokens caps the output length.
func WithMaxTokens(n int) Option {
	return func(s *clientSettings) { s.maxTokens = int32(n) }
}

// WithOptions selects which optional fields the response schema carries.
func WithOptions(opts provider.Options) Option {
	return func(s *clientSettings) { s.opts = opts }
}

// NewClient creates a Gemini client. A missing key is a configuration error.
func NewClient(ctx context.Context, logger *slog.Logger, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, domain.NewGenerationError(Name, domain.ErrConfiguration, fmt.Errorf("api key is not set"))
	}

	s := clientSettings{model: DefaultModel}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, domain.NewGenerationError(Name, domain.ErrConfiguration, fmt.Errorf("create client: %w", err))
	}

	return &Client{
		client:    genaiClient,
		model:     s.model,
		maxTokens: s.maxTokens,
		opts:      s.opts,
		log:       logger.With("adapter", Name),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

// Complete sends the prompt and returns the concatenated text parts.
func (c *Client) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	c.log.DebugContext(ctx, "gemini request", slog.String("word", prompt.Word), slog.String("model", c.model))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(prompt.Task, c.opts),
		MaxOutputTokens:   c.maxTokens,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.User), config)
	if err != nil {
		c.log.ErrorContext(ctx, "gemini request failed", slog.String("word", prompt.Word), slog.String("error", err.Error()))
		return "", domain.NewGenerationError(Name, domain.ErrTransport, err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return "", domain.NewGenerationError(Name, domain.ErrMalformedResponse, err)
	}
	return text, nil
}

// extractTextFromResponse extracts text from a generate content response.
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return b.String(), nil
}
