package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/provider"
)

// Name identifies the provider in logs and errors.
const Name = "groq"

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// Provider calls the Groq OpenAI-compatible chat completions endpoint.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider. An empty baseURL or model falls back to
// the Groq defaults.
func NewProvider(logger *slog.Logger, apiKey, baseURL, model string, maxTokens int) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{},
		log:        logger.With("adapter", Name),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return Name }

// Complete sends the prompt and returns the raw message content.
func (p *Provider) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	if p.apiKey == "" {
		return "", domain.NewGenerationError(Name, domain.ErrConfiguration, fmt.Errorf("api key is not set"))
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		MaxTokens:      p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("groq: encode request: %w", err)
	}

	p.log.DebugContext(ctx, "groq request", slog.String("word", prompt.Word), slog.String("model", p.model))

	resp, err := p.doWithRetry(ctx, body, prompt.Word)
	if err != nil {
		return "", domain.NewGenerationError(Name, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewGenerationError(Name, domain.ErrTransport, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		p.log.ErrorContext(ctx, "groq request failed",
			slog.String("word", prompt.Word),
			slog.Int("status", resp.StatusCode),
			slog.String("error", msg),
		)
		return "", domain.NewGenerationError(Name, domain.ErrTransport, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", domain.NewGenerationError(Name, domain.ErrMalformedResponse, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", domain.NewGenerationError(Name, domain.ErrMalformedResponse, fmt.Errorf("empty choices"))
	}

	return out.Choices[0].Message.Content, nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (p *Provider) doWithRetry(ctx context.Context, body []byte, word string) (*http.Response, error) {
	resp, err := p.do(ctx, body)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "groq retry", slog.String("word", word), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	return p.do(ctx, body)
}

func (p *Provider) do(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return p.httpClient.Do(req)
}
