package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nguyendangtritoan/german-note/internal/adapter/provider/anthropic"
	"github.com/nguyendangtritoan/german-note/internal/adapter/provider/gemini"
	"github.com/nguyendangtritoan/german-note/internal/adapter/provider/groq"
	"github.com/nguyendangtritoan/german-note/internal/adapter/provider/mock"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/provider"
	"github.com/nguyendangtritoan/german-note/internal/service/generation"
)

// completer is a generation backend adapter.
type completer interface {
	Name() string
	Complete(ctx context.Context, prompt provider.Prompt) (string, error)
}

// newCompleter builds the backend selected by cfg.Provider.
func newCompleter(ctx context.Context, logger *slog.Logger, cfg config.GenerationConfig) (completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(ctx, logger, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.DefaultModel()),
			gemini.WithMaxTokens(cfg.MaxTokens),
			gemini.WithOptions(provider.Options{
				Languages:     cfg.TargetLanguages,
				ShowPlural:    cfg.ShowPlural(),
				ShowVerbForms: cfg.ShowVerbForms(),
			}),
		)
	case config.ProviderGroq:
		return groq.NewProvider(logger, cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.DefaultModel(), cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(logger, cfg.AnthropicAPIKey, "", cfg.DefaultModel(), cfg.MaxTokens)
	case config.ProviderMock:
		return mock.NewProvider(0), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// NewGenerator builds the generation service on top of the configured
// backend.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.GenerationConfig) (*generation.Service, error) {
	backend, err := newCompleter(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("generation backend: %w", err)
	}
	return generation.NewService(logger, backend, generation.Settings{
		Timeout:       cfg.Timeout,
		Languages:     cfg.TargetLanguages,
		ShowPlural:    cfg.ShowPlural(),
		ShowVerbForms: cfg.ShowVerbForms(),
	}), nil
}
