// Package generation turns a word into an analysis through the configured
// LLM backend, with a bounded wait and typed failures.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/provider"
)

type completer interface {
	Name() string
	Complete(ctx context.Context, prompt provider.Prompt) (string, error)
}

// Settings tunes the service.
type Settings struct {
	Timeout       time.Duration
	Languages     []string
	ShowPlural    bool
	ShowVerbForms bool
}

// Service implements the generation backend operations.
type Service struct {
	log      *slog.Logger
	backend  completer
	settings Settings
}

// NewService creates a new generation service.
func NewService(logger *slog.Logger, backend completer, settings Settings) *Service {
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}
	return &Service{
		log:      logger.With("service", "generation"),
		backend:  backend,
		settings: settings,
	}
}

// Generate returns a fresh analysis of word. An empty languages list uses
// the configured target languages.
func (s *Service) Generate(ctx context.Context, word string, languages []string, focus *string) (domain.Analysis, error) {
	if len(languages) == 0 {
		languages = s.settings.Languages
	}

	prompt := provider.AnalysisPrompt(word, focus, provider.Options{
		Languages:     languages,
		ShowPlural:    s.settings.ShowPlural,
		ShowVerbForms: s.settings.ShowVerbForms,
	})

	start := time.Now()
	reply, err := s.complete(ctx, prompt)
	if err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := provider.ParseAnalysis(reply, word, languages, focus)
	if err != nil {
		s.log.WarnContext(ctx, "malformed analysis",
			slog.String("word", word),
			slog.String("provider", s.backend.Name()),
			slog.String("error", err.Error()),
		)
		return domain.Analysis{}, domain.NewGenerationError(s.backend.Name(), domain.ErrMalformedResponse, err)
	}

	s.log.InfoContext(ctx, "analysis generated",
		slog.String("word", word),
		slog.String("provider", s.backend.Name()),
		slog.Duration("took", time.Since(start)),
	)
	return analysis, nil
}

// RegenerateExample returns a new example sentence for word.
func (s *Service) RegenerateExample(ctx context.Context, word string, focus *string) (string, error) {
	reply, err := s.complete(ctx, provider.ExamplePrompt(word, focus))
	if err != nil {
		return "", err
	}

	example, err := provider.ParseExample(reply)
	if err != nil {
		return "", domain.NewGenerationError(s.backend.Name(), domain.ErrMalformedResponse, err)
	}
	return example, nil
}

// complete runs one backend call under the configured deadline and maps
// every failure to a GenerationError.
func (s *Service) complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	reply, err := s.backend.Complete(callCtx, prompt)
	if err == nil {
		return reply, nil
	}

	name := s.backend.Name()
	switch {
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		s.log.WarnContext(ctx, "generation timed out",
			slog.String("word", prompt.Word),
			slog.String("provider", name),
			slog.Duration("timeout", s.settings.Timeout),
		)
		return "", domain.NewGenerationError(name, domain.ErrTimeout, err)
	case ctx.Err() != nil:
		return "", fmt.Errorf("generate %q: %w", prompt.Word, ctx.Err())
	}

	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return "", genErr
	}
	return "", domain.NewGenerationError(name, domain.ErrTransport, err)
}
