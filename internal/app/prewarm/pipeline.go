// Package prewarm fills the shared dictionary cache from a word list, so
// the first search of common words is served without a generation call.
package prewarm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

type generator interface {
	Generate(ctx context.Context, word string, languages []string, focus *string) (domain.Analysis, error)
}

type dictionary interface {
	Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error)
	Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error)
}

// Result holds prewarm statistics.
type Result struct {
	TotalWords int
	Cached     int // already in the dictionary
	Generated  int
	Failed     int
}

// Run reads the word list and generates every word missing from the
// dictionary. A failing word is logged and counted; only a broken word list
// or a cancelled ctx fail the run.
func Run(ctx context.Context, cfg *Config, gen generator, dict dictionary, log *slog.Logger) (Result, error) {
	var result Result

	words, err := readWordList(cfg.WordListPath)
	if err != nil {
		return result, fmt.Errorf("read word list: %w", err)
	}
	if cfg.Limit > 0 && len(words) > cfg.Limit {
		words = words[:cfg.Limit]
	}
	result.TotalWords = len(words)
	log.Info("word list loaded", slog.Int("count", len(words)), slog.Bool("dry_run", cfg.DryRun))

	var (
		mu      sync.Mutex
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, word := range words {
		key := domain.NormalizeText(word)

		_, err := dict.Lookup(gctx, key)
		switch {
		case err == nil:
			count(&result.Cached)
			continue
		case errors.Is(err, domain.ErrNotFound):
		default:
			log.Warn("dictionary lookup failed", slog.String("word", word), slog.String("error", err.Error()))
		}

		if cfg.DryRun {
			count(&result.Generated)
			continue
		}

		if err := limiter.Wait(gctx); err != nil {
			break
		}

		g.Go(func() error {
			if err := warm(gctx, gen, dict, word, key); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("prewarm failed", slog.String("word", word), slog.String("error", err.Error()))
				count(&result.Failed)
				return nil
			}
			count(&result.Generated)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	log.Info("prewarm complete",
		slog.Int("total", result.TotalWords),
		slog.Int("cached", result.Cached),
		slog.Int("generated", result.Generated),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func warm(ctx context.Context, gen generator, dict dictionary, word, key string) error {
	analysis, err := gen.Generate(ctx, word, nil, nil)
	if err != nil {
		return err
	}
	_, err = dict.Store(ctx, key, domain.CachedAnalysis{
		Key:         key,
		Analysis:    analysis,
		GeneratedAt: time.Now().UTC(),
	})
	return err
}

// readWordList returns the distinct words of the file, one per line, in
// order. Blank lines and lines starting with # are skipped.
func readWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		key := domain.NormalizeText(word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, word)
	}
	return words, scanner.Err()
}
