package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Outcome tells how a search was resolved.
type Outcome string

const (
	OutcomeSessionHit Outcome = "session_hit"
	OutcomeCacheHit   Outcome = "cache_hit"
	OutcomeGenerated  Outcome = "generated"
	OutcomeQueued     Outcome = "queued"
	OutcomeNoop       Outcome = "noop"
)

// SearchResult is the result of Search. Entry is nil for queued and noop
// outcomes; Position is the 1-based queue slot of a queued query.
type SearchResult struct {
	Outcome  Outcome
	Entry    *domain.WordEntry
	Position int
}

// Search resolves a query into the active view: an entry already in the
// view is moved to the front, an unconstrained query is served from the
// dictionary cache when possible, otherwise the word is generated. Before
// the identity is bound the query is queued and replayed later.
func (w *Workspace) Search(ctx context.Context, query string, focus *string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{Outcome: OutcomeNoop}, nil
	}
	focus = cleanFocus(focus)

	w.mu.Lock()
	if w.failed != nil {
		err := w.failed
		w.mu.Unlock()
		return SearchResult{}, err
	}
	if w.identity == nil || w.replaying {
		pos, err := w.queue.push(pendingQuery{query: query, focus: focus})
		if err == nil {
			w.publishLocked(false)
		}
		w.mu.Unlock()
		if err != nil {
			return SearchResult{}, fmt.Errorf("workspace.Search: %w", err)
		}
		w.log.InfoContext(ctx, "search queued until identity resolves",
			slog.String("query", query),
			slog.Int("position", pos),
		)
		return SearchResult{Outcome: OutcomeQueued, Position: pos}, nil
	}
	w.mu.Unlock()

	return w.resolve(ctx, query, focus)
}

// resolve runs the session-hit / cache-hit / generation steps for a bound
// workspace.
func (w *Workspace) resolve(ctx context.Context, query string, focus *string) (SearchResult, error) {
	key := domain.NewDedupKey(query, focus)

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return SearchResult{}, domain.ErrBusy
	}
	words := w.current()
	if i := words.IndexOf(key); i >= 0 {
		words = words.MoveToFront(i, w.nextStamp())
		w.setCurrent(words)
		entry := words[0].Clone()
		w.mu.Unlock()
		w.flushLater(ctx)

		w.log.DebugContext(ctx, "session hit", slog.String("key", key.String()))
		return SearchResult{Outcome: OutcomeSessionHit, Entry: &entry}, nil
	}
	w.setBusy(true)
	w.mu.Unlock()

	analysis, outcome, err := w.lookupOrGenerate(ctx, query, key, focus)

	w.mu.Lock()
	w.busy = false
	if err != nil {
		w.publishLocked(false)
		w.mu.Unlock()
		return SearchResult{}, err
	}
	entry := domain.WordEntry{
		ID:        uuid.New(),
		Analysis:  analysis,
		Timestamp: w.nextStamp(),
	}
	w.setCurrent(w.current().Prepend(entry))
	w.mu.Unlock()
	w.flushLater(ctx)

	if outcome == OutcomeGenerated && focus == nil {
		w.storeInDictionary(ctx, key.Text, analysis)
	}

	w.log.InfoContext(ctx, "word resolved",
		slog.String("key", key.String()),
		slog.String("outcome", string(outcome)),
	)
	out := entry.Clone()
	return SearchResult{Outcome: outcome, Entry: &out}, nil
}

// lookupOrGenerate consults the dictionary cache for unconstrained queries
// and falls back to the generation backend. Cache failures count as misses.
func (w *Workspace) lookupOrGenerate(ctx context.Context, query string, key domain.DedupKey, focus *string) (domain.Analysis, Outcome, error) {
	if focus == nil {
		cached, err := w.hub.dict.Lookup(ctx, key.Text)
		switch {
		case err == nil:
			entry := cached.ToEntry(uuid.Nil, w.hub.now())
			return entry.Analysis, OutcomeCacheHit, nil
		case errors.Is(err, domain.ErrNotFound):
		default:
			w.log.WarnContext(ctx, "dictionary lookup failed",
				slog.String("key", key.Text),
				slog.String("error", err.Error()),
			)
		}
	}

	analysis, err := w.hub.gen.Generate(ctx, query, nil, focus)
	if err != nil {
		return domain.Analysis{}, "", fmt.Errorf("workspace.Search generate: %w", err)
	}
	return analysis, OutcomeGenerated, nil
}

func (w *Workspace) storeInDictionary(ctx context.Context, key string, analysis domain.Analysis) {
	entry := domain.CachedAnalysis{
		Key:         key,
		Analysis:    analysis.Clone(),
		GeneratedAt: w.hub.now().UTC(),
	}
	w.hub.tasks.Go(ctx, "dictionary store", func(ctx context.Context) error {
		stored, err := w.hub.dict.Store(ctx, key, entry)
		if err != nil {
			return fmt.Errorf("dictionary store %q: %w", key, err)
		}
		if !stored {
			w.log.DebugContext(ctx, "dictionary entry already present", slog.String("key", key))
		}
		return nil
	})
}

// replay drains the pending queue in order. New searches keep queueing
// behind it until the queue is empty; then the workspace becomes ready.
func (w *Workspace) replay(ctx context.Context) {
	for {
		w.mu.Lock()
		p, ok := w.queue.pop()
		if !ok {
			w.replaying = false
			w.publishLocked(false)
			w.mu.Unlock()
			close(w.ready)
			return
		}
		w.mu.Unlock()

		if _, err := w.resolve(ctx, p.query, p.focus); err != nil {
			w.log.WarnContext(ctx, "queued search failed",
				slog.String("query", p.query),
				slog.String("error", err.Error()),
			)
		}
	}
}

func cleanFocus(focus *string) *string {
	if focus == nil {
		return nil
	}
	f := strings.TrimSpace(*focus)
	if f == "" {
		return nil
	}
	return &f
}
