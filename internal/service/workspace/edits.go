package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// RegenerateExample asks the backend for a new example sentence and
// replaces only the example of the entry in the active view.
func (w *Workspace) RegenerateExample(ctx context.Context, wordID uuid.UUID) (*domain.WordEntry, error) {
	if err := w.awaitIdentity(ctx); err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, domain.ErrBusy
	}
	words := w.current()
	i := words.IndexByID(wordID)
	if i < 0 {
		w.mu.Unlock()
		return nil, fmt.Errorf("word %s: %w", wordID, domain.ErrNotFound)
	}
	entry := words[i].Clone()
	w.setBusy(true)
	w.mu.Unlock()

	example, err := w.hub.gen.RegenerateExample(ctx, entry.Original, entry.GrammarFocus)

	w.mu.Lock()
	w.busy = false
	if err != nil {
		w.publishLocked(false)
		w.mu.Unlock()
		return nil, fmt.Errorf("workspace.RegenerateExample: %w", err)
	}
	words = w.current()
	i = words.IndexByID(wordID)
	if i < 0 {
		w.publishLocked(false)
		w.mu.Unlock()
		return nil, fmt.Errorf("word %s: %w", wordID, domain.ErrNotFound)
	}
	updated := words[i].Clone()
	updated.Example = example
	w.setCurrent(words.Replace(updated))
	w.mu.Unlock()
	w.flushLater(ctx)

	w.log.InfoContext(ctx, "example regenerated", slog.String("word_id", wordID.String()))
	return &updated, nil
}

// DeleteWord removes one entry from the active view.
func (w *Workspace) DeleteWord(ctx context.Context, wordID uuid.UUID) error {
	if err := w.awaitIdentity(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	words := w.current()
	if words.IndexByID(wordID) < 0 {
		w.mu.Unlock()
		return fmt.Errorf("word %s: %w", wordID, domain.ErrNotFound)
	}
	w.setCurrent(words.Without(wordID))
	w.mu.Unlock()
	w.flushLater(ctx)
	return nil
}
