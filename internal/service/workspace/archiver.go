package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Archive folds the live session into a bundle and clears the session.
// With a bundle open, new entries (by dedup key) are merged in front of
// its words; otherwise a new bundle is created and becomes the open view.
// Merging nothing new leaves the bundle untouched but still clears the
// session, so archiving an empty session into an open bundle succeeds
// without changes. An empty session with no bundle open is rejected.
func (w *Workspace) Archive(ctx context.Context) (string, error) {
	if err := w.awaitIdentity(ctx); err != nil {
		return "", err
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return "", domain.ErrBusy
	}
	if len(w.live) == 0 {
		defer w.mu.Unlock()
		if w.bundle == nil {
			return "", domain.NewValidationError("session", "nothing to archive")
		}
		return w.bundle.ID, nil
	}

	now := w.hub.now()
	var (
		bundleID string
		added    int
		created  bool
	)
	if w.bundle != nil {
		bundleID = w.bundle.ID
		added = w.bundle.Merge(w.live, now)
		if added > 0 {
			w.out.saveBundle(w.bundle)
		}
	} else {
		b := domain.NewBundle(w.id, w.live, now)
		if _, _, exists := w.out.pending(b.ID); exists {
			w.mu.Unlock()
			return "", fmt.Errorf("workspace.Archive: bundle %s: %w", b.ID, domain.ErrAlreadyExists)
		}
		bundleID, added, created = b.ID, b.WordCount, true
		w.out.saveBundle(b)
		w.view = domain.View{BundleID: b.ID}
		w.bundle = b
	}
	w.live = domain.Session{}
	w.out.markLive()
	w.publishLocked(true)
	w.mu.Unlock()
	w.flushLater(ctx)

	w.log.InfoContext(ctx, "session archived",
		slog.String("bundle_id", bundleID),
		slog.Int("added", added),
		slog.Bool("created", created),
	)
	return bundleID, nil
}

// ListBundles returns the bundles of the identity, newest first, including
// changes not yet written.
func (w *Workspace) ListBundles(ctx context.Context) ([]*domain.Bundle, error) {
	if err := w.awaitIdentity(ctx); err != nil {
		return nil, err
	}

	stored, err := w.hub.bundles.ListByIdentity(ctx, w.id)
	if err != nil {
		return nil, fmt.Errorf("workspace.ListBundles: %w", err)
	}

	w.mu.Lock()
	out := make([]*domain.Bundle, 0, len(stored)+len(w.out.bundles))
	seen := make(map[string]struct{}, len(stored))
	for _, b := range stored {
		seen[b.ID] = struct{}{}
		pb, deleted, ok := w.out.pending(b.ID)
		switch {
		case !ok:
			out = append(out, b)
		case !deleted:
			out = append(out, pb)
		}
	}
	for id, op := range w.out.bundles {
		if _, ok := seen[id]; ok || op.bundle == nil {
			continue
		}
		out = append(out, cloneBundle(op.bundle))
	}
	w.mu.Unlock()

	slices.SortStableFunc(out, func(a, b *domain.Bundle) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// GetBundle returns one bundle of the identity.
func (w *Workspace) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	if err := w.awaitIdentity(ctx); err != nil {
		return nil, err
	}

	w.mu.Lock()
	pb, deleted, ok := w.out.pending(id)
	w.mu.Unlock()
	if ok {
		if deleted {
			return nil, fmt.Errorf("bundle %s: %w", id, domain.ErrNotFound)
		}
		return pb, nil
	}

	b, err := w.hub.bundles.Get(ctx, w.id, id)
	if err != nil {
		return nil, fmt.Errorf("workspace.GetBundle: %w", err)
	}
	return b, nil
}

// OpenBundle makes a bundle the active view. Searches and edits then
// apply to it.
func (w *Workspace) OpenBundle(ctx context.Context, id string) (domain.View, error) {
	b, err := w.GetBundle(ctx, id)
	if err != nil {
		return domain.View{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return domain.View{}, domain.ErrBusy
	}
	if pb, deleted, ok := w.out.pending(id); ok {
		if deleted {
			return domain.View{}, fmt.Errorf("bundle %s: %w", id, domain.ErrNotFound)
		}
		b = pb
	}
	w.view = domain.View{BundleID: id}
	w.bundle = b
	w.observe(b.Words)
	w.publishLocked(false)
	return w.view, nil
}

// OpenLive switches back to the live session.
func (w *Workspace) OpenLive(ctx context.Context) (domain.View, error) {
	if err := w.awaitIdentity(ctx); err != nil {
		return domain.View{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return domain.View{}, domain.ErrBusy
	}
	w.view = domain.LiveView
	w.bundle = nil
	w.publishLocked(false)
	return w.view, nil
}

// DeleteBundle removes a bundle. If it was the open view, the workspace
// falls back to the live session.
func (w *Workspace) DeleteBundle(ctx context.Context, id string) error {
	if _, err := w.GetBundle(ctx, id); err != nil {
		return err
	}

	w.mu.Lock()
	if w.busy && w.view.BundleID == id {
		w.mu.Unlock()
		return domain.ErrBusy
	}
	w.out.deleteBundle(id)
	if w.view.BundleID == id {
		w.view = domain.LiveView
		w.bundle = nil
	}
	w.publishLocked(true)
	w.mu.Unlock()
	w.flushLater(ctx)

	w.log.InfoContext(ctx, "bundle deleted", slog.String("bundle_id", id))
	return nil
}

// RemoveWordFromBundle drops one entry from a bundle, open or not.
func (w *Workspace) RemoveWordFromBundle(ctx context.Context, bundleID string, wordID uuid.UUID) error {
	b, err := w.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	switch {
	case w.bundle != nil && w.bundle.ID == bundleID:
		b = w.bundle
	default:
		if pb, deleted, ok := w.out.pending(bundleID); ok {
			if deleted {
				w.mu.Unlock()
				return fmt.Errorf("bundle %s: %w", bundleID, domain.ErrNotFound)
			}
			b = pb
		}
	}
	if !b.RemoveWord(wordID, w.hub.now()) {
		w.mu.Unlock()
		return fmt.Errorf("word %s in bundle %s: %w", wordID, bundleID, domain.ErrNotFound)
	}
	w.out.saveBundle(b)
	w.publishLocked(true)
	w.mu.Unlock()
	w.flushLater(ctx)
	return nil
}
