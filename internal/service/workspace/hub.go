// Package workspace holds the per-identity live state: the session
// resolver, the bundle archiver and the word edits, serialized per
// identity and synced to the stores in the background.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

type sessionStore interface {
	Load(ctx context.Context, identityID uuid.UUID) (domain.Session, time.Time, error)
	Save(ctx context.Context, identityID uuid.UUID, words domain.Session) error
}

type bundleStore interface {
	Create(ctx context.Context, b *domain.Bundle) error
	Update(ctx context.Context, b *domain.Bundle) error
	Delete(ctx context.Context, identityID uuid.UUID, id string) error
	Get(ctx context.Context, identityID uuid.UUID, id string) (*domain.Bundle, error)
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*domain.Bundle, error)
}

type dictionary interface {
	Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error)
	Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error)
}

type generator interface {
	Generate(ctx context.Context, word string, languages []string, focus *string) (domain.Analysis, error)
	RegenerateExample(ctx context.Context, word string, focus *string) (string, error)
}

type mirrorStore interface {
	Load(ctx context.Context, identityID uuid.UUID) domain.Session
	Save(ctx context.Context, identityID uuid.UUID, words domain.Session) error
	Delete(ctx context.Context, identityID uuid.UUID) error
}

type identityResolver interface {
	Resolve(ctx context.Context, identityID uuid.UUID) (*domain.Identity, error)
}

type changeFeed interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Subscribe(ctx context.Context, onEvent func(domain.ChangeEvent)) error
}

// Hub owns the workspaces of all identities served by this instance.
type Hub struct {
	log        *slog.Logger
	sessions   sessionStore
	bundles    bundleStore
	dict       dictionary
	gen        generator
	mirror     mirrorStore
	identities identityResolver
	feed       changeFeed
	tasks      *Tasks
	cfg        config.WorkspaceConfig
	origin     string
	now        func() time.Time

	mu     sync.Mutex
	spaces map[uuid.UUID]*Workspace
}

// NewHub creates a hub. A nil mirror disables warm starts.
func NewHub(
	logger *slog.Logger,
	sessions sessionStore,
	bundles bundleStore,
	dict dictionary,
	gen generator,
	mirror mirrorStore,
	identities identityResolver,
	feed changeFeed,
	cfg config.WorkspaceConfig,
) *Hub {
	log := logger.With("service", "workspace")
	if mirror == nil {
		mirror = noMirror{}
	}
	return &Hub{
		log:        log,
		sessions:   sessions,
		bundles:    bundles,
		dict:       dict,
		gen:        gen,
		mirror:     mirror,
		identities: identities,
		feed:       feed,
		tasks:      NewTasks(logger, cfg.TaskWorkers, cfg.TaskTimeout),
		cfg:        cfg,
		origin:     uuid.NewString(),
		now:        time.Now,
		spaces:     make(map[uuid.UUID]*Workspace),
	}
}

// Start subscribes to the change feed. Events published by this hub are
// ignored; the others are applied to the matching workspace, if loaded.
func (h *Hub) Start(ctx context.Context) error {
	if err := h.feed.Subscribe(ctx, h.applyChange); err != nil {
		return fmt.Errorf("workspace.Start: %w", err)
	}
	return nil
}

// Close waits for the background writes of every workspace.
func (h *Hub) Close() {
	for _, w := range h.loaded() {
		w.flushLater(context.Background())
		w.closeSubscribers()
	}
	h.tasks.Close()
}

// DisconnectObservers closes every subscription so long-lived streams end.
// Workspaces stay loaded and usable.
func (h *Hub) DisconnectObservers() {
	for _, w := range h.loaded() {
		w.closeSubscribers()
	}
}

func (h *Hub) loaded() []*Workspace {
	h.mu.Lock()
	defer h.mu.Unlock()

	spaces := make([]*Workspace, 0, len(h.spaces))
	for _, w := range h.spaces {
		spaces = append(spaces, w)
	}
	return spaces
}

// Workspace returns the workspace of identityID, creating it on first use.
// A new workspace paints from the local mirror immediately and binds the
// identity in the background.
func (h *Hub) Workspace(ctx context.Context, identityID uuid.UUID) *Workspace {
	h.mu.Lock()
	w, ok := h.spaces[identityID]
	h.mu.Unlock()
	if ok {
		return w
	}

	// Concurrent first requests may both read the mirror. The first
	// workspace registered wins.
	warm := h.mirror.Load(ctx, identityID)

	h.mu.Lock()
	if w, ok := h.spaces[identityID]; ok {
		h.mu.Unlock()
		return w
	}
	w = newWorkspace(h, identityID, warm)
	h.spaces[identityID] = w
	h.mu.Unlock()

	go h.bind(context.WithoutCancel(ctx), w)
	return w
}

// Evict drops the workspace of identityID after its pending writes are
// flushed. Observers are disconnected. The local mirror is removed only when
// the remote store holds everything.
func (h *Hub) Evict(ctx context.Context, identityID uuid.UUID) {
	h.mu.Lock()
	w, ok := h.spaces[identityID]
	if ok {
		delete(h.spaces, identityID)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	w.closeSubscribers()
	if err := w.waitFlushed(ctx); err != nil {
		w.log.WarnContext(ctx, "evicting with unflushed changes", slog.String("error", err.Error()))
		return
	}
	if err := h.mirror.Delete(ctx, identityID); err != nil {
		w.log.WarnContext(ctx, "delete mirror", slog.String("error", err.Error()))
	}
}

// Identify refreshes the identity of a loaded workspace, e.g. after an
// upgrade. The identifier never changes.
func (h *Hub) Identify(identity *domain.Identity) {
	h.mu.Lock()
	w, ok := h.spaces[identity.ID]
	h.mu.Unlock()
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.identity != nil {
		id := *identity
		w.identity = &id
		w.publishLocked(false)
	}
}

// bind verifies the identity, loads the authoritative session and replays
// the queries received meanwhile.
func (h *Hub) bind(ctx context.Context, w *Workspace) {
	loadCtx, cancel := context.WithTimeout(ctx, h.cfg.LoadTimeout)
	defer cancel()

	identity, err := h.identities.Resolve(loadCtx, w.id)
	if err != nil {
		h.fail(ctx, w, fmt.Errorf("workspace bind: %w", err))
		return
	}

	words, _, err := h.sessions.Load(loadCtx, w.id)
	remote := true
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		words = domain.Session{}
	default:
		remote = false
		w.log.WarnContext(ctx, "remote session unavailable, keeping mirror",
			slog.String("error", err.Error()),
		)
	}

	w.mu.Lock()
	w.identity = identity
	w.replaying = true
	if remote {
		w.live = words
		w.observe(words)
	}
	w.publishLocked(false)
	w.mu.Unlock()

	if remote {
		h.tasks.Go(ctx, "mirror refresh", func(ctx context.Context) error {
			return h.mirror.Save(ctx, w.id, words)
		})
	}

	w.log.InfoContext(ctx, "workspace bound",
		slog.Bool("anonymous", identity.Anonymous),
		slog.Int("words", len(words)),
	)
	w.replay(ctx)
}

// fail marks the workspace unusable and forgets it so the next request
// starts over.
func (h *Hub) fail(ctx context.Context, w *Workspace, err error) {
	w.mu.Lock()
	w.failed = err
	dropped := w.queue.drop()
	w.publishLocked(false)
	w.mu.Unlock()
	close(w.ready)

	h.mu.Lock()
	if h.spaces[w.id] == w {
		delete(h.spaces, w.id)
	}
	h.mu.Unlock()

	w.log.WarnContext(ctx, "workspace bind failed",
		slog.Int("dropped_queries", dropped),
		slog.String("error", err.Error()),
	)
	w.closeSubscribers()
}

// publish stamps and sends a change event. Feed failures are returned for
// logging only.
func (h *Hub) publish(ctx context.Context, ev domain.ChangeEvent) error {
	ev.Origin = h.origin
	ev.At = h.now().UTC()
	if err := h.feed.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish %s change: %w", ev.Kind, err)
	}
	return nil
}

// applyChange reconciles a workspace with a change made elsewhere. The
// last write observed wins.
func (h *Hub) applyChange(ev domain.ChangeEvent) {
	if ev.Origin == h.origin {
		return
	}
	h.mu.Lock()
	w, ok := h.spaces[ev.IdentityID]
	h.mu.Unlock()
	if !ok {
		return
	}

	ctx := context.Background()
	switch ev.Kind {
	case domain.ChangeSession:
		w.applyRemoteSession(ctx, ev.Words)
	case domain.ChangeBundles:
		w.applyRemoteBundles(ctx)
	default:
		w.log.WarnContext(ctx, "unknown change kind", slog.String("kind", string(ev.Kind)))
	}
}

// applyRemoteSession replaces the live session with one written by another
// instance.
func (w *Workspace) applyRemoteSession(ctx context.Context, words domain.Session) {
	w.mu.Lock()
	if w.identity == nil {
		w.mu.Unlock()
		return
	}
	w.live = words.Clone()
	w.observe(words)
	w.publishLocked(false)
	w.mu.Unlock()

	w.hub.tasks.Go(ctx, "mirror refresh", func(ctx context.Context) error {
		return w.hub.mirror.Save(ctx, w.id, words)
	})
}

// applyRemoteBundles reloads the open bundle, falling back to the live view
// if it was deleted elsewhere, and tells observers to refetch the list.
func (w *Workspace) applyRemoteBundles(ctx context.Context) {
	w.mu.Lock()
	bundleID := w.view.BundleID
	w.mu.Unlock()

	if bundleID == "" {
		w.mu.Lock()
		w.publishLocked(true)
		w.mu.Unlock()
		return
	}

	loadCtx, cancel := context.WithTimeout(ctx, w.hub.cfg.LoadTimeout)
	defer cancel()
	b, err := w.hub.bundles.Get(loadCtx, w.id, bundleID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		w.log.WarnContext(ctx, "reload open bundle failed",
			slog.String("bundle_id", bundleID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.view.BundleID != bundleID {
		w.publishLocked(true)
		return
	}
	if _, _, pending := w.out.pending(bundleID); pending {
		w.publishLocked(true)
		return
	}
	if b == nil {
		w.view = domain.LiveView
		w.bundle = nil
	} else {
		w.bundle = b
		w.observe(b.Words)
	}
	w.publishLocked(true)
}

type noMirror struct{}

func (noMirror) Load(context.Context, uuid.UUID) domain.Session { return domain.Session{} }

func (noMirror) Save(context.Context, uuid.UUID, domain.Session) error { return nil }

func (noMirror) Delete(context.Context, uuid.UUID) error { return nil }
