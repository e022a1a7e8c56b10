package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Snapshot is an immutable view of a workspace handed to observers.
type Snapshot struct {
	IdentityID uuid.UUID
	Resolving  bool
	Anonymous  bool
	Busy       bool
	View       domain.View
	Words      domain.Session
	Queued     int

	// BundlesChanged is set when the bundle list may differ from the last
	// snapshot and observers should refetch it.
	BundlesChanged bool
	Version        uint64
}

// Workspace is the in-memory state of one identity: the live session, the
// open view and the pending-query queue. All state transitions, local or
// remote, go through mu.
type Workspace struct {
	hub *Hub
	id  uuid.UUID
	log *slog.Logger

	// ready is closed once the identity is bound or binding failed.
	ready chan struct{}

	mu        sync.Mutex
	identity  *domain.Identity
	failed    error
	replaying bool
	queue     *queryQueue
	busy      bool
	stamp     time.Time
	live      domain.Session
	view      domain.View
	bundle    *domain.Bundle
	version   uint64
	subs      map[uint64]chan Snapshot
	nextSub   uint64
	out       outbox
}

func newWorkspace(h *Hub, id uuid.UUID, warm domain.Session) *Workspace {
	return &Workspace{
		hub:   h,
		id:    id,
		log:   h.log.With(slog.String("identity_id", id.String())),
		ready: make(chan struct{}),
		queue: newQueryQueue(h.cfg.QueueCapacity),
		live:  warm,
		stamp: warm.Latest(),
		subs:  make(map[uint64]chan Snapshot),
		out:   newOutbox(),
	}
}

// IdentityID returns the identity owning the workspace.
func (w *Workspace) IdentityID() uuid.UUID { return w.id }

// Snapshot returns the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked(false)
}

// View returns the active view.
func (w *Workspace) View() domain.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// Subscribe registers an observer. The channel always holds the most
// recent snapshot; older undelivered ones are dropped. The current state is
// sent right away. cancel unregisters and closes the channel.
func (w *Workspace) Subscribe() (<-chan Snapshot, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := w.hub.cfg.SubscriberQueue
	if size <= 0 {
		size = 1
	}
	ch := make(chan Snapshot, size)
	w.nextSub++
	id := w.nextSub
	w.subs[id] = ch
	ch <- w.snapshotLocked(false)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if c, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// awaitIdentity blocks until the identity is bound.
func (w *Workspace) awaitIdentity(ctx context.Context) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

// current returns the words of the active view. Caller holds mu.
func (w *Workspace) current() domain.Session {
	if w.bundle != nil {
		return w.bundle.Words
	}
	return w.live
}

// setCurrent replaces the words of the active view and queues the write.
// Caller holds mu and must call flushLater after unlocking.
func (w *Workspace) setCurrent(words domain.Session) {
	if w.bundle != nil {
		w.bundle.SetWords(words, w.hub.now())
		w.out.saveBundle(w.bundle)
	} else {
		w.live = words
		w.out.markLive()
	}
	w.publishLocked(false)
}

// nextStamp returns a timestamp strictly greater than every stamp issued
// so far. Caller holds mu.
func (w *Workspace) nextStamp() time.Time {
	now := w.hub.now().UTC()
	if !now.After(w.stamp) {
		now = w.stamp.Add(time.Nanosecond)
	}
	w.stamp = now
	return now
}

// observe raises the stamp floor to the newest entry of words. Caller
// holds mu.
func (w *Workspace) observe(words domain.Session) {
	if latest := words.Latest(); latest.After(w.stamp) {
		w.stamp = latest
	}
}

func (w *Workspace) snapshotLocked(bundlesChanged bool) Snapshot {
	s := Snapshot{
		IdentityID:     w.id,
		Resolving:      w.identity == nil && w.failed == nil,
		Busy:           w.busy,
		View:           w.view,
		Words:          w.current().Clone(),
		Queued:         w.queue.len(),
		BundlesChanged: bundlesChanged,
		Version:        w.version,
	}
	if w.identity != nil {
		s.Anonymous = w.identity.Anonymous
	}
	return s
}

// publishLocked bumps the version and fans the snapshot out. Caller holds
// mu. Never blocks: a full subscriber loses its oldest snapshot.
func (w *Workspace) publishLocked(bundlesChanged bool) {
	w.version++
	if len(w.subs) == 0 {
		return
	}
	snap := w.snapshotLocked(bundlesChanged)
	for _, ch := range w.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// closeSubscribers ends every observer stream.
func (w *Workspace) closeSubscribers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}

// setBusy flips the busy flag and notifies observers. Caller holds mu.
func (w *Workspace) setBusy(busy bool) {
	w.busy = busy
	w.publishLocked(false)
}
