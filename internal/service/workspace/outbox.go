package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// bundleOp is a pending bundle write. A nil bundle deletes.
type bundleOp struct {
	bundle *domain.Bundle
	seq    uint64
}

// outbox records which documents changed since the last flush. Every
// mutation bumps seq; a flush clears an entry only if it wrote the latest
// version of it. Guarded by the workspace mutex.
type outbox struct {
	seq      uint64
	liveSeq  uint64
	bundles  map[string]bundleOp
	flushing bool

	// idle is closed when a running flush finds nothing left to write.
	idle chan struct{}
	// err is the outcome of the last completed flush.
	err error
}

func newOutbox() outbox {
	idle := make(chan struct{})
	close(idle)
	return outbox{bundles: make(map[string]bundleOp), idle: idle}
}

func (o *outbox) markLive() {
	o.seq++
	o.liveSeq = o.seq
}

func (o *outbox) saveBundle(b *domain.Bundle) {
	o.seq++
	o.bundles[b.ID] = bundleOp{bundle: cloneBundle(b), seq: o.seq}
}

func (o *outbox) deleteBundle(id string) {
	o.seq++
	o.bundles[id] = bundleOp{seq: o.seq}
}

func (o *outbox) dirty() bool {
	return o.liveSeq != 0 || len(o.bundles) > 0
}

// pending returns the unflushed version of a bundle. deleted is true when
// the pending write is a delete.
func (o *outbox) pending(id string) (b *domain.Bundle, deleted, ok bool) {
	op, ok := o.bundles[id]
	if !ok {
		return nil, false, false
	}
	if op.bundle == nil {
		return nil, true, true
	}
	return cloneBundle(op.bundle), false, true
}

// flushLater starts a flush task unless one is running or nothing changed.
// Must be called without holding mu.
func (w *Workspace) flushLater(ctx context.Context) {
	w.mu.Lock()
	if w.out.flushing || !w.out.dirty() {
		w.mu.Unlock()
		return
	}
	w.out.flushing = true
	w.out.idle = make(chan struct{})
	w.mu.Unlock()

	w.hub.tasks.Go(ctx, "workspace flush", w.flush)
}

// waitFlushed blocks until every pending change has been written and
// returns the error of the last flush.
func (w *Workspace) waitFlushed(ctx context.Context) error {
	w.flushLater(ctx)

	w.mu.Lock()
	idle := w.out.idle
	w.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.err
}

// flush writes pending changes until the outbox is clean. Only one flush
// runs per workspace, so writes reach the stores in mutation order. A
// failed write stays in the outbox and the flush stops; the next flush
// retries it.
func (w *Workspace) flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if !w.out.dirty() {
			w.out.flushing = false
			w.out.err = nil
			close(w.out.idle)
			w.mu.Unlock()
			return nil
		}
		liveSeq := w.out.liveSeq
		var words domain.Session
		if liveSeq != 0 {
			words = w.live.Clone()
		}
		ops := make(map[string]bundleOp, len(w.out.bundles))
		for id, op := range w.out.bundles {
			ops[id] = op
		}
		w.mu.Unlock()

		written, liveWritten, err := w.flushOnce(ctx, liveSeq != 0, words, ops)

		w.mu.Lock()
		if liveWritten && w.out.liveSeq == liveSeq {
			w.out.liveSeq = 0
		}
		for _, id := range written {
			if cur, ok := w.out.bundles[id]; ok && cur.seq == ops[id].seq {
				delete(w.out.bundles, id)
			}
		}
		if err != nil {
			w.out.flushing = false
			w.out.err = err
			close(w.out.idle)
			w.mu.Unlock()
			return err
		}
		w.mu.Unlock()
	}
}

// flushOnce writes the bundle operations, then the live session. The live
// session is written only when every bundle write succeeded: an archive
// clears it, and the clear must not reach the store before the bundle
// holding its words does.
func (w *Workspace) flushOnce(ctx context.Context, writeLive bool, words domain.Session, ops map[string]bundleOp) (written []string, liveWritten bool, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.hub.cfg.TaskTimeout)
	defer cancel()

	var errs []error
	for id, op := range ops {
		if err := w.applyBundleOp(ctx, id, op); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, id)
	}
	if len(written) > 0 {
		w.publishQuietly(ctx, domain.ChangeEvent{Kind: domain.ChangeBundles, IdentityID: w.id})
	}
	if len(errs) > 0 {
		if writeLive {
			w.log.WarnContext(ctx, "session write deferred until bundles are stored")
		}
		return written, false, errors.Join(errs...)
	}

	if writeLive {
		if err := w.hub.mirror.Save(ctx, w.id, words); err != nil {
			w.log.WarnContext(ctx, "mirror save failed", slog.String("error", err.Error()))
		}
		if err := w.hub.sessions.Save(ctx, w.id, words); err != nil {
			return written, false, fmt.Errorf("save session: %w", err)
		}
		w.publishQuietly(ctx, domain.ChangeEvent{
			Kind:       domain.ChangeSession,
			IdentityID: w.id,
			Words:      words,
		})
	}
	return written, writeLive, nil
}

// publishQuietly announces a stored change. The write itself succeeded, so
// a feed failure is only logged.
func (w *Workspace) publishQuietly(ctx context.Context, ev domain.ChangeEvent) {
	if err := w.hub.publish(ctx, ev); err != nil {
		w.log.WarnContext(ctx, "publish change failed",
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Workspace) applyBundleOp(ctx context.Context, id string, op bundleOp) error {
	if op.bundle == nil {
		err := w.hub.bundles.Delete(ctx, w.id, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete bundle %s: %w", id, err)
		}
		return nil
	}

	err := w.hub.bundles.Update(ctx, op.bundle)
	if errors.Is(err, domain.ErrNotFound) {
		err = w.hub.bundles.Create(ctx, op.bundle)
	}
	if err != nil {
		return fmt.Errorf("save bundle %s: %w", id, err)
	}
	return nil
}

func cloneBundle(b *domain.Bundle) *domain.Bundle {
	out := *b
	out.Words = b.Words.Clone()
	return &out
}
