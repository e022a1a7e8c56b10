package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// eventsHeartbeat is the interval of SSE comment pings that keep proxies
// from closing an idle stream.
const eventsHeartbeat = 20 * time.Second

// Events handles GET /api/session/events: a Server-Sent Events stream of
// workspace snapshots. The current state is sent first.
func (h *WorkspaceHandler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.WarnContext(r.Context(), "clear write deadline", slog.String("error", err.Error()))
	}

	updates, cancel := h.workspace(r).Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.WarnContext(r.Context(), "streaming unsupported", slog.String("error", err.Error()))
		return
	}

	heartbeat := time.NewTicker(eventsHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				_, _ = fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			payload, err := json.Marshal(toSessionResponse(snap))
			if err != nil {
				h.log.WarnContext(r.Context(), "marshal snapshot", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Version, payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
