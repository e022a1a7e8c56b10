package rest

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

// PingFunc probes one dependency.
type PingFunc func(ctx context.Context) error

type component struct {
	name     string
	ping     PingFunc
	required bool
}

// HealthHandler serves the liveness, readiness and health probes.
type HealthHandler struct {
	version    string
	components []component
}

// NewHealthHandler creates a HealthHandler. The database is required.
func NewHealthHandler(db dbPinger, version string) *HealthHandler {
	return &HealthHandler{
		version:    version,
		components: []component{{name: "database", ping: db.Ping, required: true}},
	}
}

// WithComponent registers an optional dependency. When it fails /health
// reports "degraded" with 200; readiness ignores it.
func (h *HealthHandler) WithComponent(name string, ping PingFunc) *HealthHandler {
	h.components = append(h.components, component{name: name, ping: ping})
	return h
}

// HealthResponse is the body of every probe.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the probe result of one component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live always answers 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 200 when every required component responds, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status, _ := h.probe(r.Context(), true)
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Timestamp: time.Now()})
}

// Health probes every component and reports each with its latency.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, components := h.probe(r.Context(), false)
	code := http.StatusOK
	if status == "down" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

// probe pings the components concurrently. The overall status is "down"
// when a required component fails and "degraded" when an optional one does.
func (h *HealthHandler) probe(ctx context.Context, requiredOnly bool) (string, map[string]CompStatus) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	results := make([]CompStatus, len(h.components))
	var g errgroup.Group
	for i, c := range h.components {
		if requiredOnly && !c.required {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			if err := c.ping(ctx); err != nil {
				results[i] = CompStatus{Status: "down"}
				return nil
			}
			results[i] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
			return nil
		})
	}
	_ = g.Wait()

	overall := "ok"
	components := make(map[string]CompStatus, len(h.components))
	for i, c := range h.components {
		if requiredOnly && !c.required {
			continue
		}
		components[c.name] = results[i]
		if results[i].Status == "ok" {
			continue
		}
		switch {
		case c.required:
			overall = "down"
		case overall == "ok":
			overall = "degraded"
		}
	}
	return overall, components
}
