package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/transport/middleware"
	"github.com/nguyendangtritoan/german-note/internal/transport/rest"
)

// handlers groups everything the router mounts.
type handlers struct {
	health    *rest.HealthHandler
	auth      *rest.AuthHandler
	workspace *rest.WorkspaceHandler
	catalog   *rest.CatalogHandler
}

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (auth.Claims, error)
}

// newRouter mounts the REST API. limiter may be nil to disable rate limits.
func newRouter(logger *slog.Logger, cors config.CORSConfig, h handlers, tokens tokenValidator, limiter *middleware.RateLimiter) http.Handler {
	limited := func(next http.HandlerFunc) http.Handler {
		if limiter == nil {
			return next
		}
		return limiter.Limit()(next)
	}
	private := func(next http.Handler) http.Handler {
		return middleware.RequireIdentity(next)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.health.Live)
	mux.HandleFunc("GET /ready", h.health.Ready)
	mux.HandleFunc("GET /health", h.health.Health)
	mux.HandleFunc("GET /api/catalog", h.catalog.Catalog)

	mux.Handle("POST /auth/anonymous", limited(h.auth.Anonymous))
	mux.Handle("POST /auth/login", limited(h.auth.Login))
	mux.Handle("POST /auth/upgrade", private(http.HandlerFunc(h.auth.Upgrade)))
	mux.Handle("POST /auth/logout", private(http.HandlerFunc(h.auth.Logout)))

	mux.Handle("GET /api/session", private(http.HandlerFunc(h.workspace.Session)))
	mux.Handle("GET /api/session/events", private(http.HandlerFunc(h.workspace.Events)))
	mux.Handle("POST /api/search", private(limited(h.workspace.Search)))
	mux.Handle("DELETE /api/words/{id}", private(http.HandlerFunc(h.workspace.DeleteWord)))
	mux.Handle("POST /api/words/{id}/regenerate", private(limited(h.workspace.RegenerateExample)))
	mux.Handle("POST /api/archive", private(http.HandlerFunc(h.workspace.Archive)))
	mux.Handle("GET /api/bundles", private(http.HandlerFunc(h.workspace.ListBundles)))
	mux.Handle("GET /api/bundles/{id}", private(http.HandlerFunc(h.workspace.GetBundle)))
	mux.Handle("DELETE /api/bundles/{id}", private(http.HandlerFunc(h.workspace.DeleteBundle)))
	mux.Handle("DELETE /api/bundles/{id}/words/{wordID}", private(http.HandlerFunc(h.workspace.RemoveBundleWord)))
	mux.Handle("PUT /api/view", private(http.HandlerFunc(h.workspace.SetView)))

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.CORS(cors),
		middleware.Auth(tokens),
		middleware.Logger(logger),
	)(mux)
}
