package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nguyendangtritoan/german-note/internal/config"
)

// CORS answers preflight requests and tags responses for allowed origins.
// The matched origin is echoed back. Credentials are never allowed for a
// wildcard configuration. The request ID header is exposed to browsers.
func CORS(cfg config.CORSConfig) Middleware {
	origins := make(map[string]struct{})
	wildcard := false
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins[o] = struct{}{}
		}
	}
	allowed := func(origin string) bool {
		if wildcard {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")
			if origin == "" || !allowed(origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
			if cfg.AllowCredentials && !wildcard {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
