package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (auth.Claims, error)
}

// Auth resolves the bearer token into an identity on the context. Requests
// without a token pass through unauthenticated; a bad token is rejected.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := ctxutil.WithIdentity(r.Context(), claims.IdentityID, claims.Anonymous)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that Auth did not authenticate.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxutil.IdentityIDFromCtx(r.Context()); !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
