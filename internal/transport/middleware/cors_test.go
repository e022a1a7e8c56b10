package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nguyendangtritoan/german-note/internal/config"
)

func corsConfig(origins string) config.CORSConfig {
	return config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   "GET,POST,PUT,DELETE,OPTIONS",
		AllowedHeaders:   "Authorization,Content-Type",
		AllowCredentials: true,
		MaxAge:           600,
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		origins     string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantCreds   string
		wantMethods string
		wantHandler bool
	}{
		{
			name: "preflight from allowed origin", origins: "https://app.example.com, https://admin.example.com",
			method: http.MethodOptions, origin: "https://admin.example.com", preflight: true,
			wantStatus: http.StatusNoContent, wantOrigin: "https://admin.example.com", wantCreds: "true",
			wantMethods: "GET,POST,PUT,DELETE,OPTIONS",
		},
		{
			name: "simple request from allowed origin", origins: "https://app.example.com",
			method: http.MethodGet, origin: "https://app.example.com",
			wantStatus: http.StatusOK, wantOrigin: "https://app.example.com", wantCreds: "true", wantHandler: true,
		},
		{
			name: "disallowed origin reaches handler untagged", origins: "https://app.example.com",
			method: http.MethodGet, origin: "https://evil.example",
			wantStatus: http.StatusOK, wantHandler: true,
		},
		{
			name: "disallowed preflight is not answered", origins: "https://app.example.com",
			method: http.MethodOptions, origin: "https://evil.example", preflight: true,
			wantStatus: http.StatusOK, wantHandler: true,
		},
		{
			name: "wildcard echoes origin without credentials", origins: "*",
			method: http.MethodPost, origin: "https://any.example",
			wantStatus: http.StatusOK, wantOrigin: "https://any.example", wantHandler: true,
		},
		{
			name: "options without request method is not a preflight", origins: "*",
			method: http.MethodOptions, origin: "https://any.example",
			wantStatus: http.StatusOK, wantOrigin: "https://any.example", wantHandler: true,
		},
		{
			name: "no origin header", origins: "https://app.example.com",
			method: http.MethodGet,
			wantStatus: http.StatusOK, wantHandler: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			h := CORS(corsConfig(tt.origins))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(tt.method, "/api/search", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantHandler, called)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			if tt.wantOrigin != "" {
				assert.Equal(t, requestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	t.Parallel()

	h := CORS(corsConfig("https://app.example.com"))(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/view", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "Authorization,Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}
