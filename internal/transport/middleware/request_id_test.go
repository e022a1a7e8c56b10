package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "client id kept", incoming: "web-7f3a.search:1", keep: true},
		{name: "uuid kept", incoming: "0b6f8a52-5a0e-4c4f-9d2f-1f1e6e1d2c3b", keep: true},
		{name: "missing", incoming: "", keep: false},
		{name: "too long", incoming: strings.Repeat("a", maxRequestIDLen+1), keep: false},
		{name: "header injection", incoming: "abc\r\nX-Evil: 1", keep: false},
		{name: "non ascii", incoming: "anfrage-über", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ctxutil.RequestIDFromCtx(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tt.incoming != "" {
				req.Header[requestIDHeader] = []string{tt.incoming}
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}
