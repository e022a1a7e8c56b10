package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/pkg/ctxutil"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 64
)

// RequestID tags the request with an ID, echoed in the response header.
// A client-supplied ID is kept when it is short and plain ASCII; anything
// else is replaced by a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
