package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tag(name string, trace *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name+">")
			next.ServeHTTP(w, r)
			*trace = append(*trace, "<"+name)
		})
	}
}

func TestChain_FirstMiddlewareIsOutermost(t *testing.T) {
	t.Parallel()

	var trace []string
	h := Chain(tag("recovery", &trace), tag("request-id", &trace), tag("auth", &trace))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trace = append(trace, "handler")
		}),
	)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/session", nil))

	assert.Equal(t, "recovery> request-id> auth> handler <auth <request-id <recovery", strings.Join(trace, " "))
}

func TestChain_Empty(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Chain()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
