// Package middleware holds the HTTP middleware of the REST API.
package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware so that the first one runs outermost:
// Chain(a, b)(h) serves a(b(h)).
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, mw := range slices.Backward(mws) {
			h = mw(h)
		}
		return h
	}
}
