package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	identityIDKey ctxKey = "identity_id"
	anonymousKey  ctxKey = "anonymous"
	requestIDKey  ctxKey = "request_id"
)

// WithIdentity stores the authenticated identity in the context.
func WithIdentity(ctx context.Context, id uuid.UUID, anonymous bool) context.Context {
	ctx = context.WithValue(ctx, identityIDKey, id)
	return context.WithValue(ctx, anonymousKey, anonymous)
}

// IdentityIDFromCtx extracts the identity ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func IdentityIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(identityIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsAnonymous reports whether the authenticated identity is anonymous.
// A context without identity reports false.
func IsAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(anonymousKey).(bool)
	return anon
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
