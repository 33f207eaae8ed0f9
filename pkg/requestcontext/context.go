// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values and services read them, so services never
// import net/http.
//
// Usage in services (read values):
//
//	ident := requestcontext.Identity(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithIdentity(ctx, requestcontext.Principal{UserID: userID})
package requestcontext

import (
	"context"
	"time"

	id "blueprints/pkg/domain"
)

type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Principal is the authenticated member as asserted by the access token.
// It lists what the member owns in game; permissions are resolved separately.
type Principal struct {
	UserID         id.UserID
	Name           string
	CharacterIDs   []id.CharacterID
	CorporationIDs []id.CorporationID
}

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// Identity retrieves the authenticated principal from the context.
// Returns the zero value if not set.
func Identity(ctx context.Context) Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(Principal); ok {
		return p
	}
	return Principal{}
}

// WithIdentity injects the authenticated principal into the context.
func WithIdentity(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	return Identity(ctx).UserID
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
