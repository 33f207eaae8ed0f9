package testutil

import (
	"net/http"
	"time"

	"blueprints/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated principal the way RequireAuth does.
func WithPrincipal(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), p))
}

// WithClock pins the request time seen by handlers and services.
func WithClock(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
