package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"blueprints/internal/platform/metrics"
	id "blueprints/pkg/domain"
	"blueprints/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuthMiddlewareSuite) serve(v JWTValidator, header string) (*httptest.ResponseRecorder, requestcontext.Principal) {
	var seen requestcontext.Principal
	h := RequireAuth(v, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Identity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func (s *AuthMiddlewareSuite) TestValidToken() {
	userID := uuid.New()
	v := stubValidator{claims: &JWTClaims{
		UserID:         userID.String(),
		Name:           "Bob Requestor",
		CharacterIDs:   []int64{90000001},
		CorporationIDs: []int64{98000001},
	}}

	rr, principal := s.serve(v, "Bearer token")

	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal(id.UserID(userID), principal.UserID)
	s.Equal("Bob Requestor", principal.Name)
	s.Equal([]id.CharacterID{90000001}, principal.CharacterIDs)
	s.Equal([]id.CorporationID{98000001}, principal.CorporationIDs)
}

func (s *AuthMiddlewareSuite) TestRejections() {
	s.Run("missing header", func() {
		rr, _ := s.serve(stubValidator{}, "")
		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Contains(rr.Body.String(), `"error":"unauthorized"`)
	})

	s.Run("invalid token", func() {
		rr, _ := s.serve(stubValidator{err: errors.New("expired")}, "Bearer stale")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("claims with malformed user id", func() {
		rr, _ := s.serve(stubValidator{claims: &JWTClaims{UserID: "nope"}}, "Bearer token")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
	})

	t.Run("mints id when absent", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
	})
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader("action=claim"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{"action":"claim"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestLatencyMiddleware_UsesRoutePattern(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/requests/42", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/requests/{id}", "200")))
}
