package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthz(t *testing.T) {
	ok := ReadinessCheck{Name: "store", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Healthz(ok)(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	})

	t.Run("failing check reports not ready", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Healthz(ok, down)(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "not_ready")
		assert.Contains(t, rr.Body.String(), "refused")
	})
}
