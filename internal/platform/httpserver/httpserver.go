package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"blueprints/internal/platform/config"
)

// New builds an HTTP server with sane defaults for this project.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// ReadinessCheck is one dependency checked by Healthz.
type ReadinessCheck struct {
	Name  string
	Check func(context.Context) error
}

// Healthz reports 200 when every check passes and 503 otherwise.
func Healthz(checks ...ReadinessCheck) http.HandlerFunc {
	type checkResult struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make([]checkResult, 0, len(checks))
		for _, c := range checks {
			res := checkResult{Name: c.Name, Status: "ok"}
			if err := c.Check(r.Context()); err != nil {
				res.Status = "fail"
				res.Error = err.Error()
				status = http.StatusServiceUnavailable
			}
			results = append(results, res)
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "not_ready"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": overall, "checks": results})
	}
}
