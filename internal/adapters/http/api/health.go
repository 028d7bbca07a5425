package api

import (
	"net/http"
	"time"

	"github.com/okian/rift/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /api/v1/health requests, reporting service and
// database liveness as JSON.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.deps.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
			"time":     now,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
		"time":     now,
	})
}

// HandleMetrics handles GET /healthz requests, serving the Prometheus
// registry in text exposition format.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	// Use our custom metrics registry to serve metrics
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
