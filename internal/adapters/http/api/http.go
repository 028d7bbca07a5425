// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/rift/internal/app"
	"github.com/okian/rift/internal/domain/types"
)

// SecretHeader carries the shared webhook secret on ingestion calls.
const SecretHeader = "X-RIFT-SECRET"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest authenticates and persists one webhook event.
	Ingest(ctx context.Context, secret string, payload app.IngestPayload) (types.IngestResult, error)

	// CurrentStats recomputes the full derived-state snapshot.
	CurrentStats(ctx context.Context) (types.Stats, error)

	// DailyStats returns the per-day activity breakdown, newest first.
	DailyStats(ctx context.Context, days int) ([]types.DailyStat, error)

	// Health verifies the event store connection.
	Health(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	webhookHandler *WebhookHandler
	currentHandler *CurrentStatsHandler
	dailyHandler   *DailyStatsHandler
}

// NewServer creates a new API server with all handlers. maxDailyDays bounds
// the range of the daily breakdown endpoint.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxDailyDays int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		webhookHandler: NewWebhookHandler(deps),
		currentHandler: NewCurrentStatsHandler(deps),
		dailyHandler:   NewDailyStatsHandler(deps, maxDailyDays),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/webhook/ingest", MetricsMiddleware(s.webhookHandler.HandleIngest, "ingest"))
	mux.HandleFunc("/api/v1/stats/current", MetricsMiddleware(s.currentHandler.HandleCurrentStats, "stats_current"))
	mux.HandleFunc("/api/v1/stats/daily", MetricsMiddleware(s.dailyHandler.HandleDailyStats, "stats_daily"))
	mux.HandleFunc("/api/v1/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
}

// eventRequest mirrors the OpenAPI schema for POST /api/v1/webhook/ingest.
type eventRequest struct {
	Source    string                 `json:"source"`
	EventType string                 `json:"event_type"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// eventResponse mirrors the OpenAPI schema for ingestion acknowledgements.
type eventResponse struct {
	Status     string `json:"status"`
	EventID    string `json:"event_id"`
	GoldEarned int    `json:"gold_earned"`
	XPEarned   int    `json:"xp_earned"`
	Message    string `json:"message"`
	Duplicate  bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
